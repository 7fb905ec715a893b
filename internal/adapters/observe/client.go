package observe

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// Watch connects to a /ws endpoint and calls fn for every message until
// the tracker shuts down, the connection drops, or ctx is done. A shutdown
// message or a normal close returns nil.
func Watch(ctx context.Context, url string, fn func(Message)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		enc := EncodingJSON
		if kind == websocket.BinaryMessage {
			enc = EncodingCBOR
		}
		var m Message
		if err := enc.unmarshal(data, &m); err != nil {
			return fmt.Errorf("decode %s frame: %w", enc, err)
		}
		fn(m)
		if m.Type == TypeShutdown {
			return nil
		}
	}
}
