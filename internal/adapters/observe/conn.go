package observe

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
)

var errSlowViewer = errors.New("observe: viewer not keeping up")

// viewer is one websocket connection. It is the tracker's subscriber
// handle: deliveries only enqueue, and a full queue or closed connection
// reports an error so the tracker drops the viewer.
type viewer struct {
	conn *websocket.Conn
	enc  Encoding

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

var (
	_ ports.Subscriber       = (*viewer)(nil)
	_ ports.ShutdownNotifier = (*viewer)(nil)
)

func newViewer(conn *websocket.Conn, enc Encoding) *viewer {
	return &viewer{conn: conn, enc: enc, send: make(chan []byte, sendBuffer)}
}

func (v *viewer) DeliverSnapshot(entries []domain.LogEntry) error {
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	return v.enqueue(Message{Type: TypeLogRing, Entries: entries})
}

func (v *viewer) Deliver(text string) error {
	return v.enqueue(Message{Type: TypeLog, Text: text})
}

// NotifyShutdown queues the shutdown frame and ends the write pump.
func (v *viewer) NotifyShutdown() {
	data, err := v.enc.marshal(Message{Type: TypeShutdown})

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if err == nil {
		select {
		case v.send <- data:
		default:
		}
	}
	v.closed = true
	close(v.send)
}

func (v *viewer) enqueue(m Message) error {
	data, err := v.enc.marshal(m)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return websocket.ErrCloseSent
	}
	select {
	case v.send <- data:
		return nil
	default:
		return errSlowViewer
	}
}

func (v *viewer) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.closed = true
		close(v.send)
	}
}

func (v *viewer) frameType() int {
	if v.enc == EncodingCBOR {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (v *viewer) writePump() {
	defer v.conn.Close()
	for data := range v.send {
		_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := v.conn.WriteMessage(v.frameType(), data); err != nil {
			v.close()
			for range v.send {
			}
			return
		}
	}
	_ = v.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "tracker stopped"),
		time.Now().Add(writeWait))
}

// readPump discards input until the viewer goes away.
func (v *viewer) readPump(onClose func()) {
	defer onClose()
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}
