// Package observe streams the tracker's status lines to remote viewers.
//
// A viewer connects to /ws and receives one log_ring message with the
// buffered lines, then one log message per new line, then a shutdown
// message when the tracker stops. Messages are JSON text frames, or CBOR
// binary frames when the viewer asks for ?encoding=cbor.
package observe

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/bft-labs/geoship/internal/domain"
)

// Message types.
const (
	TypeLogRing  = "log_ring"
	TypeLog      = "log"
	TypeShutdown = "shutdown"
)

// Message is one frame on the observe stream.
type Message struct {
	Type    string            `json:"type" cbor:"type"`
	Entries []domain.LogEntry `json:"entries,omitempty" cbor:"entries,omitempty"`
	Text    string            `json:"text,omitempty" cbor:"text,omitempty"`
}

// Encoding selects the frame format.
type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingCBOR
)

func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "json":
		return EncodingJSON, nil
	case "cbor":
		return EncodingCBOR, nil
	}
	return 0, fmt.Errorf("unknown encoding %q", s)
}

func (e Encoding) String() string {
	if e == EncodingCBOR {
		return "cbor"
	}
	return "json"
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("observe: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("observe: CBOR decoder initialization failed: " + err.Error())
	}
}

func (e Encoding) marshal(m Message) ([]byte, error) {
	if e == EncodingCBOR {
		return encMode.Marshal(m)
	}
	return json.Marshal(m)
}

func (e Encoding) unmarshal(data []byte, m *Message) error {
	if e == EncodingCBOR {
		return decMode.Unmarshal(data, m)
	}
	return json.Unmarshal(data, m)
}
