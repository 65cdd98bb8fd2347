package proto

import (
	"encoding/json"
	"fmt"

	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

const (
	// Version tracks the wire-protocol revision expected by feed clients.
	Version = 1

	typeHello     = "hello"
	typeEvent     = "event"
	typeHeartbeat = "heartbeat"
)

// Client message type identifiers.
const (
	TypeHeartbeat = typeHeartbeat
)

// Exported aliases for outbound message type identifiers.
const (
	TypeHello = typeHello
	TypeEvent = typeEvent
)

// Hello is the first frame written to a feed subscriber.
type Hello struct {
	Session    string
	ServerTime int64
	// Types lists the event types the feed forwards. Empty means every type.
	Types []string
}

// EncodeHello renders the session greeting.
func EncodeHello(msg Hello) ([]byte, error) {
	frame := struct {
		Ver        int      `json:"ver"`
		Type       string   `json:"type"`
		Session    string   `json:"session"`
		ServerTime int64    `json:"serverTime"`
		Types      []string `json:"types,omitempty"`
	}{
		Ver:        Version,
		Type:       typeHello,
		Session:    msg.Session,
		ServerTime: msg.ServerTime,
		Types:      msg.Types,
	}
	return json.Marshal(frame)
}

// EventFrameV1 carries one published event to feed subscribers.
type EventFrameV1 struct {
	Ver   int           `json:"ver"`
	Type  string        `json:"type"`
	Seq   uint64        `json:"seq"`
	Event logging.Event `json:"event"`
}

// EncodeEvent renders event as a versioned feed frame.
func EncodeEvent(seq uint64, event logging.Event) ([]byte, error) {
	return json.Marshal(EventFrameV1{Ver: Version, Type: typeEvent, Seq: seq, Event: event})
}

// DecodeEvent parses a feed frame, rejecting other frame types and versions.
func DecodeEvent(payload []byte) (EventFrameV1, error) {
	var frame EventFrameV1
	if err := json.Unmarshal(payload, &frame); err != nil {
		return frame, err
	}
	if frame.Ver != Version {
		return frame, fmt.Errorf("unsupported feed protocol version %d", frame.Ver)
	}
	if frame.Type != typeEvent {
		return frame, fmt.Errorf("unexpected frame type %q", frame.Type)
	}
	return frame, nil
}

// ClientMessage captures an inbound websocket message from a feed client.
type ClientMessage struct {
	Ver    int    `json:"ver,omitempty"`
	Type   string `json:"type"`
	SentAt int64  `json:"sentAt"`
}

// DecodeClientMessage converts raw websocket payloads into a structured message.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// Heartbeat echoes timing metadata back to the client.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
	RTTMillis  int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement payload.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
		RTTMillis  int64  `json:"rtt"`
	}{
		Ver:        Version,
		Type:       typeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
		RTTMillis:  msg.RTTMillis,
	}
	return json.Marshal(frame)
}
