package proto

import (
	"encoding/json"
	"testing"

	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

func TestEncodeEventFrame(t *testing.T) {
	event := logging.Event{
		Type:     "spawner.placement_executed",
		Actor:    logging.EntityRef{ID: "world:0", Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySpawner,
		Payload:  map[string]int{"x": 3},
	}
	data, err := EncodeEvent(7, event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["ver"] != float64(Version) || raw["type"] != TypeEvent || raw["seq"] != float64(7) {
		t.Fatalf("unexpected frame header %v", raw)
	}
	frame, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Event.Type != event.Type || frame.Event.Actor != event.Actor {
		t.Fatalf("unexpected decoded event %+v", frame.Event)
	}
}

func TestDecodeEventRejectsOtherFrames(t *testing.T) {
	hello, err := EncodeHello(Hello{Session: "feed-1"})
	if err != nil {
		t.Fatalf("encode hello: %v", err)
	}
	if _, err := DecodeEvent(hello); err == nil {
		t.Fatalf("expected hello frame to be rejected")
	}
	if _, err := DecodeEvent([]byte(`{"ver":9,"type":"event"}`)); err == nil {
		t.Fatalf("expected version mismatch to be rejected")
	}
}

func TestDecodeClientMessage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"heartbeat","sentAt":42}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Ver != Version || msg.Type != TypeHeartbeat || msg.SentAt != 42 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if _, err := DecodeClientMessage([]byte(`{"ver":2,"type":"heartbeat"}`)); err == nil {
		t.Fatalf("expected unsupported version error")
	}
	if _, err := DecodeClientMessage([]byte(`not json`)); err == nil {
		t.Fatalf("expected malformed payload error")
	}
}

func TestEncodeHeartbeat(t *testing.T) {
	data, err := EncodeHeartbeat(Heartbeat{ServerTime: 10, ClientTime: 4, RTTMillis: 6})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != `{"ver":1,"type":"heartbeat","serverTime":10,"clientTime":4,"rtt":6}` {
		t.Fatalf("unexpected heartbeat %s", data)
	}
}
