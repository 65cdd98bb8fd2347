package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Overload1252/wowjudo-lootboxes/internal/net/proto"
	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func websocketURL(t *testing.T, base string) string {
	t.Helper()
	parsed, err := url.Parse(base)
	if err != nil {
		t.Fatalf("failed to parse server url: %v", err)
	}
	parsed.Scheme = strings.Replace(parsed.Scheme, "http", "ws", 1)
	return parsed.String()
}

func dialFeed(t *testing.T, feed *Feed) *websocket.Conn {
	t.Helper()
	handler := NewHandler(feed, HandlerConfig{Logger: quietLogger()})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL), nil)
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return frame
}

func waitForSubscribers(t *testing.T, feed *Feed, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for feed.Subscribers() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", want, feed.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFeedBroadcastsFilteredEvents(t *testing.T) {
	feed := NewFeed(quietLogger(), "spawner.placement_executed")
	conn := dialFeed(t, feed)

	hello := readFrame(t, conn)
	if hello["type"] != proto.TypeHello || hello["session"] == "" {
		t.Fatalf("unexpected hello %v", hello)
	}
	waitForSubscribers(t, feed, 1)

	if err := feed.Write(logging.Event{Type: "loot.entry_skipped"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := feed.Write(logging.Event{Type: "spawner.placement_executed", Payload: map[string]int{"tier": 2}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	frame := readFrame(t, conn)
	event, _ := frame["event"].(map[string]any)
	if frame["type"] != proto.TypeEvent || event["type"] != "spawner.placement_executed" {
		t.Fatalf("expected the placement event only, got %v", frame)
	}
	if feed.Sent() != 1 {
		t.Fatalf("expected one frame sent, got %d", feed.Sent())
	}
}

func TestHandlerAnswersHeartbeat(t *testing.T) {
	feed := NewFeed(quietLogger())
	conn := dialFeed(t, feed)
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat","sentAt":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != proto.TypeHeartbeat || frame["clientTime"] != float64(1) {
		t.Fatalf("unexpected heartbeat ack %v", frame)
	}
}

func TestFeedCloseDisconnectsSubscribers(t *testing.T) {
	feed := NewFeed(quietLogger())
	conn := dialFeed(t, feed)
	readFrame(t, conn)
	waitForSubscribers(t, feed, 1)

	if err := feed.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected connection to be closed")
	}
	if _, ok := feed.subscribe(&fakeConn{}); ok {
		t.Fatalf("expected closed feed to refuse subscribers")
	}
}

type fakeConn struct {
	mu     sync.Mutex
	fail   bool
	writes int
	closed bool
}

func (c *fakeConn) WriteMessage(int, []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.writes++
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func TestFeedDropsFailingSubscribers(t *testing.T) {
	feed := NewFeed(quietLogger())
	healthy := &fakeConn{}
	broken := &fakeConn{fail: true}
	feed.subscribe(healthy)
	feed.subscribe(broken)

	if err := feed.Write(logging.Event{Type: "loot.granted"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if feed.Subscribers() != 1 {
		t.Fatalf("expected broken subscriber to be dropped, have %d", feed.Subscribers())
	}
	if healthy.writes != 1 || !broken.closed {
		t.Fatalf("unexpected subscriber state healthy=%d broken closed=%v", healthy.writes, broken.closed)
	}
}
