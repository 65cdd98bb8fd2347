package ws

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/Overload1252/wowjudo-lootboxes/internal/net/proto"
	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

// Feed is a logging sink that broadcasts events to websocket subscribers.
// Register it with the router under the "feed" name.
type Feed struct {
	logger *log.Logger
	types  map[logging.EventType]bool

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool

	nextID atomic.Uint64
	seq    atomic.Uint64
	sent   atomic.Uint64
}

// NewFeed returns a feed forwarding the given event types. With no types
// every event is forwarded.
func NewFeed(logger *log.Logger, types ...logging.EventType) *Feed {
	if logger == nil {
		logger = log.Default()
	}
	filter := make(map[logging.EventType]bool, len(types))
	for _, t := range types {
		filter[t] = true
	}
	return &Feed{logger: logger, types: filter, sessions: make(map[string]*session)}
}

// Types lists the forwarded event types in sorted order.
func (f *Feed) Types() []string {
	out := make([]string, 0, len(f.types))
	for t := range f.types {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

func (f *Feed) forwards(t logging.EventType) bool {
	return len(f.types) == 0 || f.types[t]
}

func (f *Feed) subscribe(conn subscriberConn) (*session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false
	}
	s := &session{id: fmt.Sprintf("feed-%d", f.nextID.Add(1)), conn: conn}
	f.sessions[s.id] = s
	return s, true
}

func (f *Feed) unsubscribe(id string) {
	f.mu.Lock()
	s, ok := f.sessions[id]
	delete(f.sessions, id)
	f.mu.Unlock()
	if ok {
		s.conn.Close()
	}
}

// Subscribers reports the number of connected sessions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// Sent reports how many frames were written successfully.
func (f *Feed) Sent() uint64 {
	return f.sent.Load()
}

// Write broadcasts event to every subscriber. Subscribers whose write fails
// are dropped. Write never fails for a healthy feed so the router does not
// back off when a single client disconnects.
func (f *Feed) Write(event logging.Event) error {
	if !f.forwards(event.Type) {
		return nil
	}
	f.mu.Lock()
	subs := make([]*session, 0, len(f.sessions))
	for _, s := range f.sessions {
		subs = append(subs, s)
	}
	f.mu.Unlock()
	if len(subs) == 0 {
		return nil
	}

	data, err := proto.EncodeEvent(f.seq.Add(1), event)
	if err != nil {
		return fmt.Errorf("encode feed event: %w", err)
	}
	for _, s := range subs {
		if err := s.write(data); err != nil {
			f.logger.Printf("failed to send feed event to %s: %v", s.id, err)
			f.unsubscribe(s.id)
			continue
		}
		f.sent.Add(1)
	}
	return nil
}

// Close disconnects every subscriber and refuses new ones.
func (f *Feed) Close(context.Context) error {
	f.mu.Lock()
	subs := f.sessions
	f.sessions = make(map[string]*session)
	f.closed = true
	f.mu.Unlock()
	for _, s := range subs {
		s.close(websocket.CloseGoingAway, "shutting down")
	}
	return nil
}

var _ logging.Sink = (*Feed)(nil)
