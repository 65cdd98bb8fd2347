package logging

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, including its monotonic reading.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

const (
	defaultQueueSize = 512
	minSinkBacklog   = 32
	maxSinkBacklog   = 1024
)

// Router accepts events from any goroutine and hands each one to every
// enabled sink. Events below the severity floor never reach a sink. A full
// queue or sink backlog drops the event and counts it.
type Router struct {
	cfg      Config
	clock    Clock
	fallback *log.Logger
	fields   map[string]any

	queue   chan Event
	stop    chan struct{}
	closed  atomic.Bool
	workers []*sinkWorker
	wg      sync.WaitGroup

	accepted atomic.Uint64
	dropped  atomic.Uint64
	nextWarn atomic.Int64
}

// SinkStats counts one sink's outcomes.
type SinkStats struct {
	Written  uint64 `json:"written"`
	Dropped  uint64 `json:"dropped"`
	Failures uint64 `json:"failures"`
}

type RouterStats struct {
	EventsTotal  uint64               `json:"eventsTotal"`
	DroppedTotal uint64               `json:"droppedTotal"`
	Sinks        map[string]SinkStats `json:"sinks,omitempty"`
}

// NewRouter starts a router that forwards events to every sink named in
// cfg.EnabledSinks. Sinks that are supplied but not enabled are ignored.
func NewRouter(cfg Config, clock Clock, fallback *log.Logger, sinks map[string]Sink) (*Router, error) {
	for _, name := range cfg.EnabledSinks {
		if sinks[name] == nil {
			return nil, fmt.Errorf("sink %q is enabled but not configured", name)
		}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if fallback == nil {
		fallback = log.New(os.Stderr, "[logging] ", log.LstdFlags)
	}
	queueSize := cfg.BufferSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	r := &Router{
		cfg:      cfg,
		clock:    clock,
		fallback: fallback,
		fields:   cfg.CloneFields(),
		queue:    make(chan Event, queueSize),
		stop:     make(chan struct{}),
	}

	names := make([]string, 0, len(sinks))
	for name, sink := range sinks {
		if sink != nil && cfg.HasSink(name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	backlog := min(max(queueSize, minSinkBacklog), maxSinkBacklog)
	for _, name := range names {
		r.workers = append(r.workers, newSinkWorker(name, sinks[name], backlog, r.stop, fallback))
	}

	r.wg.Add(1 + len(r.workers))
	go r.dispatch()
	for _, w := range r.workers {
		go func() {
			defer r.wg.Done()
			w.run()
		}()
	}
	return r, nil
}

// Publish queues event without blocking. Events published after Close are
// discarded.
func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" || r.closed.Load() {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.dropped.Add(1)
		r.warnDrop(event.Type)
	}
}

func (r *Router) dispatch() {
	defer r.wg.Done()
	defer func() {
		for _, w := range r.workers {
			close(w.events)
		}
	}()
	for {
		select {
		case event := <-r.queue:
			r.route(event)
		case <-r.stop:
			for {
				select {
				case event := <-r.queue:
					r.route(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Router) route(event Event) {
	if event.Severity < r.cfg.MinimumSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) > 0 {
		event = cloneForFields(event)
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(r.fields))
		}
		for k, v := range r.fields {
			if _, set := event.Extra[k]; !set {
				event.Extra[k] = v
			}
		}
	}
	r.accepted.Add(1)
	for _, w := range r.workers {
		w.offer(event)
	}
}

// warnDrop reports queue overflow at most once per DropWarnInterval.
func (r *Router) warnDrop(eventType EventType) {
	interval := r.cfg.DropWarnInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	now := r.clock.Now().UnixNano()
	next := r.nextWarn.Load()
	if now < next || !r.nextWarn.CompareAndSwap(next, now+int64(interval)) {
		return
	}
	r.fallback.Printf("router queue full, dropping %s (%d dropped so far)", eventType, r.dropped.Load())
}

// Close stops accepting events, flushes queued events to the sinks and
// closes them. Retry pauses are cut short while flushing.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stop)
	flushed := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-ctx.Done():
		return ctx.Err()
	}
	var errs []error
	for _, w := range r.workers {
		if err := w.sink.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close sink %s: %w", w.name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:  r.accepted.Load(),
		DroppedTotal: r.dropped.Load(),
	}
	if len(r.workers) > 0 {
		stats.Sinks = make(map[string]SinkStats, len(r.workers))
		for _, w := range r.workers {
			stats.Sinks[w.name] = w.stats()
		}
	}
	return stats
}

// sinkWorker owns one sink. A failed write drops that event and pauses the
// worker on an exponential schedule; the first successful write resets it.
type sinkWorker struct {
	name     string
	sink     Sink
	events   chan Event
	stop     <-chan struct{}
	fallback *log.Logger
	retry    *backoff.ExponentialBackOff

	written  atomic.Uint64
	dropped  atomic.Uint64
	failures atomic.Uint64
}

func newSinkWorker(name string, sink Sink, backlog int, stop <-chan struct{}, fallback *log.Logger) *sinkWorker {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = time.Second
	retry.MaxInterval = 32 * time.Second
	return &sinkWorker{
		name:     name,
		sink:     sink,
		events:   make(chan Event, backlog),
		stop:     stop,
		fallback: fallback,
		retry:    retry,
	}
}

func (w *sinkWorker) offer(event Event) {
	select {
	case w.events <- cloneForFields(event):
	default:
		if w.dropped.Add(1) == 1 {
			w.fallback.Printf("sink %s backlog full, dropping %s", w.name, event.Type)
		}
	}
}

func (w *sinkWorker) run() {
	for event := range w.events {
		if err := w.sink.Write(event); err != nil {
			w.failures.Add(1)
			delay := w.retry.NextBackOff()
			w.fallback.Printf("sink %s write %s failed: %v (pausing %s)", w.name, event.Type, err, delay)
			w.pause(delay)
			continue
		}
		w.written.Add(1)
		w.retry.Reset()
	}
}

func (w *sinkWorker) pause(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-w.stop:
	}
}

func (w *sinkWorker) stats() SinkStats {
	return SinkStats{
		Written:  w.written.Load(),
		Dropped:  w.dropped.Load(),
		Failures: w.failures.Load(),
	}
}
