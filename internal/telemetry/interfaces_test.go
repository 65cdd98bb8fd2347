package telemetry

import (
	"bytes"
	"log"
	"sync"
	"testing"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := log.New(&buf, "", 0)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "world")
		if got := buf.String(); got != "hello world\n" {
			t.Fatalf("unexpected log output: %q", got)
		}
	})
}

func TestCounters(t *testing.T) {
	counters := NewCounters()

	counters.Add("test_counter", 2)
	counters.Store("test_counter", 5)
	counters.Add("test_counter", 3)

	snapshot := counters.Snapshot()
	if got := snapshot["test_counter"]; got != 8 {
		t.Fatalf("unexpected metric value: %d", got)
	}

	// Ensure nil counters do not panic.
	var nilCounters *Counters
	nilCounters.Add("ignored", 1)
	nilCounters.Store("ignored", 1)
	if got := nilCounters.Load("ignored"); got != 0 {
		t.Fatalf("expected zero from nil counters, got %d", got)
	}
}

func TestCountersConcurrentAdd(t *testing.T) {
	counters := NewCounters()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				counters.Add("hits", 1)
			}
		}()
	}
	wg.Wait()
	if got := counters.Load("hits"); got != 8000 {
		t.Fatalf("expected 8000 hits, got %d", got)
	}
	if keys := counters.Keys(); len(keys) != 1 || keys[0] != "hits" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
