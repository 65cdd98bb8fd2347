package observability

import (
	"context"
	"testing"
)

func TestSetupDisabledReturnsNoop(t *testing.T) {
	cases := []Config{
		{},
		{TracingEnabled: true},
		{TraceEndpoint: "http://localhost:4318", TracingEnabled: false},
	}
	for _, cfg := range cases {
		if cfg.TracingActive() {
			t.Fatalf("expected %+v to be inactive", cfg)
		}
		shutdown, err := Setup(context.Background(), cfg)
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	}
}

func TestSetupInstallsProvider(t *testing.T) {
	cfg := Config{TraceEndpoint: "http://127.0.0.1:4318", TracingEnabled: true, ServiceName: "test"}
	shutdown, err := Setup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
