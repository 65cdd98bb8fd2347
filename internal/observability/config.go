package observability

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	// EnablePprof mounts net/http/pprof under /debug/pprof.
	EnablePprof bool
	// TraceEndpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	TraceEndpoint string
	// TracingEnabled is the explicit kill switch for tracing.
	TracingEnabled bool
	ServiceName    string
}

// TracingActive reports whether Setup will install a provider.
func (c Config) TracingActive() bool {
	return c.TracingEnabled && c.TraceEndpoint != ""
}
