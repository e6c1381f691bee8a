// Package trace records what covmark is doing while it loads reports.
//
// Spans cover the session refresh (driver scope), its phases such as parse,
// cache and pragma (phase scope), and per-file pragma masking (file scope).
// The tracer and the innermost span travel together on a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePhase, "parse")
//	defer span.End("")
//
// Tracers: Nop, StreamTracer (writes each event as text or NDJSON),
// RingTracer (keeps the last N events for a dump on failure) and Tee.
//
//	covmark overview --trace=- --trace-level=detail
package trace
