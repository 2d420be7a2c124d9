// Package trace records what the compiler spends its time on.
//
// A Tracer receives span begin/end events from the driver, from each
// program being compiled, from the backend passes (allocate, lower, runtime,
// link) and from every lowered function. Tracers travel in a context:
//
//	ctx = trace.WithTracer(ctx, t)
//	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "link", parent)
//	defer sp.End("")
//
// Stream tracers write each event as it happens (text, NDJSON or the Chrome
// trace_event format); ring tracers keep the most recent events so they can
// be dumped after a failed build.
package trace
