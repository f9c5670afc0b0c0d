package recfile

import "log"

// Tracer receives progress messages from a session.
type Tracer interface {
	Trace(msg string)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(msg string)

// Trace calls f(msg).
func (f TracerFunc) Trace(msg string) { f(msg) }

// nopTracer discards messages.
type nopTracer struct{}

func (nopTracer) Trace(string) {}

// NopTracer returns a Tracer that discards everything.
func NopTracer() Tracer { return nopTracer{} }

// LogTracer returns a Tracer that prints to l.
func LogTracer(l *log.Logger) Tracer {
	return TracerFunc(func(msg string) { l.Print(msg) })
}
