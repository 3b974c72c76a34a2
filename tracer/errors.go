package tracer

import "errors"

var (
	ErrNoTracers   = errors.New("tracer: no tracers attached")
	ErrInterrupted = errors.New("tracer: interrupted while tracing")
	ErrTracerBusy  = errors.New("tracer: tracer did not accept block request")
	ErrNotStarted  = errors.New("tracer: tracer not initialized")
)
