// Package sandbox executes untrusted parser work under hard resource
// bounds.
//
// Every invocation runs on its own goroutine with panic recovery, a
// wall-clock deadline and a heap-growth guard. A misbehaving task degrades
// to a typed error for that one invocation: panics become *PanicError,
// overruns become ErrTimeout or ErrMemoryLimit, and the caller's worker is
// always returned to the pool. Work that ignores cooperative cancellation
// is abandoned — its eventual result is discarded.
//
// Tasks receive only the bytes handed to them; the API gives a task no
// file or network handles, and it must not acquire any on its own.
package sandbox
