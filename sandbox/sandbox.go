package sandbox

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Sentinel errors for limit violations. Both are terminal for the
// invocation; the sandbox never retries.
var (
	// ErrTimeout reports that a task exceeded its wall-clock limit.
	ErrTimeout = errors.New("sandbox: wall-clock limit exceeded")

	// ErrMemoryLimit reports that a task exceeded its memory ceiling.
	ErrMemoryLimit = errors.New("sandbox: memory limit exceeded")
)

// PanicError wraps a panic recovered from a task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("sandbox: task panicked: %v", e.Value)
}

// Limits bounds a single sandboxed invocation.
type Limits struct {
	// MaxMemory is the heap-growth ceiling in bytes. The guard samples
	// process heap usage, so the bound is enforced approximately and
	// shared pressure from concurrent tasks may trip it early rather
	// than late.
	MaxMemory int64

	// Timeout is the wall-clock limit.
	Timeout time.Duration
}

// DefaultLimits are applied where a Limits field is zero.
var DefaultLimits = Limits{
	MaxMemory: 256 << 20,
	Timeout:   30 * time.Second,
}

func (l Limits) withDefaults(d Limits) Limits {
	if l.MaxMemory <= 0 {
		l.MaxMemory = d.MaxMemory
	}
	if l.Timeout <= 0 {
		l.Timeout = d.Timeout
	}
	return l
}

// memCheckInterval is how often the memory guard samples heap usage.
const memCheckInterval = 10 * time.Millisecond

// Task is a unit of sandboxed work. The task must honor ctx cancellation
// promptly; tasks that do not are abandoned at the deadline and their
// results discarded.
type Task func(ctx context.Context) (any, error)

// Pool bounds the number of concurrently executing sandboxed tasks.
// Invocations are independent: no state survives from one task to the
// next, and a slot abandoned at timeout is immediately reusable.
type Pool struct {
	slots    chan struct{}
	defaults Limits
}

// NewPool creates a pool allowing size concurrent tasks. Zero limit
// fields in defaults fall back to DefaultLimits.
func NewPool(size int, defaults Limits) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		slots:    make(chan struct{}, size),
		defaults: defaults.withDefaults(DefaultLimits),
	}
}

// Run executes task under the given limits, blocking for a free slot
// first. It returns the task's result, or ErrTimeout / ErrMemoryLimit /
// *PanicError / the context's error on abnormal termination. The calling
// goroutine always returns by the deadline even if the task keeps running.
func (p *Pool) Run(ctx context.Context, limits Limits, task Task) (any, error) {
	select {
	case p.slots <- struct{}{}:
		defer func() { <-p.slots }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	limits = limits.withDefaults(p.defaults)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		val any
		err error
	}
	// Buffered so an abandoned task can deliver and exit.
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &PanicError{Value: r, Stack: debug.Stack()}}
			}
		}()
		val, err := task(runCtx)
		done <- outcome{val: val, err: err}
	}()

	memHit := make(chan struct{}, 1)
	go guardMemory(runCtx, limits.MaxMemory, memHit)

	timer := time.NewTimer(limits.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.val, out.err
	case <-memHit:
		cancel()
		return nil, ErrMemoryLimit
	case <-timer.C:
		cancel()
		return nil, ErrTimeout
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
}

// guardMemory samples heap growth against a ceiling and signals hit when
// the ceiling is crossed. Sampling is process-global; the guard measures
// growth relative to the heap size at task start.
func guardMemory(ctx context.Context, maxBytes int64, hit chan<- struct{}) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	baseline := int64(ms.HeapAlloc)

	ticker := time.NewTicker(memCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runtime.ReadMemStats(&ms)
			if int64(ms.HeapAlloc)-baseline > maxBytes {
				select {
				case hit <- struct{}{}:
				default:
				}
				return
			}
		}
	}
}
