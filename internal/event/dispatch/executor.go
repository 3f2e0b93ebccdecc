package dispatch

import (
	"context"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dshills/epicenter/internal/event"
)

// Executor handles the actual execution of listeners with
// panic recovery, timing and tracing.
type Executor struct {
	panicHandler PanicHandler
	tracer       trace.Tracer
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		panicHandler: defaultPanicHandler,
		tracer:       noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorPanicHandler sets the panic handler for the executor.
func WithExecutorPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		if h != nil {
			e.panicHandler = h
		}
	}
}

// WithExecutorTracer sets the tracer used for per-listener spans.
func WithExecutorTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// Execute runs one listener entry with the given event and returns the
// result. Panics are recovered and reported as *event.PanicError.
func (e *Executor) Execute(ctx context.Context, entry event.Entry, ev any) (result Result) {
	// Check context before starting
	select {
	case <-ctx.Done():
		return Result{
			Success: false,
			Error:   ctx.Err(),
			Skipped: true,
		}
	default:
	}

	ctx, span := e.tracer.Start(ctx, "listener",
		trace.WithAttributes(
			attribute.String("listener.id", entry.ID),
			attribute.Int("listener.position", entry.Position),
			attribute.Bool("listener.async", entry.Async),
		),
	)
	defer span.End()

	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			stack := debug.Stack()

			result.Success = false
			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = stack
			result.Error = &event.PanicError{
				RegistrationID: entry.ID,
				Event:          entry.Key.String(),
				Value:          r,
				Stack:          string(stack),
			}
			span.RecordError(result.Error)

			// Protect the panic handler call - don't let it crash the process
			if e.panicHandler != nil {
				func() {
					defer func() {
						_ = recover()
					}()
					e.panicHandler(ev, r, stack)
				}()
			}
		}
	}()

	if err := entry.Handler.Handle(ctx, ev); err != nil {
		result.Success = false
		result.Error = err
		span.RecordError(err)
	} else {
		result.Success = true
	}

	return result
}

// ExecuteWithTimeout runs a listener with a deadline on its context.
// The listener is never interrupted; it must observe ctx to stop early.
func (e *Executor) ExecuteWithTimeout(ctx context.Context, entry event.Entry, ev any, timeout time.Duration) Result {
	if timeout <= 0 {
		return e.Execute(ctx, entry, ev)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return e.Execute(ctx, entry, ev)
}
