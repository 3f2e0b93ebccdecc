package dispatch

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Option configures a dispatcher. Options that only apply to the
// AsyncDispatcher are ignored by the other variants.
type Option func(*options)

type options struct {
	logger          hclog.Logger
	tracer          trace.Tracer
	panicHandler    PanicHandler
	queueSize       int
	workerCount     int
	listenerTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:       hclog.NewNullLogger(),
		tracer:       noop.NewTracerProvider().Tracer(""),
		panicHandler: defaultPanicHandler,
		queueSize:    1024,
		workerCount:  10,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for registration and failure logs.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer sets the tracer used for dispatch and listener spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithPanicHandler sets the handler notified when a listener panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(o *options) {
		if h != nil {
			o.panicHandler = h
		}
	}
}

// WithQueueSize sets the async task queue size.
func WithQueueSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of async worker goroutines.
func WithWorkerCount(count int) Option {
	return func(o *options) {
		if count > 0 {
			o.workerCount = count
		}
	}
}

// WithListenerTimeout sets a deadline on the context each async listener
// receives. Listeners are not interrupted when it passes.
func WithListenerTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.listenerTimeout = timeout
	}
}
