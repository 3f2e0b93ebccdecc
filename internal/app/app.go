// Package app wires the configured dispatcher, script listeners, journal
// and tracing into one Application.
package app

import (
	"context"
	"io"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/dshills/epicenter/internal/config"
	"github.com/dshills/epicenter/internal/event/dispatch"
	"github.com/dshills/epicenter/internal/journal"
	"github.com/dshills/epicenter/internal/plugin/lua"
	"github.com/dshills/epicenter/internal/telemetry"
)

// Application owns a dispatcher and the listeners registered on it.
//
// Listeners run in this order: the audit log, each configured script, then
// the journal recorder, so the journal stores documents as the scripts left
// them.
type Application struct {
	config *config.Config
	logger hclog.Logger

	dispatcher dispatch.Dispatcher
	async      *dispatch.AsyncDispatcher

	scripts []*lua.Script
	journal *journal.Journal

	shutdownTracing func(context.Context) error
}

// Options configures the application.
type Options struct {
	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer
}

// New creates an Application from cfg. Call Shutdown when done.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		config: cfg,
		logger: NewLogger(cfg.Log, opts.LogOutput),
	}

	if err := app.bootstrap(ctx); err != nil {
		app.cleanup(ctx)
		return nil, err
	}
	return app, nil
}

// cleanup releases whatever bootstrap set up before it failed.
func (app *Application) cleanup(ctx context.Context) {
	if err := app.Shutdown(ctx); err != nil {
		app.logger.Error("cleanup after failed start", "error", err)
	}
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap(ctx context.Context) error {
	// 1. Tracing, before the dispatcher takes its tracer.
	shutdown, err := telemetry.Setup(ctx, app.config.Trace)
	if err != nil {
		return &InitError{Component: "tracing", Err: err}
	}
	app.shutdownTracing = shutdown

	// 2. Dispatcher
	if err := app.initDispatcher(); err != nil {
		return &InitError{Component: "dispatcher", Err: err}
	}

	// 3. Listeners
	dispatch.Listen(app.dispatcher, app.audit)

	for _, sc := range app.config.Scripts {
		script, err := app.loadScript(sc)
		if err != nil {
			return &InitError{Component: "script " + sc.Path, Err: err}
		}
		app.scripts = append(app.scripts, script)
		dispatch.ListenAsync(app.dispatcher, lua.Listener[Document](script))
	}

	if path := app.config.Journal.Path; path != "" {
		j, err := journal.Open(ctx, path, journal.WithLogger(app.logger.Named("journal")))
		if err != nil {
			return &InitError{Component: "journal", Err: err}
		}
		app.journal = j
		dispatch.ListenAsync(app.dispatcher, journal.Recorder[Document](j))
	}

	app.logger.Debug("application ready",
		"mode", app.config.Dispatch.Mode,
		"scripts", len(app.scripts),
		"journal", app.journal != nil,
	)
	return nil
}

func (app *Application) initDispatcher() error {
	dc := app.config.Dispatch
	opts := []dispatch.Option{
		dispatch.WithLogger(app.logger.Named("dispatch")),
		dispatch.WithTracer(telemetry.Tracer()),
		dispatch.WithPanicHandler(func(ev any, value any, stack []byte) {
			app.logger.Error("listener panic", "event", ev, "panic", value, "stack", string(stack))
		}),
	}

	switch dc.Mode {
	case config.ModeAsync:
		opts = append(opts,
			dispatch.WithWorkerCount(dc.Workers),
			dispatch.WithQueueSize(dc.QueueSize),
			dispatch.WithListenerTimeout(dc.ListenerTimeout.Std()),
		)
		d := dispatch.NewAsyncDispatcher(opts...)
		if err := d.Start(); err != nil {
			return err
		}
		app.async = d
		app.dispatcher = d
	case config.ModeNull:
		app.dispatcher = dispatch.NewNullDispatcher(opts...)
	default:
		app.dispatcher = dispatch.NewSyncDispatcher(opts...)
	}
	return nil
}

func (app *Application) loadScript(sc config.ScriptConfig) (*lua.Script, error) {
	opts := []lua.StateOption{
		lua.WithLogger(app.logger.Named("lua").Named(filepath.Base(sc.Path))),
	}
	if sc.Timeout > 0 {
		opts = append(opts, lua.WithExecutionTimeout(sc.Timeout.Std()))
	}
	return lua.LoadScript(sc.Path, sc.Function, opts...)
}

func (app *Application) audit(doc *Document) error {
	app.logger.Debug("document received", "kind", doc.Kind, "fields", len(doc.Fields))
	return nil
}

// Dispatcher returns the application's dispatcher.
func (app *Application) Dispatcher() dispatch.Dispatcher {
	return app.dispatcher
}

// Logger returns the root logger.
func (app *Application) Logger() hclog.Logger {
	return app.logger
}

// Dispatch runs doc through every listener and returns the result.
func (app *Application) Dispatch(ctx context.Context, doc Document) (Document, error) {
	if doc.Kind == "" {
		return Document{}, ErrKindRequired
	}
	out, err := dispatch.DispatchValue(ctx, app.dispatcher, doc)
	if err != nil {
		app.logger.Warn("dispatch failed", "kind", doc.Kind, "error", err)
		return Document{}, err
	}
	return out, nil
}

// Records lists the newest journaled documents.
func (app *Application) Records(ctx context.Context, limit int) ([]journal.Record, error) {
	if app.journal == nil {
		return nil, ErrJournalDisabled
	}
	return app.journal.Records(ctx, DocumentKey, limit)
}

// Shutdown stops the dispatcher and releases every resource, returning the
// first error met. It is safe to call more than once.
func (app *Application) Shutdown(ctx context.Context) error {
	var errs []error

	if app.async != nil && app.async.IsRunning() {
		if err := app.async.Stop(ctx); err != nil {
			errs = append(errs, errors.Wrap(err, "stop dispatcher"))
		}
	}
	for _, s := range app.scripts {
		if err := s.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close script %s", s.Name()))
		}
	}
	app.scripts = nil
	if app.journal != nil {
		if err := app.journal.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close journal"))
		}
		app.journal = nil
	}
	if app.shutdownTracing != nil {
		if err := app.shutdownTracing(ctx); err != nil {
			errs = append(errs, errors.Wrap(err, "shutdown tracing"))
		}
		app.shutdownTracing = nil
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
