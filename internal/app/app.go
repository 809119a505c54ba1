package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/courier/internal/config"
	"github.com/dshills/courier/internal/dispatcher"
	"github.com/dshills/courier/internal/logging"
	"github.com/dshills/courier/internal/mailbox"
	"github.com/dshills/courier/internal/plugin"
	"github.com/dshills/courier/internal/plugin/lua"
	"github.com/dshills/courier/internal/plugin/native"
	"github.com/dshills/courier/internal/protocol"
)

// shutdownGrace bounds how long Shutdown waits for queues to drain.
const shutdownGrace = 10 * time.Second

// App owns the assembled runtime.
type App struct {
	cfg  *config.Config
	log  *slog.Logger
	mb   *mailbox.Mailbox
	disp *dispatcher.Dispatcher
	mgr  *plugin.Manager

	watcher *plugin.Watcher
	core    protocol.EndpointID
}

// New builds the runtime from configuration. The core supervisor
// endpoint is registered before anything else so it gets the zero
// address.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	opts := []mailbox.Option{
		mailbox.WithQueueCapacity(cfg.Mailbox.QueueCapacity),
		mailbox.WithMaxPayload(cfg.Mailbox.MaxPayload),
	}
	if cfg.Logging.Trace {
		opts = append(opts, mailbox.WithTracer(logging.NewTracer(log, cfg.Logging.TraceFilter)))
	}

	mb := mailbox.New(opts...)
	disp := dispatcher.New(mb, dispatcher.WithLogger(log))
	mb.Bind(disp)

	a := &App{
		cfg:  cfg,
		log:  log,
		mb:   mb,
		disp: disp,
	}

	core, err := mb.Register("core", 0, a.coreHandler())
	if err != nil {
		return nil, fmt.Errorf("registering core endpoint: %w", err)
	}
	if err := mb.Activate(core); err != nil {
		return nil, fmt.Errorf("activating core endpoint: %w", err)
	}
	a.core = core
	disp.SetSupervisor(core)

	mgr := plugin.NewManager(mb, log)
	mgr.RegisterKind(plugin.KindLua, lua.Factory)
	mgr.RegisterKind(plugin.KindNative, native.Factory)
	a.mgr = mgr

	return a, nil
}

// Mailbox returns the routing kernel.
func (a *App) Mailbox() *mailbox.Mailbox { return a.mb }

// Dispatcher returns the delivery engine.
func (a *App) Dispatcher() *dispatcher.Dispatcher { return a.disp }

// Manager returns the plugin manager.
func (a *App) Manager() *plugin.Manager { return a.mgr }

// Core returns the supervisor's bus address.
func (a *App) Core() protocol.EndpointID { return a.core }

// LoadPlugins loads everything configuration names. In strict mode the
// first failure is returned; otherwise failures log and loading
// continues.
func (a *App) LoadPlugins() error {
	for _, dir := range a.cfg.Plugins.Paths {
		if _, err := a.mgr.Load(dir); err != nil {
			if a.cfg.Plugins.Strict {
				return err
			}
			a.log.Warn("skipping plugin", "dir", dir, "error", err)
		}
	}
	for _, dir := range a.cfg.Plugins.Dirs {
		if _, err := a.mgr.LoadDir(dir, a.cfg.Plugins.Strict); err != nil {
			if a.cfg.Plugins.Strict {
				return err
			}
			a.log.Warn("scanning plugin dir", "dir", dir, "error", err)
		}
	}
	return nil
}

// StartWatcher begins hot reload over the configured plugin dirs.
func (a *App) StartWatcher() error {
	if len(a.cfg.Plugins.Dirs) == 0 {
		return nil
	}
	w, err := plugin.NewWatcher(a.mgr, a.log, a.cfg.Plugins.Dirs)
	if err != nil {
		return err
	}
	a.watcher = w
	w.Start()
	return nil
}

// Run blocks until the context ends or a termination signal arrives,
// then shuts the runtime down.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.log.Info("courier running", "core", uint32(a.core))
	<-ctx.Done()
	a.log.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return a.Shutdown(sctx)
}

// Shutdown unloads plugins, drains every endpoint, and waits for the
// dispatcher's workers to finish.
func (a *App) Shutdown(ctx context.Context) error {
	if a.watcher != nil {
		a.watcher.Stop()
		a.watcher = nil
	}
	if err := a.mgr.UnloadAll(ctx); err != nil {
		a.log.Warn("unloading plugins", "error", err)
	}
	if err := a.mb.Close(ctx); err != nil {
		return fmt.Errorf("closing mailbox: %w", err)
	}
	return a.disp.Wait(ctx)
}
