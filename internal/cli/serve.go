package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/vsm/internal/logging"
	"github.com/aretw0/vsm/pkg/adapters/file"
	vsmhttp "github.com/aretw0/vsm/pkg/adapters/http"
	vsmmcp "github.com/aretw0/vsm/pkg/adapters/mcp"
	"github.com/aretw0/vsm/pkg/adapters/redis"
	"github.com/aretw0/vsm/pkg/config"
	"github.com/aretw0/vsm/pkg/host"
	"github.com/aretw0/vsm/pkg/observability"
	"github.com/aretw0/vsm/pkg/persistence/middleware"
	"github.com/aretw0/vsm/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions contains all the configuration for the Serve command.
type ServeOptions struct {
	Paths      []string
	ConfigPath string

	// Listen overrides the configured address when set.
	Listen string

	// StateDir enables file snapshots when no Redis address is configured.
	StateDir string
	Watch    bool
	Debug    bool

	// MCP serves the MCP tools too: "stdio" for In and Out, or an address
	// for the SSE transport.
	MCP string

	In  io.Reader
	Out io.Writer
}

// App is a host with its machines loaded from graph files.
type App struct {
	Manager  *host.Manager
	Registry *prometheus.Registry
	Config   config.Config

	logger  *slog.Logger
	loaders map[string]*file.Loader
	persist bool
	closers []func() error
}

// NewApp loads the configuration, wires the store, metrics and host, and
// creates one machine per graph file. Machines are resumed from the store
// when one is configured.
func NewApp(ctx context.Context, opts ServeOptions) (*App, error) {
	if len(opts.Paths) == 0 {
		return nil, errors.New("at least one graph file is required")
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	level := cfg.Level()
	if opts.Debug {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Registry: reg,
		Config:   cfg,
		logger:   logger,
		loaders:  make(map[string]*file.Loader),
	}

	hostOpts := []host.Option{
		host.WithLogger(logger),
		host.WithConfig(cfg),
		host.WithMetrics(metrics),
	}
	var store ports.SnapshotStore
	switch {
	case cfg.Redis.Addr != "":
		rs := redis.New(cfg.Redis.Addr, "", 0,
			redis.WithPrefix(cfg.Redis.Prefix+"snapshot:"),
			redis.WithTTL(cfg.Redis.TTL),
		)
		store = rs
		hostOpts = append(hostOpts, host.WithLocker(redis.NewLocker(rs.Client(), cfg.Redis.Prefix)))
		app.closers = append(app.closers, rs.Close)
		logger.Info("using redis snapshot store", "addr", cfg.Redis.Addr)
	case opts.StateDir != "":
		store = file.NewStore(opts.StateDir)
		logger.Info("using file snapshot store", "dir", opts.StateDir)
	}
	if store != nil {
		if cfg.EncryptionKey != "" {
			key, err := middleware.ParseKey(cfg.EncryptionKey)
			if err != nil {
				app.Close()
				return nil, err
			}
			mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
			if err != nil {
				app.Close()
				return nil, err
			}
			store = middleware.Chain(store, mw)
			logger.Info("snapshot encryption enabled")
		}
		hostOpts = append(hostOpts, host.WithStore(store))
		app.persist = true
	}
	app.Manager = host.New(hostOpts...)

	for _, path := range opts.Paths {
		loader := file.NewLoader(path, file.WithLogger(logger))
		def, err := loader.LoadDefinition(ctx)
		if err != nil {
			app.Close()
			return nil, err
		}
		g, err := file.Build(def)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, err := app.Manager.Create(def.Name, g); err != nil {
			app.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		app.loaders[def.Name] = loader
	}

	if app.persist {
		if err := app.Manager.ResumeAll(ctx); err != nil {
			app.Close()
			return nil, err
		}
	} else {
		app.Manager.StartAll()
	}
	return app, nil
}

// Watch reloads a machine whenever its graph file changes. A file that fails
// to load leaves the running machine untouched.
func (a *App) Watch(ctx context.Context) error {
	for name, loader := range a.loaders {
		ch, err := loader.Watch(ctx)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", loader.Path(), err)
		}
		go func() {
			for range ch {
				g, err := loader.LoadGraph(ctx)
				if err != nil {
					a.logger.Warn("graph reload failed, keeping the running machine",
						"machine", name, "path", loader.Path(), "err", err)
					continue
				}
				if _, err := a.Manager.Reload(name, g); err != nil {
					a.logger.Warn("graph reload failed", "machine", name, "err", err)
				}
			}
		}()
	}
	return nil
}

// Handler returns the HTTP API for the app.
func (a *App) Handler() http.Handler {
	return vsmhttp.NewHandler(a.Manager,
		vsmhttp.WithMetrics(a.Registry),
		vsmhttp.WithLogger(a.logger),
	)
}

// MCP returns the MCP tools for the app.
func (a *App) MCP() *vsmmcp.Server {
	return vsmmcp.NewServer(a.Manager, vsmmcp.WithLogger(a.logger))
}

// serveMCP runs the MCP transport selected by opts until ctx is done.
func (a *App) serveMCP(ctx context.Context, opts ServeOptions) error {
	srv := a.MCP()
	if opts.MCP != "stdio" {
		return srv.ServeSSE(ctx, opts.MCP)
	}
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return srv.ServeStdio(ctx, in, out)
}

// Close checkpoints the machines when a store is configured and releases
// the store.
func (a *App) Close() error {
	var errs []error
	if a.persist && a.Manager != nil && len(a.Manager.Names()) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errs = append(errs, a.Manager.Checkpoint(ctx))
	}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	a.persist = false
	return errors.Join(errs...)
}

// Serve runs the tick loop and the HTTP server until ctx is done.
func Serve(ctx context.Context, opts ServeOptions) error {
	app, err := NewApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.logger.Error("shutdown checkpoint failed", "err", err)
		}
	}()

	if opts.Watch {
		if err := app.Watch(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:    app.Config.Listen,
		Handler: app.Handler(),
	}

	// Channel to listen for errors coming from the listeners.
	serverErrors := make(chan error, 2)
	go func() {
		// Stdout belongs to the MCP stdio transport when it is enabled.
		if opts.Out != nil && opts.MCP != "stdio" {
			printSystemMessage(opts.Out, "Serving %d machine(s) on %s", len(app.Manager.Names()), srv.Addr)
		}
		serverErrors <- srv.ListenAndServe()
	}()

	if opts.MCP != "" {
		go func() {
			if err := app.serveMCP(ctx, opts); err != nil {
				serverErrors <- fmt.Errorf("mcp: %w", err)
			}
		}()
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go func() {
		_ = app.Manager.Run(loopCtx, app.Config.TickRate)
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	stopLoop()

	// Give outstanding requests a deadline for completion.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
		return srv.Close()
	}
	app.logger.Info("server stopped")
	return nil
}
