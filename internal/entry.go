// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/jarvis/internal/actions"
	"github.com/starford/jarvis/internal/api"
	"github.com/starford/jarvis/internal/assistant"
	"github.com/starford/jarvis/internal/auditlog"
	"github.com/starford/jarvis/internal/brain"
	"github.com/starford/jarvis/internal/desktop"
	"github.com/starford/jarvis/internal/dispatch"
	"github.com/starford/jarvis/internal/history"
	"github.com/starford/jarvis/internal/logger"
	"github.com/starford/jarvis/internal/mcpserver"
	"github.com/starford/jarvis/internal/sse"
	"github.com/starford/jarvis/internal/storage"
	"github.com/starford/jarvis/internal/stt"
	"github.com/starford/jarvis/internal/trashwatch"
)

// App holds the wired components shared by every entry point.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Service *assistant.Service
	FS      *storage.FS
	Broker  *sse.Broker

	version string
	closers []func() error
}

// New builds the application from the given options.
func New(opts ...Option) (*App, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config
	cfg.Expand()

	log, err := logger.New(app.logOutput, cfg.App.LogFormat, cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	log.Debug("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("desktop", cfg.Paths.Desktop),
		slog.String("trash", cfg.Paths.Trash),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("brain_url", cfg.Brain.BaseURL),
		slog.String("log_level", cfg.App.LogLevel.String()))

	a := &App{Config: cfg, Logger: log, version: app.version}

	fs, err := storage.NewFS(cfg.Paths.Trash, cfg.Paths.Restore)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.FS = fs

	input := desktop.NewInput(desktop.InputConfig{
		Backend:     cfg.Input.Backend,
		DebuggerURL: cfg.Browser.DebuggerURL,
	}, desktop.ExecRunner{}, exec.LookPath, log)
	if c, ok := input.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	ctrl := desktop.New(
		desktop.WithInput(input),
		desktop.WithSettleDelay(cfg.Browser.SettleDelay),
		desktop.WithLogger(log),
	)

	cat := actions.NewCatalog(&actions.Toolbox{
		FS:           fs,
		Desktop:      ctrl,
		DesktopDir:   cfg.Paths.Desktop,
		ReadLimitMB:  cfg.Limits.ReadMB,
		Browser:      cfg.Browser.Preferred,
		PPTXTemplate: cfg.Office.PPTXTemplate,
	})
	executor := dispatch.NewExecutor(dispatch.New(cat, auditlog.New(cfg.Paths.Logs), log))

	db, err := history.Open(cfg.SQLite.Path)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init history: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	interpreter := brain.New(brain.Config{
		BaseURL:     cfg.Brain.BaseURL,
		APIKey:      cfg.Brain.APIKey,
		Model:       cfg.Brain.Model,
		Timeout:     cfg.Brain.Timeout,
		Temperature: cfg.Brain.Temperature,
		MaxRetries:  1,
	}, brain.SystemPrompt(cat.All(), cfg.Paths.Desktop), log)

	transcriber := stt.New(stt.Config{
		BaseURL:    cfg.STT.BaseURL,
		APIKey:     cfg.STT.APIKey,
		Model:      cfg.STT.Model,
		Language:   cfg.STT.Language,
		Timeout:    cfg.STT.Timeout,
		MaxRetries: 1,
	}, log)

	a.Broker = sse.NewBroker(2 * time.Second)
	a.closers = append(a.closers, func() error { a.Broker.Close(); return nil })

	a.Service = assistant.New(executor, fs,
		assistant.WithInterpreter(interpreter),
		assistant.WithTranscriber(transcriber),
		assistant.WithHistory(db),
		assistant.WithEvents(a.Broker),
		assistant.WithContextTurns(cfg.Brain.HistoryTurns),
		assistant.WithLogger(log),
	)
	return a, nil
}

// Close releases the resources opened by New, last opened first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Handler returns the HTTP handler with health checks and the API routes.
func (a *App) Handler() http.Handler {
	cfg := a.Config

	apiRouter := api.NewRouter(a.Service, api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Limiter:     api.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		CORSOrigins: cfg.App.HTTP.CORSOrigins,
	}, a.Broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(a.FS.TrashDir()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"trash unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", apiRouter)
	return r
}

// Serve runs the HTTP server and the trash watcher until a signal arrives or
// ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config
	logger := a.Logger

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Trash watcher feeding the SSE broker.
	g.Go(func() error {
		if err := trashwatch.Watch(gCtx, cfg.Paths.Trash, logger, a.Broker.PublishTrashChange); err != nil {
			logger.Warn("trash watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Event streams never finish on their own.
		a.Broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// ServeMCP serves the assistant over MCP on stdin/stdout.
func (a *App) ServeMCP() error {
	a.Logger.Info("MCP server starting", slog.Int("actions", len(a.Service.Actions())))
	return mcpserver.New(a.Service, a.version).ServeStdio()
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := New(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}()
	return app.Serve(ctx)
}
