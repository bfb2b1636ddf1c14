// Package app assembles the long-running server: configuration, logger,
// metrics, websocket hub, folder watcher and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"spooker/internal/config"
	"spooker/internal/files"
	"spooker/internal/infrastructure"
	"spooker/internal/metrics"
	"spooker/internal/services"
	transport "spooker/internal/transport/http"
	"spooker/internal/watcher"
	ws "spooker/internal/websocket"
	"spooker/pkg/contracts"
)

// Application is the dependency container of the server process.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *ws.Hub
	Service *services.ProcessService
	Manager *files.Manager
	Server  *http.Server
	Watcher *watcher.Watcher
}

// New builds the application from the loaded configuration.
func New(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", contracts.Version),
		slog.Int("port", cfg.Server.Port))

	metrics.Init()

	manager := files.NewManager(cfg.Paths.InputDir, cfg.Paths.OutputDir, logger)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}

	hub := ws.NewHub(logger)
	service := services.NewProcessService(cfg, logger)
	handler := transport.NewHandler(cfg, service, manager, hub, logger)

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Hub:     hub,
		Service: service,
		Manager: manager,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      transport.NewRouter(handler, hub, cfg, logger),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}

	if cfg.Watcher.Enabled {
		app.Watcher = watcher.New(cfg.Paths.InputDir, cfg.Watcher.SettleDelay,
			app.processWatchedFile, logger)
	}

	return app, nil
}

// processWatchedFile runs the pipeline for a settled file and pushes the
// outcome to connected clients.
func (a *Application) processWatchedFile(ctx context.Context, path string) error {
	a.Hub.Broadcast(ws.TypeProcessing, map[string]string{"file": path})

	summary, err := a.Service.ProcessFile(ctx, path)
	if err != nil {
		a.Hub.Broadcast(ws.TypeError, map[string]string{"file": path, "error": err.Error()})
		return err
	}

	a.Hub.Broadcast(ws.TypeComplete, summary)
	return nil
}

// Run starts the hub, the watcher and the HTTP server, blocking until
// the context is cancelled, then shuts everything down gracefully.
func (a *Application) Run(ctx context.Context) error {
	go a.Hub.Run()
	defer a.Hub.Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if a.Watcher != nil {
		g.Go(func() error {
			err := a.Watcher.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down http server")
		return a.Server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
