package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "sprinkler_client/docs"
	"sprinkler_client/internal/config"
	"sprinkler_client/internal/handlers"
	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/remote"
	"sprinkler_client/internal/repository"
	"sprinkler_client/internal/repository/db"
	"sprinkler_client/internal/server"
	"sprinkler_client/internal/service"
)

const (
	shutdownTimeout  = 10 * time.Second
	writeTimeoutPad  = 5 * time.Second
	bootstrapTimeout = 15 * time.Second
)

// @title                      Sprinkler Client API
// @version                    1.0
// @description                Operator API for a remote irrigation controller.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	// load configs/config.yml + SPRINKLER_* env
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.GetWithFormat(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	client := remote.NewClient(remote.Config{
		BaseURL:    cfg.Remote.BaseURL,
		Timeout:    cfg.Remote.Timeout,
		StatusPath: cfg.Remote.StatusPath,
	}, log.Named("remote"))
	commander := newCommander(cfg, client, log)

	repos := repository.NewRepository(conn, log)
	services := service.NewService(repos, client, commander, service.Options{
		ReadinessTimeout: cfg.Override.ReadinessTimeout,
		CommandTimeout:   cfg.Override.CommandTimeout,
		SigningKey:       cfg.Auth.SigningKey,
		TokenTTL:         cfg.Auth.TokenTTL,
	}, log)
	apiHandler := handlers.NewHandler(services, log.Named("http"))

	// context for background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bootstrap(ctx, services.Synchronizer, log)

	scheduler := service.NewRefreshScheduler(services.Synchronizer, services.Schedule, log.Named("scheduler"))
	if err := scheduler.Start(ctx, cfg.Sync.Interval, cfg.Schedule.Interval); err != nil {
		log.Fatalw("failed to start scheduler", "err", err)
	}

	// start HTTP server
	srv := &server.Server{
		WriteTimeout: cfg.Override.ReadinessTimeout + cfg.Override.CommandTimeout + writeTimeoutPad,
	}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, scheduler, services, log)
}

// newCommander picks the dry-run commander when configured; reads still go
// to the controller.
func newCommander(cfg *config.Config, client *remote.Client, log *logger.Logger) service.Commander {
	if cfg.Remote.DryRun {
		log.Infow("dry run enabled; override commands are logged, not sent")
		return remote.NewDryRunCommander(log.Named("dry_run"))
	}
	return client
}

// bootstrap loads the zone list once. A failure is not fatal: the scheduled
// refresh retries while the registry is empty.
func bootstrap(ctx context.Context, sync service.Synchronizer, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()

	if err := sync.Bootstrap(ctx); err != nil {
		log.Warnw("initial zone list unavailable; will retry", "err", err)
		return
	}
	if err := sync.Refresh(ctx); err != nil {
		log.Warnw("initial status sync failed", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, scheduler *service.RefreshScheduler, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background jobs
	cancel()
	scheduler.Stop()
	services.Close()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
