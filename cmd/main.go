package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/zodiachr/internal/adapters/auth"
	"github.com/okian/zodiachr/internal/adapters/http/api"
	"github.com/okian/zodiachr/internal/adapters/http/swagger"
	"github.com/okian/zodiachr/internal/adapters/repository"
	app "github.com/okian/zodiachr/internal/app"
	"github.com/okian/zodiachr/internal/config"
	"github.com/okian/zodiachr/internal/scheduler"
	"github.com/okian/zodiachr/pkg/logger"
	"github.com/okian/zodiachr/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> dotenv -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	svc, err := buildService(ctx, cfg, loc, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	authenticator, err := buildAuthenticator(cfg)
	if err != nil {
		return err
	}
	sessions := auth.NewSessionStore(authenticator, cfg.Auth.SessionTTL)

	if cfg.Scheduler.Enabled {
		sched, err := startScheduler(cfg, loc, svc, log)
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			_ = sched.Stop(stopCtx)
		}()
	}

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildMux(ctx, cfg, svc, sessions),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.Store.Driver),
			logger.String("auth", cfg.Auth.Mode),
			logger.Bool("auth_required", cfg.Auth.Required))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openStore opens the member store selected by store.driver.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	opts := []repository.Option{repository.WithLogger(log.Named("repository"))}
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := repository.OpenSQLite(ctx, cfg.Store.Path, opts...)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case "memory", "":
		return repository.NewMemoryStore(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %w: store.driver %q", config.ErrInvalidConfig, config.ErrUnknownMode, cfg.Store.Driver)
	}
}

func buildService(ctx context.Context, cfg *config.Config, loc *time.Location, log logger.Logger) (*app.Service, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithStore(store),
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.Import.WorkerCount),
		app.WithQueueSize(cfg.Import.QueueSize),
		app.WithIdempotencyKeys(cfg.IdempotencyKeys),
		app.WithMaxImportRows(cfg.Import.MaxRows),
		app.WithUpcomingDays(cfg.UpcomingDays),
		app.WithLocation(loc),
	), nil
}

// buildAuthenticator picks the credential check for auth.mode.
func buildAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	switch cfg.Auth.Mode {
	case "remote":
		return auth.NewRemoteAuthenticator(cfg.Auth.BaseURL, cfg.Auth.Timeout), nil
	case "mock", "":
		a, err := auth.NewMockAuthenticator(auth.User{
			Username:    cfg.Auth.Username,
			FullName:    cfg.Auth.FullName,
			Email:       cfg.Auth.Email,
			DateOfBirth: cfg.Auth.DateOfBirth,
		}, cfg.Auth.Password)
		if err != nil {
			return nil, fmt.Errorf("mock authenticator: %w", err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%w: %w: auth.mode %q", config.ErrInvalidConfig, config.ErrUnknownMode, cfg.Auth.Mode)
	}
}

func buildMux(ctx context.Context, cfg *config.Config, svc *app.Service, sessions api.Sessions) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, sessions,
		api.WithAuthRequired(cfg.Auth.Required),
		api.WithLoginRate(cfg.Auth.LoginRate, cfg.Auth.LoginBurst),
	).Register(ctx, mux)
	return mux
}

func startScheduler(cfg *config.Config, loc *time.Location, svc *app.Service, log logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(scheduler.WithLocation(loc), scheduler.WithLogger(log.Named("scheduler")))
	digest := scheduler.NewBirthdayDigest(svc, log.Named("birthday-digest"))
	if err := sched.AddJob(cfg.Scheduler.BirthdayCron, digest); err != nil {
		return nil, fmt.Errorf("schedule birthday digest: %w", err)
	}
	sched.Start()
	return sched, nil
}

// startServiceMetricsUpdater refreshes gauges that only change on reads.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.Stats(ctx)
	if active, ok := stats["activeMembers"].(int); ok {
		metrics.UpdateMembersActive(active)
	}
	if workers, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workers)
	}
}
