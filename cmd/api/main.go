package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
	httpx "github.com/geocoder89/todohub/internal/http"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/notifications"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/redisclient"
	"github.com/geocoder89/todohub/internal/sharing"
	"github.com/geocoder89/todohub/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, cfg, log)
	stop()

	if err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Every resource it
// opens is released before it returns.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := handlers.RegisterValidators(); err != nil {
		return err
	}

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("tracer init: %w", err)
	}
	defer func() {
		tctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdownTracer(tctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	// database unreachable after the bounded retries is fatal
	st, err := store.Open(ctx, cfg, prom, log)
	if err != nil {
		return fmt.Errorf("store init (%s): %w", cfg.DBDriver, err)
	}
	defer st.Close()

	revocations, limiter, closeRedis := redisBacked(ctx, cfg, log)
	defer closeRedis()

	tokens := auth.NewManager(cfg.SigningSecret(), cfg.JWTTTL, revocations)
	accountSvc := accounts.NewService(st.Users, log)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{
			Timeout:          2 * time.Second,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		},
	)

	registry := sharing.NewRegistry(st.Lists, st.Grants, st.Users,
		sharing.WithNotifier(notifier),
		sharing.WithObserver(prom),
		sharing.WithLogger(log),
	)

	if err := bootstrapUser(ctx, cfg, accountSvc, log); err != nil {
		return fmt.Errorf("bootstrap user: %w", err)
	}

	router := httpx.NewRouter(log, httpx.Deps{
		Accounts:    accountSvc,
		Tokens:      tokens,
		Lists:       st.Lists,
		Items:       st.Items,
		Sharing:     registry,
		Store:       st,
		Prom:        prom,
		Metrics:     reg,
		AuthLimiter: limiter,
	}, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "driver", st.Driver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// redisBacked returns redis implementations of the revocation list and auth
// limiter when REDIS_ADDR is set and reachable, in-process ones otherwise.
func redisBacked(ctx context.Context, cfg config.Config, log *slog.Logger) (auth.Revocations, middlewares.Limiter, func()) {
	memory := func() (auth.Revocations, middlewares.Limiter, func()) {
		return auth.NewMemoryRevocations(), middlewares.NewRateLimiter(cfg.AuthRateLimit, time.Minute), func() {}
	}

	if cfg.RedisAddr == "" {
		return memory()
	}

	rc, err := redisclient.Connect(ctx, redisclient.Config{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: cfg.RedisPrefix,
	}, 2*time.Second)
	if err != nil {
		log.Warn("redis unreachable, using in-process revocations and rate limits", "err", err)
		return memory()
	}

	log.Info("redis connected", "addr", cfg.RedisAddr)

	return auth.NewRedisRevocations(rc.Raw(), rc.Namespace("revoked")),
		middlewares.NewRedisRateLimiter(rc.Raw(), rc.Namespace("ratelimit"), cfg.AuthRateLimit, time.Minute),
		func() { _ = rc.Close() }
}

func bootstrapUser(ctx context.Context, cfg config.Config, svc *accounts.Service, log *slog.Logger) error {
	if cfg.BootstrapUsername == "" {
		return nil
	}

	created, err := svc.EnsureUser(ctx, user.RegisterRequest{
		Username: cfg.BootstrapUsername,
		Email:    cfg.BootstrapEmail,
		Password: cfg.BootstrapPassword,
	})
	if err != nil {
		return err
	}

	if created {
		log.Info("bootstrap user created", "username", cfg.BootstrapUsername)
	}
	return nil
}
