// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/config"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/database"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/handler"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/lock"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/logger"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/metrics"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/queue"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/repository"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "event-enrollment: %v\n", err)
		os.Exit(1)
	}
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := map[string]handler.Pinger{}

	// ── 1. Catalog Store ─────────────────────────────────────────────────
	var (
		store repository.Catalog
		tx    txManager
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		mem := repository.NewMemory()
		store, tx = mem, mem
		log.Warn("using in-memory store; data is lost on exit")
	default:
		pool, err := database.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		log.Info("connected to postgres")

		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, pool, log); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		store, tx = repository.NewStore(pool), database.NewTxManager(pool)
		health["database"] = pool
	}

	// ── 2. Optional Redis lock and RabbitMQ publisher ────────────────────
	var locker lock.Locker = lock.Noop{}
	if cfg.Redis.Enabled {
		client, err := lock.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.Redis)
		health["redis"] = handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
		log.Info("redis event locks enabled", slog.String("addr", cfg.Redis.Addr))
	}

	var publisher queue.Publisher = queue.Noop{}
	if cfg.RabbitMQ.Enabled {
		rabbit, err := queue.NewRabbitPublisher(cfg.RabbitMQ, log)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer rabbit.Close()
		publisher = rabbit
		log.Info("publishing domain events", slog.String("exchange", cfg.RabbitMQ.Exchange))
	}

	// ── 3. Metrics ───────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// ── 4. Wire up layers ────────────────────────────────────────────────
	enrollments := service.NewEnrollmentService(log, store, tx, locker, publisher, m)
	certificates := service.NewCertificateService(log, store, tx, locker, service.NewHasher(cfg.Certificate.HashSalt), publisher, m)

	router := handler.NewRouter(handler.RouterDeps{
		Log:          log,
		Metrics:      m,
		MetricsPage:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Enrollments:  handler.NewEnrollmentHandler(enrollments, log),
		Certificates: handler.NewCertificateHandler(certificates, log),
		Health:       handler.NewHealthHandler(health),
	})

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", slog.String("addr", srv.Addr), slog.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
