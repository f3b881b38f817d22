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

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/community-bank/internal/artifact"
	"github.com/josh-kwaku/community-bank/internal/config"
	"github.com/josh-kwaku/community-bank/internal/handler"
	"github.com/josh-kwaku/community-bank/internal/logging"
	"github.com/josh-kwaku/community-bank/internal/metrics"
	"github.com/josh-kwaku/community-bank/internal/middleware"
	"github.com/josh-kwaku/community-bank/internal/notify"
	"github.com/josh-kwaku/community-bank/internal/repository"
	"github.com/josh-kwaku/community-bank/internal/service"
	"github.com/josh-kwaku/community-bank/internal/service/application"
	"github.com/josh-kwaku/community-bank/internal/service/ledger"
	"github.com/josh-kwaku/community-bank/internal/service/registration"
	"github.com/josh-kwaku/community-bank/internal/session"
	"github.com/josh-kwaku/community-bank/internal/telemetry"
)

const (
	serviceName        = "community-bank-api"
	version            = "1.0.0"
	shutdownTimeout    = 30 * time.Second
	idempotencySweep   = time.Hour
	sessionSweep       = time.Minute
	rateLimiterSweep   = 10 * time.Minute
	breakerFailures    = 5
	breakerOpenTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init(serviceName, cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		return err
	}

	fee, err := cfg.TransferFeeMinor()
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	accounts := repository.NewAccountRepository(db)
	artifacts := repository.NewArtifactRepository(db)
	notifications := repository.NewNotificationRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	outbox := service.NewOutbox(notifications, m)
	accountStore := service.NewAccountStore(accounts)

	engine := ledger.NewEngine(db, accounts, repository.NewTransactionRepository(db), outbox, ledger.Config{
		TransferFee:  fee,
		TreasuryID:   cfg.TreasuryAccountID,
		MaxRetries:   cfg.LedgerMaxRetries,
		BankName:     cfg.BankName,
		CurrencyCode: cfg.CurrencyCode,
	}, m)

	applications := application.NewWorkflow(
		db,
		repository.NewApplicationRepository(db),
		repository.NewApplicationEventRepository(db),
		artifacts,
		accounts,
		artifact.NewPNGRenderer(cfg.BankName),
		outbox,
		application.Config{
			BankName:          cfg.BankName,
			CurrencyCode:      cfg.CurrencyCode,
			ReviewQueueID:     cfg.ReviewQueueID,
			CardValidityYears: cfg.CardValidityYears,
		},
		m,
	)

	sessions, locker, memoryStore, redisClient, err := newSessionBackend(cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	registrations := registration.NewWorkflow(sessions, locker, applications, cfg.BankName, m)

	channel, closeChannel, err := newChannel(cfg, logger)
	if err != nil {
		return err
	}
	defer closeChannel()

	processor := service.NewNotificationProcessor(
		notifications,
		artifacts,
		notify.NewBreakerChannel(channel, notify.BreakerConfig{
			ConsecutiveFailures: breakerFailures,
			OpenTimeout:         breakerOpenTimeout,
		}, logger),
		m,
		logger,
		cfg.NotifyPollInterval,
		cfg.NotifyBatchSize,
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	checks := map[string]handler.Check{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := newRouter(routerDeps{
		cfg:          cfg,
		metrics:      m,
		metricsReg:   reg,
		limiter:      limiter,
		idempotency:  idempotency,
		health:       handler.NewHealthHandler(db, version, checks),
		accounts:     handler.NewAccountHandler(accountStore),
		ledger:       handler.NewLedgerHandler(engine, cfg.CurrencyCode),
		admin:        handler.NewAdminHandler(engine, cfg.CurrencyCode),
		registration: handler.NewRegistrationHandler(registrations),
		applications: handler.NewApplicationHandler(applications),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		processor.Start(gctx)
		return nil
	})
	g.Go(func() error {
		limiter.StartEviction(gctx, rateLimiterSweep)
		return nil
	})
	g.Go(func() error {
		cleanIdempotencyCache(gctx, idempotency, logger)
		return nil
	})
	if memoryStore != nil {
		g.Go(func() error {
			memoryStore.Start(gctx, sessionSweep, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newSessionBackend keeps registration state in Redis when REDIS_URL is set
// and in process memory otherwise. The memory store is returned separately so
// its janitor can be started.
func newSessionBackend(cfg *config.Config) (session.Store, session.Locker, *session.MemoryStore, *redis.Client, error) {
	if cfg.RedisURL == "" {
		store := session.NewMemoryStore(cfg.RegistrationSessionTTL)
		return store, session.NewLocalLocker(), store, nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("newSessionBackend: REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	return session.NewRedisStore(client, cfg.RegistrationSessionTTL),
		session.NewRedisLocker(client, session.DefaultRedisLockConfig()),
		nil,
		client,
		nil
}

func newChannel(cfg *config.Config, logger *slog.Logger) (notify.Channel, func(), error) {
	switch cfg.NotifyChannel {
	case "log":
		return notify.NewLogChannel(logger), func() {}, nil
	case "webhook":
		return notify.NewWebhookChannel(cfg.NotifyWebhookURL), func() {}, nil
	case "amqp":
		ch := notify.NewAMQPChannel(cfg.AMQPURL, cfg.AMQPQueue)
		return ch, func() {
			if err := ch.Close(); err != nil {
				logger.Warn("amqp channel close failed", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("newChannel: unknown NOTIFY_CHANNEL %q", cfg.NotifyChannel)
	}
}

type idempotencyCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

func cleanIdempotencyCache(ctx context.Context, repo idempotencyCleaner, logger *slog.Logger) {
	ticker := time.NewTicker(idempotencySweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanExpired(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired idempotency entries removed", "count", n)
			}
		}
	}
}
