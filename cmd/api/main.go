package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juanctr3/b2b/internal/dedup"
	"github.com/juanctr3/b2b/internal/email"
	"github.com/juanctr3/b2b/internal/events"
	"github.com/juanctr3/b2b/internal/gateway"
	apphttp "github.com/juanctr3/b2b/internal/http"
	"github.com/juanctr3/b2b/internal/http/router"
	"github.com/juanctr3/b2b/internal/leads"
	"github.com/juanctr3/b2b/internal/notification"
	"github.com/juanctr3/b2b/internal/providers"
	"github.com/juanctr3/b2b/internal/webhook"
	"github.com/juanctr3/b2b/platform/config"
	"github.com/juanctr3/b2b/platform/db"
	"github.com/juanctr3/b2b/platform/logger"
	"github.com/juanctr3/b2b/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	guard, err := dedup.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize idempotency guard", "error", err)
		panic("failed to initialize idempotency guard: " + err.Error())
	}

	sender := gateway.NewClient(cfg, log)
	emailSender := email.NewSender(cfg)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	providersModule := providers.NewModule(pool, sender, eventBus, cfg, log)
	leadsModule := leads.NewModule(pool, providersModule.Repository(), sender, emailSender, guard, val, eventBus, log)
	webhookModule := webhook.NewModule(guard, providersModule.Service(), leadsModule.Service(), log)

	notificationModule := notification.NewModule(pool, leadsModule.Repository(), providersModule.Repository(), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			webhookModule,
			leadsModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
