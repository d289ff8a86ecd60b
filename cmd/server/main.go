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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/fulfillment/internal/config"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/notify"
	"github.com/kiwari-pos/fulfillment/internal/router"
	"github.com/kiwari-pos/fulfillment/internal/service"
	"github.com/kiwari-pos/fulfillment/internal/ws"
)

func main() {
	hostname, _ := os.Hostname()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", "fulfillment", "hostname", hostname)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = pool.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	svc := service.NewFulfillmentService(pool, func(db database.DBTX) service.Store {
		return database.New(db)
	})

	hub := ws.NewHub()
	go hub.Run(ctx)

	sinks, closeSinks, err := buildSinks(ctx, cfg, logger, hub)
	if err != nil {
		return err
	}
	defer closeSinks()

	notifier := notify.New(logger, notify.Options{
		QueueSize:  cfg.NotifyQueueSize,
		Workers:    cfg.NotifyWorkers,
		MaxRetries: cfg.NotifyMaxRetries,
	}, sinks...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, logger, pool, svc, notifier, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "sinks", len(sinks))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	// Drain queued events before the sinks close.
	if err := notifier.Close(shutdownCtx); err != nil {
		logger.Error("notifier shutdown", "error", err)
	}
	return nil
}

// buildSinks always includes the websocket hub. Redis, AMQP and Kafka are
// added when their connection settings are present.
func buildSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger, hub *ws.Hub) ([]notify.Sink, func(), error) {
	sinks := []notify.Sink{notify.NewHubSink(hub)}
	var closers []func() error

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("close sink", "error", err)
			}
		}
	}

	if cfg.RedisURL != "" {
		client, err := notify.ConnectRedis(cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		sinks = append(sinks, notify.NewRedisSink(client))
		closers = append(closers, client.Close)
		logger.Info("redis sink enabled")
	}

	if cfg.AMQPURL != "" {
		sink, err := notify.DialAMQP(ctx, cfg.AMQPURL, logger)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("dial amqp: %w", err)
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
		logger.Info("amqp sink enabled", "exchange", notify.Exchange)
	}

	if len(notify.ParseBrokers(cfg.KafkaBrokers)) > 0 {
		sink := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}

	return sinks, closeAll, nil
}
