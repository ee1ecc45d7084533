package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking-service/internal/config"
	"booking-service/internal/http-server/router"
	"booking-service/internal/lock"
	"booking-service/internal/metrics"
	"booking-service/internal/notify"
	svc "booking-service/internal/service"
	"booking-service/internal/storage/memory"
	"booking-service/internal/storage/postgres"
	slogpretty "booking-service/pkg/handlers/slogPretty"
	"booking-service/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type store interface {
	svc.Store
	notify.NotificationStore
}

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting booking service", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	scheduleOpts, err := cfg.Schedule.SchedulingOptions()
	if err != nil {
		log.Error("Invalid schedule config", sl.Err(err))
		os.Exit(1)
	}

	storage, closeStorage, err := setupStorage(log, cfg)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	var locker lock.Locker
	var closers []io.Closer

	if cfg.RedisAddr != "" {
		redisLock, err := lock.NewRedisLock(cfg.RedisAddr)
		if err != nil {
			log.Error("Failed to init redis lock", sl.Err(err))
			os.Exit(1)
		}
		locker = redisLock
		closers = append(closers, redisLock)
	} else {
		log.Warn("redis_addr is empty, bookings are serialized in-process only")
		locker = lock.NewLocalLock()
	}

	var notifier notify.Notifier
	switch cfg.Notifications.Driver {
	case config.NotifyKafka:
		kafkaNotifier, err := notify.NewKafkaNotifier(cfg.Notifications.Brokers, cfg.Notifications.Topic)
		if err != nil {
			log.Error("Failed to init kafka notifier", sl.Err(err))
			os.Exit(1)
		}
		notifier = kafkaNotifier
		closers = append(closers, kafkaNotifier)
	case config.NotifyNone:
		notifier = notify.Nop{}
	default:
		notifier = notify.NewStoreNotifier(storage)
	}

	metrics.Register()

	service := svc.NewService(log, storage, locker, notifier, svc.Options{
		Schedule: scheduleOpts,
		LockTTL:  cfg.Booking.LockTTL,
		LockWait: cfg.Booking.LockWait,
	})

	handler := router.New(log, service, router.Options{AllowedOrigins: cfg.HTTPServer.AllowedOrigins})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Error("Failed to close resource", sl.Err(err))
		}
	}

	if err := closeStorage(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	log.Info("Shutdown finished, server stopped")
}

func setupStorage(log *slog.Logger, cfg *config.Config) (store, func() error, error) {
	if cfg.StoragePath == config.StorageMemory {
		mem := memory.New()
		if cfg.FixturePath != "" {
			if err := mem.LoadFixture(cfg.FixturePath); err != nil {
				return nil, nil, err
			}
			log.Info("Loaded fixture", slog.String("path", cfg.FixturePath))
		}
		return mem, func() error { return nil }, nil
	}

	pg, err := postgres.New(cfg.StoragePath)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}

	return pg, pg.Close, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
