// modelproxy-api — HTTP API над моделями приложений.
//
// Каждый запрос открывает working copy на платформе, читает или меняет
// модель и удаляет working copy. Postgres (DB_URL) и RabbitMQ (AMQP_URL)
// опциональны: без них не пишется аудит сессий и не публикуются события.
//
// Платформа задаётся через PLATFORM_URL и PLATFORM_TOKEN. Для локальной
// разработки вместо них можно указать JSON-фикстуру в PLATFORM_FIXTURE.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ebstat/sdkmendixtest/internal/api"
	"github.com/ebstat/sdkmendixtest/internal/locator"
	"github.com/ebstat/sdkmendixtest/internal/mq"
	"github.com/ebstat/sdkmendixtest/internal/platform"
	"github.com/ebstat/sdkmendixtest/internal/repo"
	"github.com/ebstat/sdkmendixtest/internal/service"
	"github.com/ebstat/sdkmendixtest/internal/telemetry"
)

var startTime = time.Now()

func main() {
	logger := telemetry.SetupLogger("modelproxy-api")
	logger.Info("starting modelproxy-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	plat, err := newPlatform()
	if err != nil {
		logger.Error("failed to configure platform", "error", err)
		os.Exit(1)
	}

	cfg := api.Config{Logger: logger}
	svcCfg := service.Config{
		Platform: plat,
		Locator: locator.New(locator.Config{
			Logger:      logger,
			Resolutions: telemetry.LocatorResolutions,
		}),
		DefaultBranch: os.Getenv("DEFAULT_BRANCH"),
		Logger:        logger,
	}

	// Postgres: аудит сессий и журнал изменений
	if os.Getenv("DB_URL") != "" {
		pool, err := repo.NewPool(ctx)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("connected to database")

		sessions := repo.NewSessionRepo(pool)
		svcCfg.Sessions = sessions
		cfg.Sessions = sessions
		cfg.Changes = repo.NewChangeRepo(pool)
	} else {
		logger.Warn("DB_URL not set, session audit disabled")
	}

	// RabbitMQ: события model.changed
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		conn, err := mq.NewConnection(amqpURL, "modelproxy-api", logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, change events disabled", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			svcCfg.Events = mq.NewPublisher(conn, logger)
		}
	}

	cfg.Models = service.New(svcCfg)
	handler := api.NewHandler(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Truncate(time.Second))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Даём текущим запросам удалить свои working copies.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// newPlatform выбирает клиент платформы по окружению.
func newPlatform() (platform.Platform, error) {
	if path := os.Getenv("PLATFORM_FIXTURE"); path != "" {
		mem, err := platform.LoadFixture(path)
		if err != nil {
			return nil, err
		}
		return mem, nil
	}

	baseURL := os.Getenv("PLATFORM_URL")
	if baseURL == "" {
		return nil, errors.New("PLATFORM_URL or PLATFORM_FIXTURE must be set")
	}

	timeout, err := durationEnv("PLATFORM_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	return platform.NewHTTPClient(platform.HTTPConfig{
		BaseURL: baseURL,
		Token:   os.Getenv("PLATFORM_TOKEN"),
		Timeout: timeout,
	}), nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
