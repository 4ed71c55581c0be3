// modelproxy-janitor — удаляет working copies, которые не закрыл API.
//
// По расписанию JANITOR_CRON находит OPEN сессии старше WORKING_COPY_TTL,
// удаляет их working copies на платформе и помечает сессии EXPIRED.
// Можно запускать несколько реплик: тик выполняет только держатель
// pg_advisory_lock.
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

	"github.com/ebstat/sdkmendixtest/internal/janitor"
	"github.com/ebstat/sdkmendixtest/internal/platform"
	"github.com/ebstat/sdkmendixtest/internal/repo"
	"github.com/ebstat/sdkmendixtest/internal/telemetry"
)

// janitorLockKey — ключ pg_advisory_lock для выбора лидера.
const janitorLockKey int64 = 0x6d6f64656c70 // "modelp"

func main() {
	logger := telemetry.SetupLogger("modelproxy-janitor")
	logger.Info("starting modelproxy-janitor")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	schedule := os.Getenv("JANITOR_CRON")
	if schedule == "" {
		schedule = "*/5 * * * *"
	}

	var ttl time.Duration
	if v := os.Getenv("WORKING_COPY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Error("invalid WORKING_COPY_TTL", "value", v, "error", err)
			os.Exit(1)
		}
		ttl = d
	}

	baseURL := os.Getenv("PLATFORM_URL")
	if baseURL == "" {
		logger.Error("PLATFORM_URL must be set")
		os.Exit(1)
	}
	plat := platform.NewHTTPClient(platform.HTTPConfig{
		BaseURL: baseURL,
		Token:   os.Getenv("PLATFORM_TOKEN"),
	})

	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	lock := repo.NewAdvisoryLock(pool, janitorLockKey)
	defer func() {
		unlockCtx, unlockCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer unlockCancel()
		if err := lock.Unlock(unlockCtx); err != nil {
			logger.Warn("failed to release leader lock", "error", err)
		}
	}()

	j := janitor.New(janitor.Config{
		Sessions: repo.NewSessionRepo(pool),
		Platform: plat,
		Locker:   lock,
		TTL:      ttl,
		Logger:   logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := ":8081"
	if v := os.Getenv("JANITOR_PORT"); v != "" {
		addr = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	if err := j.Run(ctx, schedule); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("janitor stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("modelproxy-janitor stopped")
}
