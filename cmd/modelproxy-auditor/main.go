// modelproxy-auditor — записывает события model.changed в журнал изменений.
//
// Читает очередь changes.audit. Повторные доставки идемпотентны
// (событие с тем же ID пропускается), некорректные события уходят в DLQ.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ebstat/sdkmendixtest/internal/audit"
	"github.com/ebstat/sdkmendixtest/internal/mq"
	"github.com/ebstat/sdkmendixtest/internal/repo"
	"github.com/ebstat/sdkmendixtest/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger("modelproxy-auditor")
	logger.Info("starting modelproxy-auditor")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		amqpURL = mq.DefaultURL()
	}
	conn, err := mq.NewConnection(amqpURL, "modelproxy-auditor", logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := mq.SetupTopology(ctx, conn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	auditor := audit.New(repo.NewChangeRepo(pool), logger)
	consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
		Queue:    mq.QueueChangesAudit,
		Handler:  auditor.Handle,
		Prefetch: 10,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !conn.IsConnected() {
			http.Error(w, "amqp disconnected", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := ":8082"
	if v := os.Getenv("AUDITOR_PORT"); v != "" {
		addr = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("modelproxy-auditor stopped")
}
