package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/campus-assoc/backend/internal/config"
	"github.com/campus-assoc/backend/internal/db"
	"github.com/campus-assoc/backend/internal/events"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const consumerGroup = "audit-alerts"

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	handled := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "assoc_worker_audit_events_total",
		Help: "Critical audit events consumed from the stream, by type",
	}, []string{"type"})

	hostname, _ := os.Hostname()
	sub := events.NewRedisGroupSubscriber(rdb, consumerGroup, hostname, log)

	// Metrics endpoint
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	go func() {
		addr := fmt.Sprintf(":%s", cfg.WorkerPort)
		if err := app.Listen(addr); err != nil {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down worker")
		cancel()
		_ = app.Shutdown()
	}()

	log.Info("worker started", zap.String("stream", cfg.AuditStream), zap.String("group", consumerGroup))
	err = sub.Subscribe(ctx, cfg.AuditStream, func(ev events.Event) {
		handled.WithLabelValues(ev.Type).Inc()
		logCritical(log, ev)
	})
	if err != nil {
		log.Fatal("audit stream consumer failed", zap.Error(err))
	}
	<-ctx.Done()
}

func logCritical(log *zap.Logger, ev events.Event) {
	fields := []zap.Field{zap.String("type", ev.Type)}
	for _, key := range []string{"audit_id", "entity_type", "entity_id", "action", "display_name", "actor_name"} {
		if v, ok := ev.Payload[key]; ok {
			fields = append(fields, zap.Any(key, v))
		}
	}
	log.Warn("critical change recorded", fields...)
}
