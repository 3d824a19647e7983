package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/campus-assoc/backend/internal/audit"
	"github.com/campus-assoc/backend/internal/config"
	"github.com/campus-assoc/backend/internal/db"
	"github.com/campus-assoc/backend/internal/events"
	apphttp "github.com/campus-assoc/backend/internal/http"
	"github.com/campus-assoc/backend/internal/http/handlers"
	"github.com/campus-assoc/backend/internal/repositories"
	"github.com/campus-assoc/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Units of work
	units := services.NewUnits(repositories.NewWriter(pool, log), log,
		services.WithAuditPublisher(publisher, cfg.AuditStream),
		services.WithAuditMetrics(audit.NewMetrics(reg)),
		services.WithLargeBinaryBytes(cfg.AuditLargeBinaryBytes),
	)

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	eventRepo := repositories.NewEventRepo(pool)
	financeRepo := repositories.NewFinanceRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	memberService := services.NewMemberService(units, userRepo, roleRepo, cfg, log)
	roleService := services.NewRoleService(units, userRepo, roleRepo, log)
	eventService := services.NewEventService(units, eventRepo, userRepo, log)
	financeService := services.NewFinanceService(units, financeRepo, log)
	auditService := services.NewAuditService(auditRepo)

	if err := roleService.Bootstrap(ctx, cfg.BootstrapAdminUserName, cfg.BootstrapAdminPassword); err != nil {
		log.Fatal("failed to bootstrap roles", zap.Error(err))
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(memberService, log)
	memberHandler := handlers.NewMemberHandler(memberService, log)
	roleHandler := handlers.NewRoleHandler(roleService, log)
	eventHandler := handlers.NewEventHandler(eventService, log)
	financeHandler := handlers.NewFinanceHandler(financeService, log)
	auditHandler := handlers.NewAuditHandler(auditService, log)
	wsHub := handlers.NewWSHub(cfg.AuditStream, subscriber, log)
	wsHub.RegisterMetrics(reg)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: handlers.MaxUploadBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, reg,
		authHandler, memberHandler, roleHandler, eventHandler, financeHandler, auditHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
