package http

import (
	"time"

	"github.com/campus-assoc/backend/internal/config"
	"github.com/campus-assoc/backend/internal/http/handlers"
	"github.com/campus-assoc/backend/internal/middleware"
	"github.com/campus-assoc/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	reg *prometheus.Registry,
	authHandler *handlers.AuthHandler,
	memberHandler *handlers.MemberHandler,
	roleHandler *handlers.RoleHandler,
	eventHandler *handlers.EventHandler,
	financeHandler *handlers.FinanceHandler,
	auditHandler *handlers.AuditHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.MetricsMiddleware(middleware.NewHTTPMetrics(reg)))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Auth (public)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	// Meta (public, no auth required)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/attendance-statuses", metaHandler.GetAttendanceStatuses)
	api.Get("/meta/instruments", metaHandler.GetInstruments)
	api.Get("/meta/roles", metaHandler.GetRoles)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	var (
		viewEvents     = middleware.RequirePermission(rbac.PermViewEvents)
		manageEvents   = middleware.RequirePermission(rbac.PermManageEvents)
		manageSongs    = middleware.RequirePermission(rbac.PermManageSongs)
		takeAttendance = middleware.RequirePermission(rbac.PermTakeAttendance)
		manageMembers  = middleware.RequirePermission(rbac.PermManageMembers)
		manageRoles    = middleware.RequirePermission(rbac.PermManageRoles)
		manageFinance  = middleware.RequirePermission(rbac.PermManageFinance)
		publishReports = middleware.RequirePermission(rbac.PermPublishReports)
		readAudit      = middleware.RequirePermission(rbac.PermReadAudit)
	)

	// Profile
	protected.Get("/me", memberHandler.GetMe)
	protected.Put("/me", memberHandler.UpdateMe)
	protected.Post("/me/picture", memberHandler.UploadPicture)
	protected.Post("/me/password", memberHandler.ChangePassword)

	// Members
	protected.Get("/members", manageMembers, memberHandler.List)
	protected.Post("/members/:id/deactivate", manageMembers, memberHandler.Deactivate)
	protected.Delete("/members/:id", manageMembers, memberHandler.Delete)

	// Roles
	protected.Get("/roles", manageRoles, roleHandler.List)
	protected.Post("/roles", manageRoles, roleHandler.Create)
	protected.Post("/admin/users/:id/roles", manageRoles, roleHandler.Grant)
	protected.Delete("/admin/users/:id/roles/:roleId", manageRoles, roleHandler.Revoke)

	// Events
	protected.Get("/events", viewEvents, eventHandler.ListUpcoming)
	protected.Get("/events/:id", viewEvents, eventHandler.Get)
	protected.Post("/events", manageEvents, eventHandler.Create)
	protected.Put("/events/:id", manageEvents, eventHandler.Update)
	protected.Post("/events/:id/poster", manageEvents, eventHandler.UploadPoster)
	protected.Delete("/events/:id", manageEvents, eventHandler.Delete)

	// Repertoire
	protected.Get("/events/:id/repertoire", viewEvents, eventHandler.Repertoire)
	protected.Post("/events/:id/repertoire", manageEvents, eventHandler.AddToRepertoire)
	protected.Put("/repertoire/:itemId", manageEvents, eventHandler.MoveRepertoireItem)
	protected.Delete("/repertoire/:itemId", manageEvents, eventHandler.RemoveFromRepertoire)

	// Attendance
	protected.Get("/events/:id/attendances", takeAttendance, eventHandler.Attendances)
	protected.Post("/events/:id/attendances", takeAttendance, eventHandler.RecordAttendance)

	// Songs
	protected.Get("/songs", viewEvents, eventHandler.ListSongs)
	protected.Post("/songs", manageSongs, eventHandler.CreateSong)
	protected.Put("/songs/:id", manageSongs, eventHandler.UpdateSong)
	protected.Post("/songs/:id/sheet-music", manageSongs, eventHandler.UploadSheetMusic)
	protected.Delete("/songs/:id", manageSongs, eventHandler.DeleteSong)

	// Finance
	protected.Get("/fiscal-years", manageFinance, financeHandler.ListFiscalYears)
	protected.Post("/fiscal-years", manageFinance, financeHandler.CreateFiscalYear)
	protected.Post("/fiscal-years/:id/close", manageFinance, financeHandler.CloseFiscalYear)
	protected.Get("/fiscal-years/:id/balance", manageFinance, financeHandler.Balance)
	protected.Get("/fiscal-years/:id/transactions", manageFinance, financeHandler.Transactions)
	protected.Post("/transactions", manageFinance, financeHandler.BookTransaction)
	protected.Post("/transactions/:id/receipt", manageFinance, financeHandler.UploadReceipt)
	protected.Delete("/transactions/:id", manageFinance, financeHandler.DeleteTransaction)

	// Reports
	protected.Get("/reports", financeHandler.ListReports(func(c *fiber.Ctx) bool {
		return rbac.AnyHasPermission(middleware.GetRoles(c), rbac.PermPublishReports)
	}))
	protected.Post("/reports", publishReports, financeHandler.CreateReport)
	protected.Post("/reports/:id/publish", publishReports, financeHandler.PublishReport)
	protected.Delete("/reports/:id", publishReports, financeHandler.DeleteReport)

	// Audit
	protected.Get("/audit", readAudit, auditHandler.List)
	protected.Get("/audit/:entityType/:id", readAudit, auditHandler.History)

	// WebSocket
	app.Use("/ws", middleware.AuthMiddleware(cfg, log), handlers.WSUpgradeMiddleware())
	app.Get("/ws/audit", websocket.New(wsHub.HandleWS))
}
