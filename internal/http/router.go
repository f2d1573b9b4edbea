package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lil-gargs/backend/internal/config"
	"github.com/lil-gargs/backend/internal/http/handlers"
	"github.com/lil-gargs/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	sessionHandler *handlers.SessionHandler,
	ruleHandler *handlers.RuleHandler,
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

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Verification sessions (public, consumed by the web portal)
	verification := api.Group("/verification", middleware.RateLimitMiddleware(rdb, 60, time.Minute))
	verification.Post("/session", sessionHandler.CreateSession)
	verification.Get("/session/:token", sessionHandler.GetSession)
	verification.Post("/session/verify", sessionHandler.VerifySession)

	// Guild rule management (admin)
	admin := api.Group("/admin", middleware.AdminAuthMiddleware(cfg, log))
	admin.Get("/guilds/:guildId/rules", ruleHandler.ListRules)
	admin.Post("/guilds/:guildId/rules", ruleHandler.CreateRule)
	admin.Delete("/rules/:id", ruleHandler.DeleteRule)

	// WebSocket: live session status for the portal
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
