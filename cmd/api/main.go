package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/lil-gargs/backend/internal/config"
	"github.com/lil-gargs/backend/internal/db"
	"github.com/lil-gargs/backend/internal/events"
	apphttp "github.com/lil-gargs/backend/internal/http"
	"github.com/lil-gargs/backend/internal/http/handlers"
	"github.com/lil-gargs/backend/internal/nft"
	"github.com/lil-gargs/backend/internal/repositories"
	"github.com/lil-gargs/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if err := cfg.Validate(log); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	sessionRepo := repositories.NewSessionRepo(pool)
	attemptRepo := repositories.NewAttemptRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	ruleRepo := repositories.NewRuleRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	oracle := nft.NewOracle(cfg.HeliusRPCURL, cfg.HeliusAPIKey, cfg.DefaultCollection, cfg.OracleTimeout, log)
	verificationService := services.NewVerificationService(sessionRepo, attemptRepo, userRepo, ruleRepo, oracle, publisher, cfg, log)

	// Handlers
	sessionHandler := handlers.NewSessionHandler(verificationService, log)
	ruleHandler := handlers.NewRuleHandler(ruleRepo, log)
	wsHub := handlers.NewWSHub(subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, sessionHandler, ruleHandler, wsHub)

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
