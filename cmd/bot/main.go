package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lil-gargs/backend/internal/bot"
	"github.com/lil-gargs/backend/internal/config"
	"github.com/lil-gargs/backend/internal/db"
	"github.com/lil-gargs/backend/internal/events"
	"github.com/lil-gargs/backend/internal/nft"
	"github.com/lil-gargs/backend/internal/registry"
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
	if cfg.DiscordBotToken == "" || cfg.DiscordAppID == "" {
		log.Fatal("DISCORD_BOT_TOKEN and DISCORD_APP_ID are required for the bot")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database (миграции гоняет только API, бот лишь читает/пишет данные)
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

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

	reg := registry.NewInteractionRegistry(cfg.InteractionTTL)

	discordBot, err := bot.New(cfg, verificationService, reg, log)
	if err != nil {
		log.Fatal("failed to create discord bot", zap.Error(err))
	}

	if err := discordBot.Start(ctx); err != nil {
		log.Fatal("failed to start discord bot", zap.Error(err))
	}
	defer discordBot.Close()

	if err := discordBot.StartNotifier(ctx, subscriber); err != nil {
		log.Fatal("failed to subscribe to verification events", zap.Error(err))
	}

	log.Info("bot is running, press Ctrl+C to exit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down...")
	cancel()
}
