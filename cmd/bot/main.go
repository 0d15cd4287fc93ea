package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zenbeauty/salon-assistant/internal/agent"
	"github.com/zenbeauty/salon-assistant/internal/app"
	"github.com/zenbeauty/salon-assistant/internal/calendar"
	"github.com/zenbeauty/salon-assistant/internal/catalog"
	"github.com/zenbeauty/salon-assistant/internal/config"
	"github.com/zenbeauty/salon-assistant/internal/controller"
	"github.com/zenbeauty/salon-assistant/internal/faq"
	"github.com/zenbeauty/salon-assistant/internal/repository"
	"github.com/zenbeauty/salon-assistant/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting salon assistant",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Timezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatal("Invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Invalid Redis URL", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}

	var mirror calendar.Mirror = calendar.Disabled{}
	if cfg.MirrorEnabled() {
		mirror, err = calendar.NewGoogleMirror(ctx, cfg.GoogleServiceAccountJSON, cfg.CalendarID, cfg.Timezone, logger)
		if err != nil {
			logger.Fatal("Failed to create calendar mirror", zap.Error(err))
		}
		logger.Info("Calendar mirror enabled", zap.String("calendar_id", cfg.CalendarID))
	} else {
		logger.Info("Calendar mirror disabled, bookings stay local")
	}

	slotRepo := repository.NewSlotRepository(pool, logger)

	windowService := service.NewWindowService(slotRepo, cat, loc, logger)
	availabilityService := service.NewAvailabilityService(slotRepo, cat, loc, logger)
	bookingService := service.NewBookingService(slotRepo, cat, mirror, loc, logger)

	geminiClient, err := agent.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Fatal("Failed to create Gemini client", zap.Error(err))
	}
	defer geminiClient.Close()

	entries, err := faq.LoadEntries(cfg.FAQPath)
	if err != nil {
		logger.Fatal("Failed to load FAQ corpus", zap.Error(err))
	}

	embedder := faq.NewGeminiEmbedder(geminiClient, cfg.GeminiEmbeddingModel)
	faqIndex, err := faq.NewIndex(ctx, entries, embedder, rdb, logger)
	if err != nil {
		logger.Fatal("Failed to build FAQ index", zap.Error(err))
	}

	tools := agent.NewTools(availabilityService, bookingService, cat, faqIndex, logger)
	history := agent.NewRedisHistory(rdb, cfg.HistoryTTL, cfg.HistoryLimit)
	assistant := agent.New(geminiClient, cfg.GeminiModel, tools, history, cat, loc, logger)

	botInstance, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	botController := controller.NewBotController(botInstance, assistant, cat, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Fatal("Failed to register handlers", zap.Error(err))
	}

	scheduler := app.NewScheduler(windowService, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if err := botController.Start(ctx); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}

	logger.Info("Salon assistant stopped")
}
