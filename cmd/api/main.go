package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestion-box-api/internal/config"
	"github.com/noah-isme/suggestion-box-api/internal/database"
	"github.com/noah-isme/suggestion-box-api/internal/handler"
	"github.com/noah-isme/suggestion-box-api/internal/middleware"
	"github.com/noah-isme/suggestion-box-api/internal/repository"
	"github.com/noah-isme/suggestion-box-api/internal/router"
	"github.com/noah-isme/suggestion-box-api/internal/service"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
	"github.com/noah-isme/suggestion-box-api/pkg/ai"
	cloud "github.com/noah-isme/suggestion-box-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if !cfg.IsDevelopment() {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(database.PostgresOptions{
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DatabaseMaxOpenConns,
		MaxIdleConns: cfg.DatabaseMaxIdleConns,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, statistics cache disabled")
	}

	// Interfaces stay untyped nil when a collaborator is unconfigured so the
	// services take their fallback paths.
	var classifier ai.Classifier
	if cfg.OpenAIAPIKey != "" {
		openAI, err := ai.NewOpenAIClassifier(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create classifier: %v", err)
		}
		classifier = openAI
	} else {
		logger.Warn().Msg("openai api key not set, suggestions default to medium priority")
	}

	var uploader service.ImageUploader
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cloudinaryService, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cloudinaryService
	} else {
		logger.Warn().Msg("cloudinary credentials not set, image attachments disabled")
	}

	validate := utils.NewValidator()

	suggestionRepo := repository.NewSuggestionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	directory := service.NewStaffDirectory(cfg.StaffAccounts)
	presence := service.NewPresenceTracker(cfg.PresenceWindow)
	classificationService := service.NewClassificationService(classifier, cfg.AITimeout, logger)
	attachmentService := service.NewAttachmentService(uploader, cfg.MaxImageMB, cfg.UploadTimeout, logger)
	suggestionService := service.NewSuggestionService(suggestionRepo, classificationService, attachmentService, validate, redisClient, cfg.TrackingPrefix, logger)
	adminSuggestionService := service.NewAdminSuggestionService(suggestionRepo, validate, redisClient, cfg.StatsCacheTTL, logger)
	activityService := service.NewActivityService(activityRepo, directory, logger)

	exposeDetails := cfg.IsDevelopment()
	suggestionHandler := handler.NewSuggestionHandler(suggestionService, logger, exposeDetails)
	adminSessionHandler := handler.NewAdminSessionHandler(directory, presence, activityService, validate, logger)
	adminSuggestionHandler := handler.NewAdminSuggestionHandler(adminSuggestionService, activityService, logger, exposeDetails)
	adminActivityHandler := handler.NewAdminActivityHandler(activityService, logger, exposeDetails)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SuggestionHandler:      suggestionHandler,
		AdminSessionHandler:    adminSessionHandler,
		AdminSuggestionHandler: adminSuggestionHandler,
		AdminActivityHandler:   adminActivityHandler,
		StaffResolver:          directory,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Int("staff_accounts", len(cfg.StaffAccounts)).Msg("suggestion box api started")
	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
