package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"producer-chat/config"
	"producer-chat/internal/domain/chat"
	"producer-chat/internal/domain/moderation"
	"producer-chat/internal/domain/user"
	"producer-chat/internal/handler"
	"producer-chat/internal/middleware"
	"producer-chat/internal/redisx"
	"producer-chat/internal/repository"
	"producer-chat/internal/services"
	"producer-chat/internal/storage"
	"producer-chat/pkg/database"
	"producer-chat/pkg/events"
	"producer-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == gin.ReleaseMode {
		mode = logger.ProductionMode
	}
	appLogger := logger.New(mode)
	defer appLogger.Logger.Sync()

	// Connect to Database
	database.Connect(cfg)

	if err := database.DB.AutoMigrate(
		&user.Profile{},
		&chat.Message{},
		&moderation.Block{},
		&moderation.Report{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	redisClient := redisx.NewClient(redisx.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	quota := redisx.NewMessageQuota(redisClient, redisx.QuotaConfig{
		Limit:  cfg.QuotaLimit,
		Window: cfg.QuotaWindow,
	})
	profileCache := redisx.NewProfileCache(redisClient)
	broker := events.NewRedisBroker(redisClient)

	// The object store is optional: without it, attachment sends fail
	// cleanly while text messaging keeps working.
	var uploader services.Uploader
	s3Client, err := storage.NewClient(context.Background(), storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PublicBase: cfg.S3PublicBase,
	})
	if err != nil {
		appLogger.Warnf("object storage unavailable, attachments disabled: %v", err)
		uploader = services.NewAttachmentUploader(nil)
	} else {
		uploader = services.NewAttachmentUploader(s3Client)
	}

	messageRepo := repository.NewMessageRepository(database.DB)
	profileRepo := repository.NewProfileRepository(database.DB)
	moderationRepo := repository.NewModerationRepository(database.DB)

	directory := services.NewDirectory(profileRepo, profileCache, appLogger)
	inboxService := services.NewInboxService(messageRepo, directory, appLogger)
	sessionManager := services.NewSessionManager(messageRepo, uploader, quota, broker, appLogger)
	moderationService := services.NewModerationService(moderationRepo, appLogger)

	notifier := services.NewNotificationWorker(broker, cfg.NotifyWebhookURL, appLogger)
	if err := notifier.Start(context.Background()); err != nil {
		appLogger.Warnf("notification worker failed to start: %v", err)
	}

	inboxHandler := handler.NewInboxHandler(inboxService)
	messageHandler := handler.NewMessageHandler(sessionManager)
	moderationHandler := handler.NewModerationHandler(moderationService)
	quotaHandler := handler.NewQuotaHandler(quota)

	gin.SetMode(cfg.AppMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.ErrorHandler(appLogger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware([]byte(cfg.JWTSecret)))
	{
		api.GET("/conversations", inboxHandler.ListConversations)
		api.GET("/messages/:otherID", messageHandler.GetThread)
		api.GET("/messages/:otherID/older", messageHandler.GetOlderMessages)
		api.POST("/messages/:otherID", messageHandler.SendMessage)
		api.DELETE("/messages/:otherID", messageHandler.ClearChat)
		api.GET("/quota", quotaHandler.GetStatus)
		api.POST("/moderation/block", moderationHandler.BlockUser)
		api.POST("/moderation/report", moderationHandler.ReportUser)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AppPort),
		Handler: router,
	}

	go func() {
		appLogger.Infof("starting server on port %s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Infof("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorf("forced shutdown: %v", err)
	}
}
