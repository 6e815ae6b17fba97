package main

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/sirupsen/logrus"

	"nantuckethouses/server/config"
	"nantuckethouses/server/internal/api"
	"nantuckethouses/server/internal/chat"
	"nantuckethouses/server/internal/market"
	"nantuckethouses/server/internal/mls"
	"nantuckethouses/server/internal/notify"
	"nantuckethouses/server/internal/scheduler"
	"nantuckethouses/server/internal/social"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		logger.WithError(err).Warn(".env file not found or could not be loaded")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := config.LoadFallbackData(); err != nil {
		logger.WithError(err).Fatal("Failed to load fallback market data")
	}

	if cfg.MLS.APIKey == "" {
		logger.Warn("REPLIERS_API_KEY is not set; MLS endpoints will serve fallback data")
	}

	mlsClient := mls.NewClient(logger, cfg.MLS.BaseURL, cfg.MLS.APIKey)
	marketSvc := market.NewService(logger, mlsClient, cfg.MLS.County)

	var chatRouter *chat.Router
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(option.WithAPIKey(cfg.OpenAI.APIKey))
		chatRouter = chat.NewRouter(logger, client, cfg.OpenAI.Model, marketSvc)
	} else {
		logger.Warn("OPENAI_API_KEY is not set; chat endpoint disabled")
	}

	notifySvc := notify.NewService(logger, cfg.Email.APIKey, cfg.Email.From, cfg.Email.Recipient)
	if !notifySvc.Configured() {
		logger.Warn("RESEND_API_KEY is not set; lead emails will not be delivered")
	}

	publisher := social.NewPublisher(logger, cfg.Meta.PageID, cfg.Meta.AccessToken)

	if cfg.Meta.PostHour >= 0 && cfg.Meta.PostHour <= 23 && publisher.Configured() {
		sched := scheduler.NewScheduler(logger, marketSvc, publisher, cfg.SiteURL, cfg.Meta.PostHour)
		sched.Start()
		defer sched.Stop()
		logger.WithField("hour", cfg.Meta.PostHour).Info("Daily market update posting scheduled")
	}

	handler := api.NewHandler(logger, marketSvc, chatRouter, notifySvc, publisher, cfg.SiteURL)

	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
