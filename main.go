package main

import (
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campaign-dashboard/config"
	"campaign-dashboard/copygen"
	"campaign-dashboard/doctorsender"
	"campaign-dashboard/email"
	"campaign-dashboard/handlers"
	"campaign-dashboard/metrics"
	"campaign-dashboard/middleware"
	"campaign-dashboard/openai"
	"campaign-dashboard/rabbitmq"
	"campaign-dashboard/services"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warnf(".env file not found, using system environment variables")
	}

	cfg := config.Load()
	metrics.Register()

	// Dataset service loads the initial snapshot before the server starts
	// accepting queries.
	datasetService, err := services.NewDatasetService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dataset service: %v", err)
	}
	defer datasetService.Close()

	crmService := services.NewCRMService(datasetService.DB())

	// Optional integrations degrade to nil when not configured.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.CampaignExchange, "campaign.status")
		if err != nil {
			log.Warnf("RabbitMQ unavailable, campaign events disabled: %v", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	var notifier *email.Notifier
	if cfg.SendGridAPIKey != "" {
		notifier = email.NewNotifier(cfg)
	} else {
		log.Warnf("SendGrid not configured, reviewer notifications disabled")
	}

	dsClient := doctorsender.NewClient(
		cfg.DoctorSenderURL, cfg.DoctorSenderAPIKey, cfg.DoctorSenderAccount, cfg.DoctorSenderRPS)
	batService := services.NewBatService(datasetService.DB(), dsClient, notifier, publisher)

	openaiClient := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	copyGenerator := copygen.NewGenerator(openaiClient, cfg.CopyCacheSize, cfg.CopyCacheTTL)

	websocketHub := services.NewWebSocketHub()
	go websocketHub.Start()
	defer websocketHub.Stop()

	handler := handlers.NewDashboardHandler(datasetService, crmService, batService, copyGenerator, websocketHub)

	r := gin.Default()

	// CORS middleware for Gin
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Public endpoints
	r.GET("/health", handler.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected API
	api := r.Group("/api/v1")
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, time.Minute))
	{
		api.GET("/campaigns", handler.CampaignsHandler)
		api.GET("/dimensions", handler.DimensionsHandler)
		api.POST("/dataset/reload", handler.ReloadHandler)

		api.POST("/email-copy", handler.EmailCopyHandler)

		api.POST("/campaigns/:id/bat", handler.SendBatHandler)
		api.POST("/campaigns/:id/approve", handler.ApproveHandler)
		api.POST("/campaigns/:id/reject", handler.RejectHandler)
		api.POST("/campaigns/:id/schedule", handler.ScheduleHandler)

		api.GET("/crm/efforts", handler.EffortsHandler)
		api.GET("/crm/worklogs", handler.WorklogsHandler)
		api.GET("/crm/tickets", handler.TicketsHandler)
		api.GET("/crm/newsletter-insights", handler.NewsletterInsightsHandler)
		api.GET("/crm/overview", handler.OverviewHandler)
	}

	// WebSocket endpoints (no gzip on upgraded connections)
	ws := r.Group("/ws")
	ws.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		ws.GET("/events", handler.WebSocketHandler)
		ws.GET("/health", handler.WebSocketHealthHandler)
	}

	log.Infof("Starting campaign dashboard service on %s:%s", cfg.Host, cfg.Port)
	if err := r.Run(cfg.Host + ":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
