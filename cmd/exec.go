package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"admitone/config"
	"admitone/internal/credential"
	"admitone/internal/handlers"
	"admitone/internal/services"
	_ "admitone/migrations"
	"admitone/monitoring"
	"admitone/security"
	"admitone/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Initialize PubNub for the door dashboard feed (optional)
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId("admitone-server"))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}

	// Initialize services
	codec := credential.NewCodec(cfg.QRSecret)
	eventService := services.NewEventService(app, redisClient, cfg.EventCacheTTL)
	orderService := services.NewOrderService(app, eventService, codec)
	ticketService := services.NewTicketService(app, eventService, codec, pn)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(app, orderService)
	ticketHandler := handlers.NewTicketHandler(app, ticketService)
	limiter := security.NewRateLimiter(redisClient, cfg.ScanRateLimit, cfg.ScanRateWindow)

	// Normalize event definitions on create/update
	handlers.RegisterEventHooks(app)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Create context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.EnableMetrics {
		monitor := monitoring.NewMonitor(redisClient)
		go monitor.Start(ctx)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Order endpoints
		e.Router.POST("/api/orders", orderHandler.PlaceOrder)
		e.Router.GET("/api/my-tickets", ticketHandler.ListMyTickets)

		// Check-in endpoints
		e.Router.POST("/api/tickets/{ticketId}/validate", ticketHandler.Validate).
			BindFunc(limiter.ScanGuard())
		e.Router.POST("/api/checkin", ticketHandler.ValidateScanned).
			BindFunc(limiter.ScanGuard())

		if cfg.EnableMetrics {
			e.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		slog.Info("server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}

// handleShutdown handles graceful shutdown of background tasks
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("shutdown signal received, cleaning up")
	cancel()
}
