package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/wwtech/onboarding-backend/internal/config"
	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/handlers"
	"github.com/wwtech/onboarding-backend/internal/metrics"
	"github.com/wwtech/onboarding-backend/internal/middleware"
	"github.com/wwtech/onboarding-backend/internal/notification"
	"github.com/wwtech/onboarding-backend/internal/services"
	"github.com/wwtech/onboarding-backend/internal/storage"
	"github.com/wwtech/onboarding-backend/pkg/jwt"
	"github.com/wwtech/onboarding-backend/pkg/mail"
	"github.com/wwtech/onboarding-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting onboarding backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Connect to database
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	stores := database.NewStores(db)

	files, err := storage.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
	if err != nil {
		logger.Fatalf("Failed to prepare upload storage: %v", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Mail gateway
	var gateway mail.Gateway
	if cfg.Mail.Mode == "smtp" {
		gateway = mail.NewSMTPGateway(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
		logger.WithField("host", cfg.Mail.Host).Info("SMTP mail gateway initialized")
	} else {
		gateway = mail.NewLogGateway(logger)
		logger.Info("Mail gateway in development mode (emails are logged, not sent)")
	}

	// Notification dispatcher
	renderer := notification.NewRenderer(notification.RendererConfig{
		ClientURL:     cfg.Onboarding.ClientURL,
		ServerURL:     cfg.Onboarding.ServerURL,
		OfferTokenTTL: cfg.Onboarding.OfferTokenTTL,
	})
	dispatcher := notification.NewDispatcher(notification.Config{
		Workers:   cfg.Notifications.Workers,
		QueueSize: cfg.Notifications.QueueSize,
	}, gateway, renderer, stores.Employees, files, logger, m)

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	dispatcher.Start(dispatchCtx)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.TokenExpiry, cfg.JWT.Issuer)
	tokenService := services.NewOfferTokenService(cfg.Onboarding.OfferTokenTTL)
	authService := services.NewAuthService(stores.Accounts, jwtService, cfg.Security.BcryptCost, logger)
	dashboardService := services.NewDashboardService(stores)
	workflowService := services.NewWorkflowService(
		stores,
		tokenService,
		validator.NewFileIntake(cfg.Uploads.MaxFileBytes),
		files,
		dispatcher,
		m,
		logger,
		services.WorkflowConfig{
			TempPasswordSuffix: cfg.Onboarding.TempPasswordSuffix,
			AllowReReview:      cfg.Onboarding.AllowReReview,
			BcryptCost:         cfg.Security.BcryptCost,
		},
	)

	var auditService *services.AuditService
	if cfg.Security.EnableAuditLog {
		auditService = services.NewAuditService(stores.Audit)
	}

	cronService := services.NewCronService(stores.Candidates, auditService, m, logger, services.CronConfig{
		OfferSweepSchedule: cfg.Cron.OfferSweepSchedule,
		AuditCleanup:       cfg.Cron.AuditCleanupSchedule,
		AuditRetention:     cfg.Cron.AuditRetention,
	})
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Services initialized")

	// Initialize Gin router
	router := gin.New()
	router.MaxMultipartMemory = cfg.Uploads.MaxFileBytes

	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger, m))
	}

	corsConfig := cors.Config{
		AllowOrigins:  cfg.CORS.AllowedOrigins,
		AllowMethods:  cfg.CORS.AllowedMethods,
		AllowHeaders:  cfg.CORS.AllowedHeaders,
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	// browsers refuse credentials with a wildcard origin
	if len(cfg.CORS.AllowedOrigins) > 0 && cfg.CORS.AllowedOrigins[0] != "*" {
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/cron/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"jobs": cronService.JobStatus()})
	})
	router.Static(cfg.Uploads.URLPrefix, files.Dir())

	routes := &handlers.Router{
		Auth:     handlers.NewAuthHandler(authService, auditService, logger),
		Admin:    handlers.NewAdminHandler(workflowService, dashboardService, auditService, logger),
		Employee: handlers.NewEmployeeHandler(workflowService, auditService, logger),
		Public:   handlers.NewPublicHandler(workflowService, auditService, logger),
	}
	routes.Register(router.Group("/api"), jwtService, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Stopping cron service...")
	cronService.Stop()

	// drain queued emails after the last request has enqueued
	logger.Info("Stopping notification dispatcher...")
	dispatcher.Stop()

	logger.Info("Server exited successfully")
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
