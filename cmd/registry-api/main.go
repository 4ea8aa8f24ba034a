package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/auth"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/config"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/credits"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/database"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/evidence"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/projects"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/registry"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/verification"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/chain"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/pdf"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/storage"
)

func main() {
	// .env is optional; explicit environment wins either way.
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	if os.Getenv("GIN_MODE") != "release" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Shared adapters
	ipfsClient := storage.NewIPFSClient(cfg.Storage.IPFSGateway)
	var s3Client storage.S3Client
	if cfg.Storage.UseMockS3 {
		s3Client = storage.NewMockS3Client()
	} else {
		s3Client, err = storage.NewAWSS3Client(context.Background())
		if err != nil {
			logger.Fatal("Failed to initialize S3 client", zap.Error(err))
		}
	}
	chainClient := chain.NewMockClient(chain.MockConfig{
		Network:          cfg.Chain.Network,
		ChainID:          cfg.Chain.ChainID,
		RegistryContract: cfg.Chain.RegistryContract,
		CreditContract:   cfg.Chain.CreditContract,
	})

	// Modules
	authRepo := auth.NewRepository(db)
	authService := auth.NewService(authRepo, cfg.Security.JWTSecret, cfg.Security.TokenTTL, logger)
	authMiddleware := auth.NewMiddleware(authRepo, cfg.Security.JWTSecret)
	authHandler := auth.NewHandler(authService, authMiddleware)

	projectsRepo := projects.NewRepository(db)
	projectsService := projects.NewService(projectsRepo, ipfsClient, logger)
	projectsHandler := projects.NewHandler(projectsService, authMiddleware)

	verificationService := verification.NewService(projectsRepo, logger)
	verificationHandler := verification.NewHandler(verificationService, authMiddleware)

	creditsRepo := credits.NewRepository(db)
	creditsService := credits.NewService(creditsRepo, chainClient, pdf.NewGenerator(), ipfsClient, logger)
	creditsHandler := credits.NewHandler(creditsService, authMiddleware)

	registryRepo := registry.NewRepository(db)
	registryService := registry.NewService(registryRepo, logger)
	registryHandler := registry.NewHandler(registryService)

	evidenceService := evidence.NewService(s3Client, ipfsClient, cfg.Storage.S3Bucket, logger)
	evidenceHandler := evidence.NewHandler(evidenceService, authMiddleware)

	// Periodic stats refresh keeps the public dashboard endpoints cheap.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Registry.StatsRefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := registryService.Refresh(ctx); err != nil {
			logger.Warn("Stats refresh failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("Invalid stats refresh spec", zap.Error(err))
	}
	scheduler.Start()

	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.Server.FrontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api")
	{
		authHandler.RegisterRoutes(api)
		projectsHandler.RegisterRoutes(api)
		verificationHandler.RegisterRoutes(api)
		creditsHandler.RegisterRoutes(api)
		registryHandler.RegisterRoutes(api)
		evidenceHandler.RegisterRoutes(api)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", cfg.Server.GetServerAddr()))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
