package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/askpair/api/internal/artifact"
	"github.com/askpair/api/internal/config"
	"github.com/askpair/api/internal/database"
	"github.com/askpair/api/internal/eventbus"
	"github.com/askpair/api/internal/handlers"
	"github.com/askpair/api/internal/llm"
	"github.com/askpair/api/internal/middleware"
	"github.com/askpair/api/internal/models"
	"github.com/askpair/api/internal/selection"
	"github.com/askpair/api/internal/store"
)

func main() {
	// Initialize logger with stdout sync
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	logger.Info("askpair API starting...",
		zap.String("environment", cfg.Environment),
		zap.String("served_policy", cfg.ServedPolicy),
	)

	// NATS is best-effort: the API serves without it
	bus, err := eventbus.Connect(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn("failed to connect to NATS, events disabled", zap.Error(err))
	} else {
		defer bus.Close()
		logger.Info("connected to NATS")
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	st := store.New(db)

	generator := llm.NewGenerator(llm.GeneratorConfig{
		EnabledProviders: cfg.EnabledEngines,
		RealProviders:    cfg.RealEngines,
		ModelByProvider: map[string]string{
			"openai":     cfg.OpenAIModel,
			"gemini":     cfg.GeminiModel,
			"openrouter": cfg.OpenRouterModel,
		},
		TimeoutByProvider: map[string]float64{
			"openai":     cfg.OpenAITimeoutS,
			"gemini":     cfg.GeminiTimeoutS,
			"openrouter": cfg.OpenRouterTimeoutS,
		},
		Aliases: cfg.EngineAliases,
	}, logger)

	// Pin precedence: runtime Redis pin, then env pin, then newest registered
	pin := func(ctx context.Context) string {
		if v, err := rdb.Client().Get(ctx, handlers.ModelPinKey).Result(); err == nil && v != "" {
			return v
		}
		return cfg.ActiveModelVersion
	}
	ranker := selection.NewRanker(st, &artifact.Loader{Root: cfg.ProjectRoot}, selection.NewCache(), pin, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthHandler := handlers.NewHealthHandler(db, rdb, bus)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/deep", healthHandler.Deep)

	askHandler := handlers.NewAskHandler(db, generator, ranker, bus, models.ServedPolicy(cfg.ServedPolicy), logger)
	feedbackHandler := handlers.NewFeedbackHandler(db, bus, logger)
	adminHandler := handlers.NewAdminHandler(st, rdb, logger)
	authHandler := handlers.NewAuthHandler(cfg.JWTSecret, cfg.AdminKey, logger)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/token", authHandler.Token)
		}

		public := v1.Group("")
		public.Use(middleware.RateLimitMiddleware(middleware.DefaultRateLimiter))
		{
			// Ask path gets the stricter limit plus the breaker: engine
			// calls are the expensive, failure-prone part of the system.
			ask := public.Group("")
			ask.Use(middleware.RateLimitMiddleware(middleware.StrictRateLimiter))
			ask.Use(middleware.CircuitBreakerMiddleware(middleware.GenerationCircuitBreaker))
			{
				ask.POST("/ask", askHandler.Ask)
			}

			public.POST("/feedback", feedbackHandler.Submit)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.Auth(cfg.JWTSecret))
		admin.Use(middleware.RateLimitMiddleware(middleware.DefaultRateLimiter))
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/models", adminHandler.ListModels)
			admin.POST("/models/pin", adminHandler.PinModel)
			admin.DELETE("/models/pin", adminHandler.UnpinModel)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // engine calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
