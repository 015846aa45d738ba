package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/picstream/backend/internal/auth"
	"github.com/picstream/backend/internal/cache"
	"github.com/picstream/backend/internal/config"
	"github.com/picstream/backend/internal/database"
	"github.com/picstream/backend/internal/handlers"
	"github.com/picstream/backend/internal/logger"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/storage"
	"github.com/picstream/backend/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// multipartBodyCap bounds the whole multipart request; the per-image
// 5MB check happens in the handler
const multipartBodyCap = 10 * 1024 * 1024

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.InfoWithFields("Picstream backend starting", zap.String("environment", cfg.Environment))

	if err := database.Initialize(cfg.DatabaseURL); err != nil {
		logger.ErrorWithFields("Failed to initialize database", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.ErrorWithFields("Failed to run migrations", err)
		os.Exit(1)
	}

	s3Uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
	if err != nil {
		logger.ErrorWithFields("Failed to initialize S3 uploader", err)
		os.Exit(1)
	}
	if err := s3Uploader.CheckBucketAccess(context.Background()); err != nil {
		logger.WarnWithFields("S3 bucket access check failed, image uploads will fail", err)
	}

	feedCache, err := cache.NewFeedCache(cfg.RedisURL, handlers.FeedCacheTTL)
	if err != nil {
		logger.WarnWithFields("Redis unavailable, feed caching disabled", err)
	}
	if feedCache != nil {
		defer feedCache.Close()
	}

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "picstream-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.OTLPEndpoint != "",
		SamplingRate: 1.0,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.WarnWithFields("Tracer shutdown failed", err)
			}
		}()
	}

	authService := auth.NewService(cfg.JWTSecret)

	h := handlers.NewHandlers(s3Uploader, authService)
	h.SetFeedCache(feedCache)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if tp != nil {
		r.Use(otelgin.Middleware("picstream-backend"))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "picstream-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(h.AuthMiddleware())
	{
		posts := api.Group("/posts")
		{
			posts.GET("", h.ListPosts)
			posts.GET("/:id", h.GetPost)
			posts.POST("", middleware.RateLimitUpload(), middleware.BodyLimitMiddleware(multipartBodyCap), h.CreatePost)
			posts.PATCH("/:id", h.UpdatePost)
			posts.DELETE("/:id", h.DeletePost)
		}

		likes := api.Group("/likes")
		{
			likes.Use(middleware.RateLimit())
			likes.POST("", h.LikePost)
			likes.DELETE("", h.UnlikePost)
		}

		comments := api.Group("/comments")
		{
			comments.Use(middleware.RateLimit())
			comments.POST("", h.CreateComment)
			comments.DELETE("", h.DeleteComment)
		}

		follows := api.Group("/follows")
		{
			follows.Use(middleware.RateLimit())
			follows.POST("", h.FollowUser)
			follows.DELETE("", h.UnfollowUser)
		}

		users := api.Group("/users")
		{
			users.GET("/me", h.GetMe)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/posts", h.GetUserPosts)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.InfoWithFields("Listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorWithFields("Server failed", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoWithFields("Shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}

	logger.InfoWithFields("Server exited")
}
