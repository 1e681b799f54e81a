package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DevS-25/Paperless/internal/admin"
	"github.com/DevS-25/Paperless/internal/auth"
	"github.com/DevS-25/Paperless/internal/config"
	"github.com/DevS-25/Paperless/internal/documents"
	"github.com/DevS-25/Paperless/internal/notifications"
	"github.com/DevS-25/Paperless/internal/users"
	"github.com/DevS-25/Paperless/internal/workflow"
	"github.com/DevS-25/Paperless/pkg/pdf"
	"github.com/DevS-25/Paperless/pkg/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Logging)
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.DatabaseURL())
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	store, err := storage.NewS3Client(context.Background(), cfg.Storage.Region)
	if err != nil {
		logger.Fatal("storage client failed", zap.Error(err))
	}

	engine := workflow.NewEngine()
	sheets := pdf.NewGenerator(cfg.Portal.InstitutionName)

	userRepo := users.NewRepository(db)
	userSvc, err := users.NewService(userRepo, cfg.Portal.StudentEmailPattern, logger)
	if err != nil {
		logger.Fatal("user service failed", zap.Error(err))
	}

	hub := notifications.NewHub(logger)
	notifier := notifications.NewService(hub, logger)

	docRepo := documents.NewRepository(db)
	docSvc := documents.NewService(docRepo, userSvc, store, sheets, engine, notifier, cfg.Storage.Bucket, logger)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("token manager failed", zap.Error(err))
	}
	middleware := auth.NewMiddleware(tokens, userSvc)
	authHandler := auth.NewHandler(tokens, userSvc,
		auth.NewGoogleVerifier(cfg.Auth.GoogleClientID), store,
		auth.AdminCredentials{Email: cfg.Auth.AdminEmail, PasswordHash: cfg.Auth.AdminPasswordHash},
		cfg.Storage.Bucket, logger)

	adminSvc := admin.NewService(userRepo, docRepo)
	adminHandler := admin.NewHandler(adminSvc, userSvc)
	docHandler := documents.NewHandler(docSvc, userSvc, engine)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginzap(logger), gin.Recovery(), cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})
	auth.RegisterRoutes(router, authHandler, middleware)
	docHandler.RegisterRoutes(router, middleware)
	adminHandler.RegisterRoutes(router, middleware)
	hub.RegisterRoutes(router, middleware)

	sweeper := notifications.NewSweeper(docRepo, notifier, cfg.Reminder.MaxAge, logger)
	if err := sweeper.Start(cfg.Reminder.Schedule); err != nil {
		logger.Fatal("reminder sweeper failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	sweeper.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

func newLogger(cfg config.LoggingConfig) *zap.Logger {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zc.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// ginzap logs one line per request through the shared zap logger.
func ginzap(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
