package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"device-license.backend/internal/config"
	"device-license.backend/internal/infrastructure/database"
	"device-license.backend/internal/infrastructure/metrics"
	"device-license.backend/internal/infrastructure/repositories"
	"device-license.backend/internal/interfaces/http/handlers"
	"device-license.backend/internal/interfaces/http/middleware"
	"device-license.backend/internal/interfaces/http/routes"
	"device-license.backend/internal/usecases"
	"device-license.backend/pkg/jwt"
	"device-license.backend/pkg/logger"
	"device-license.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv      = godotenv.Load
	loadCfg         = config.Load
	initLog         = logger.Init
	initRedis       = redis.Init
	openDB          = database.Open
	newSessionStore = redis.NewSessionStore
	runServer       = func(srv *http.Server) error { return srv.ListenAndServe() }
	getStdDB        = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	shutdownSignal  = func() <-chan os.Signal {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		return quit
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	// Redis backs admin sessions and idempotency keys; both are off without it
	var sessions usecases.SessionStore
	if cfg.Redis.URL != "" {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
			logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redis.Close()

		store, err := newSessionStore(cfg.Security.SessionEncryptionKey)
		if err != nil {
			return fmt.Errorf("failed to initialize session store: %w", err)
		}
		sessions = store
		logger.Info(ctx, "Redis initialized")
	} else {
		logger.Warn(ctx, "REDIS_URL is empty, admin sessions and idempotency keys are disabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info(ctx, "Database ready", zap.String("driver", cfg.Database.Driver))

	if cfg.Admin.PasswordHash == "" {
		logger.Warn(ctx, "ADMIN_PASSWORD_HASH is empty, admin login is disabled")
	}

	m := metrics.New()
	clock := usecases.SystemClock

	// Repositories
	codeRepo := repositories.NewAuthorizationCodeRepository(db)
	authRepo := repositories.NewSoftwareAuthorizationRepository(db)
	logRepo := repositories.NewAccessLogRepository(db)
	softwareRepo := repositories.NewSoftwareRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Usecases
	codeUsecase := usecases.NewAuthorizationCodeUsecase(codeRepo, clock, m, cfg.Authorization.CodeGenerationAttempts)
	accessLogUsecase := usecases.NewAccessLogUsecase(logRepo, authRepo, clock, m, cfg.Authorization.AccessLogMaxPerPage)
	authorizationUsecase := usecases.NewSoftwareAuthorizationUsecase(
		authRepo,
		uow,
		usecases.NewFingerprintMatcher(authRepo),
		codeUsecase,
		accessLogUsecase,
		clock,
		m,
	)
	softwareUsecase := usecases.NewSoftwareUsecase(softwareRepo, clock)
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	adminAuthUsecase := usecases.NewAdminAuthUsecase(cfg.Admin.Email, cfg.Admin.PasswordHash, jwtService, sessions)

	r := newRouter(cfg, m, sqlDB.PingContext, routes.Deps{
		AuthHandler:              handlers.NewAuthHandler(adminAuthUsecase),
		AuthorizationHandler:     handlers.NewSoftwareAuthorizationHandler(authorizationUsecase, accessLogUsecase),
		AuthorizationCodeHandler: handlers.NewAuthorizationCodeHandler(codeUsecase),
		SoftwareHandler:          handlers.NewSoftwareHandler(softwareUsecase),
		AdminAuthMiddleware:      middleware.AdminAuthMiddleware(adminAuthUsecase),
		CodeTokenMiddleware:      middleware.CodeTokenMiddleware(codeUsecase),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-shutdownSignal()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "Device license backend starting", zap.String("port", cfg.Server.Port))
	if err := runServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// newRouter assembles the engine: global middleware, operational routes and the API
func newRouter(cfg *config.Config, m *metrics.Metrics, pingDB func(context.Context) error, d routes.Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(m))

	applyCORSMiddleware(r, cfg.Server.CORSAllowedOrigins)
	registerHealthRoute(r, healthChecks(pingDB))
	registerMetricsRoute(r, m)
	routes.RegisterAPIV1(r, d)
	return r
}
