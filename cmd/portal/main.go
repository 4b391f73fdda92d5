package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-portal/api/swagger"
	"github.com/noah-isme/attendance-portal/internal/calendar"
	"github.com/noah-isme/attendance-portal/internal/handler"
	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/repository"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/pkg/cache"
	"github.com/noah-isme/attendance-portal/pkg/config"
	"github.com/noah-isme/attendance-portal/pkg/database"
	"github.com/noah-isme/attendance-portal/pkg/logger"
	"github.com/noah-isme/attendance-portal/pkg/storage"
)

// @title Attendance Portal API
// @version 1.0.0
// @description Class session calendar, daily check-ins and admin exports.
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}
	if len(applied) > 0 {
		logr.Info("migrations applied", zap.Strings("files", applied))
	}

	// Redis is optional; without it check-ins are read straight from the database.
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
	}

	cal := calendar.New(calendar.Config{
		ClassDays: cfg.Course.ClassDays,
		TermStart: cfg.Course.TermStart,
		TermEnd:   cfg.Course.TermEnd,
		Location:  cfg.Course.Location,
	})

	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.CheckIns.CacheTTL, logr, cacheRepo.Enabled())
	directory := service.NewDirectoryService(userRepo, profileRepo, validator.New(), logr, service.DirectoryConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		AdminEmails:        cfg.Course.AdminEmails,
	})
	attendance := service.NewAttendanceService(cal, attendanceRepo, cacheSvc, metrics, service.AttendanceConfig{
		CourseCode:  cfg.Course.Code,
		CheckInsTTL: cfg.CheckIns.CacheTTL,
	}, logr)
	profiles := service.NewProfileService(profileRepo, logr)
	tips := service.NewTipService(cfg.Tips.URL, cfg.Tips.Timeout, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exports := service.NewExportService(exportStore, signer, metrics, service.ExportConfig{
		CourseCode: cfg.Course.Code,
		APIPrefix:  cfg.APIPrefix,
	}, logr)

	limiter := middleware.NewTokenBucket(cfg.RateLimit.SignInPerMinute)
	startLimiterPruning(ctx, limiter)

	checks := map[string]handler.Pinger{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisPing(ctx, redisClient) }
	}

	router := handler.Router{
		APIPrefix:      cfg.APIPrefix,
		EnableDocs:     cfg.Env != config.EnvProduction,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logr,
		Metrics:        metrics,
		Tokens:         directory,
		Admins:         directory,
		SignInLimiter:  limiter,
		Auth:           handler.NewAuthHandler(directory),
		Attendance:     handler.NewAttendanceHandler(attendance, nil),
		Admin:          handler.NewAdminHandler(attendance, exports, nil),
		Profiles:       handler.NewProfileHandler(profiles, tips),
		Health:         handler.NewHealthHandler(metrics, checks),
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Warn("http shutdown error", zap.Error(err))
		}
	}()

	logr.Info("server starting",
		zap.String("addr", server.Addr),
		zap.String("env", cfg.Env),
		zap.String("term_end", calendar.FormatDate(cfg.Course.TermEnd)),
		zap.Stringer("class_days", cfg.Course.ClassDays),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func redisPing(ctx context.Context, client *redis.Client) error {
	if !cache.Healthy(ctx, client) {
		return errors.New("redis ping failed")
	}
	return nil
}

func startLimiterPruning(ctx context.Context, limiter *middleware.TokenBucket) {
	ticker := time.NewTicker(10 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Prune(10 * time.Minute)
			}
		}
	}()
}
