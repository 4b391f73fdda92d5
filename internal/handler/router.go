package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-portal/pkg/middleware/requestid"
)

// Router assembles the HTTP surface of the portal.
type Router struct {
	APIPrefix      string
	EnableDocs     bool
	AllowedOrigins []string
	TrustedProxies []string
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Tokens         middleware.TokenValidator
	Admins         middleware.AdminChecker
	SignInLimiter  *middleware.TokenBucket

	Auth       *AuthHandler
	Attendance *AttendanceHandler
	Admin      *AdminHandler
	Profiles   *ProfileHandler
	Health     *HealthHandler
}

// Engine builds the gin engine with every route registered.
func (rt Router) Engine() *gin.Engine {
	log := rt.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	// ClientIP keys the sign-in limiter, so forwarded headers only count from known proxies.
	if err := r.SetTrustedProxies(rt.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", zap.Strings("proxies", rt.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(rt.AllowedOrigins))
	r.Use(middleware.Metrics(rt.Metrics))

	r.GET("/health", rt.Health.Health)
	r.GET("/ready", rt.Health.Ready)
	r.GET("/metrics", rt.Health.Prometheus)
	if rt.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(rt.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/register", rt.Auth.Register)
	auth.POST("/sign-in", rt.SignInLimiter.Middleware(), rt.Auth.SignIn)
	auth.POST("/refresh", rt.Auth.Refresh)

	api.GET("/tips", rt.Profiles.Tip)
	api.GET("/exports/:token", rt.Admin.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(rt.Tokens, rt.Admins))
	secured.POST("/auth/sign-out", rt.Auth.SignOut)
	secured.GET("/me", rt.Auth.Me)
	secured.GET("/profiles", rt.Profiles.List)
	secured.GET("/attendance", rt.Attendance.Overview)
	secured.POST("/attendance", rt.Attendance.Mark)
	secured.GET("/attendance/history", rt.Attendance.History)
	secured.GET("/calendar", rt.Attendance.Calendar)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/checkins", rt.Admin.CheckIns)
	admin.GET("/checkins/export", rt.Admin.Export)
	admin.POST("/checkins/exports", rt.Admin.Publish)

	return r
}
