package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/service"
	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
	"github.com/noah-isme/attendance-portal/pkg/logger"
)

type stubValidator struct {
	claims *models.Claims
	err    error
}

func (s stubValidator) ValidateToken(token string) (*models.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type stubAdmins map[string]bool

func (s stubAdmins) IsAdmin(email string) bool { return s[email] }

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/", append(handlers, func(c *gin.Context) {
		identity, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"email": identity.Email, "admin": identity.IsAdmin, "log": c.GetString(logger.IdentityKey)})
	})...)
	return r
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newRouter(JWT(stubValidator{claims: &models.Claims{Email: "a@x.com"}}, nil))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc").Code)
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	r := newRouter(JWT(stubValidator{err: appErrors.Wrap(errors.New("bad"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")}, nil))
	w := serve(r, "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestJWTStoresIdentityAndAdminFlag(t *testing.T) {
	claims := &models.Claims{UserID: "u1", Email: "admin@x.com"}
	r := newRouter(JWT(stubValidator{claims: claims}, stubAdmins{"admin@x.com": true}))

	w := serve(r, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"admin@x.com","admin":true,"log":"admin@x.com"}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	admins := stubAdmins{"admin@x.com": true}

	user := newRouter(JWT(stubValidator{claims: &models.Claims{Email: "user@x.com"}}, admins), RequireAdmin())
	assert.Equal(t, http.StatusForbidden, serve(user, "Bearer t").Code)

	admin := newRouter(JWT(stubValidator{claims: &models.Claims{Email: "admin@x.com"}}, admins), RequireAdmin())
	assert.Equal(t, http.StatusOK, serve(admin, "Bearer t").Code)

	anonymous := newRouter(RequireAdmin())
	assert.Equal(t, http.StatusUnauthorized, serve(anonymous, "").Code)
}

func TestTokenBucketRefills(t *testing.T) {
	limiter := NewTokenBucket(2)
	now := time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.False(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("2.2.2.2"))

	now = now.Add(30 * time.Second)
	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.False(t, limiter.Allow("1.1.1.1"))

	now = now.Add(time.Hour)
	assert.Equal(t, 2, limiter.Prune(time.Minute))
}

func TestTokenBucketMiddleware(t *testing.T) {
	limiter := NewTokenBucket(1)
	r := newRouter(limiter.Middleware())

	assert.Equal(t, http.StatusOK, serve(r, "").Code)
	w := serve(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	assert.True(t, NewTokenBucket(0).Allow("x"))
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/exports/:token", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/exports/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	req = httptest.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]bool{}
	for _, f := range families {
		if f.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "path" {
					paths[l.GetValue()] = true
				}
			}
		}
	}
	assert.True(t, paths["/exports/:token"])
	assert.True(t, paths["unmatched"])
}
