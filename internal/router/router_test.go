package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/config"
	"github.com/poshaakwala/storefront-backend/internal/app/controller"
	"github.com/poshaakwala/storefront-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterTest(t *testing.T) *gin.Engine {
	authMiddleware, err := middleware.NewAuthMiddleware("")
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://shop.example"}},
	}
	r := NewRouter(nil, nil, nil, nil, controller.NewAdminController(nil), nil, authMiddleware, cfg)
	return r.Setup()
}

func TestRouter_HealthAndRoot(t *testing.T) {
	engine := setupRouterTest(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AdminRoutesRequireSession(t *testing.T) {
	engine := setupRouterTest(t)

	for _, path := range []string{"/api/admin/users", "/api/admin/products/export", "/api/stamping/status"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "AUTH_UNAUTHORIZED")
		})
	}
}
