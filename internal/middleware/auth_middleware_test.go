package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pemKey)
}

func signSession(t *testing.T, key *rsa.PrivateKey, subject string, expiresIn time.Duration, azp string) string {
	claims := SessionClaims{
		SessionID:       "sess_123",
		AuthorizedParty: azp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func setupAuthRouter(t *testing.T, m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", m.Authenticate(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "session_id": c.GetString(SessionIDKey)})
	})
	return router
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	key, pemKey := generateKeyPair(t)
	otherKey, _ := generateKeyPair(t)

	m, err := NewAuthMiddleware(pemKey, "https://shop.example")
	require.NoError(t, err)
	router := setupAuthRouter(t, m)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantCode   string
	}{
		{"valid bearer", "Bearer " + signSession(t, key, "user_1", time.Hour, "https://shop.example"), "", http.StatusOK, ""},
		{"valid cookie", "", signSession(t, key, "user_1", time.Hour, ""), http.StatusOK, ""},
		{"missing token", "", "", http.StatusUnauthorized, "AUTH_UNAUTHORIZED"},
		{"wrong scheme", "Token abc", "", http.StatusUnauthorized, "AUTH_UNAUTHORIZED"},
		{"expired", "Bearer " + signSession(t, key, "user_1", -time.Hour, ""), "", http.StatusUnauthorized, "AUTH_TOKEN_EXPIRED"},
		{"foreign signer", "Bearer " + signSession(t, otherKey, "user_1", time.Hour, ""), "", http.StatusUnauthorized, "AUTH_TOKEN_INVALID"},
		{"foreign party", "Bearer " + signSession(t, key, "user_1", time.Hour, "https://evil.example"), "", http.StatusUnauthorized, "AUTH_TOKEN_INVALID"},
		{"missing subject", "Bearer " + signSession(t, key, "", time.Hour, ""), "", http.StatusUnauthorized, "AUTH_TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: sessionCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "user_1", body["user_id"])
				assert.Equal(t, "sess_123", body["session_id"])
			} else {
				assert.Equal(t, tt.wantCode, body["error"])
			}
		})
	}
}

func TestAuthMiddleware_HS256Rejected(t *testing.T) {
	_, pemKey := generateKeyPair(t)
	m, err := NewAuthMiddleware(pemKey)
	require.NoError(t, err)
	router := setupAuthRouter(t, m)

	claims := jwt.RegisteredClaims{Subject: "user_1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(pemKey))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WithoutKeyRejectsEverything(t *testing.T) {
	key, _ := generateKeyPair(t)
	m, err := NewAuthMiddleware("")
	require.NoError(t, err)
	router := setupAuthRouter(t, m)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+signSession(t, key, "user_1", time.Hour, ""))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewAuthMiddleware_InvalidPEM(t *testing.T) {
	_, err := NewAuthMiddleware("not a key")
	assert.Error(t, err)
}
