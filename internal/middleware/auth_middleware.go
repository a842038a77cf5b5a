package middleware

import (
	"crypto/rsa"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/poshaakwala/storefront-backend/internal/errors"
)

// Context keys for session information
const (
	UserIDKey    = "user_id"
	SessionIDKey = "session_id"
)

// sessionCookie is where Clerk's frontend SDK keeps the session token for same-site requests.
const sessionCookie = "__session"

const clockSkew = 5 * time.Second

// SessionClaims are the claims of a Clerk session token.
type SessionClaims struct {
	SessionID       string `json:"sid"`
	AuthorizedParty string `json:"azp,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies Clerk session tokens locally with the instance's PEM public key.
type AuthMiddleware struct {
	publicKey         *rsa.PublicKey
	authorizedParties []string
}

// NewAuthMiddleware parses pemKey. An empty key yields a middleware that rejects every request.
func NewAuthMiddleware(pemKey string, authorizedParties ...string) (*AuthMiddleware, error) {
	m := &AuthMiddleware{authorizedParties: authorizedParties}
	if strings.TrimSpace(pemKey) == "" {
		return m, nil
	}

	// keys pasted into env files often carry literal \n sequences
	pemKey = strings.ReplaceAll(pemKey, `\n`, "\n")
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("invalid session verification key: %w", err)
	}
	m.publicKey = key
	return m, nil
}

// Authenticate validates the session token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		if m.publicKey == nil {
			log.Warn("Session verification key not configured", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		token, ok := extractToken(c)
		if !ok {
			log.Warn("Missing session token", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := m.verify(token)
		if err != nil {
			log.Warn("Session token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if stderrors.Is(err, jwt.ErrTokenExpired) {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Session expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid token")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(SessionIDKey, claims.SessionID)

		log.Debug("Session authenticated", map[string]interface{}{
			"user_id": claims.Subject,
		})
		c.Next()
	}
}

func (m *AuthMiddleware) verify(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", jwt.ErrTokenInvalidClaims)
	}
	if len(m.authorizedParties) > 0 && claims.AuthorizedParty != "" && !contains(m.authorizedParties, claims.AuthorizedParty) {
		return nil, fmt.Errorf("%w: unexpected authorized party %q", jwt.ErrTokenInvalidClaims, claims.AuthorizedParty)
	}
	return claims, nil
}

func extractToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		return token, found && token != ""
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// GetUserID returns the authenticated user's identity-provider id.
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(UserIDKey)
	return userID, userID != ""
}
