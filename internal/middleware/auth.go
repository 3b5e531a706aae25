package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/auth"
	"github.com/ukydev/engineeye/internal/metrics"
	"github.com/ukydev/engineeye/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// streamTokenParam carries the token for clients that cannot set headers,
// such as browser EventSource connections. Only GET requests may use it.
const streamTokenParam = "access_token"

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
	metrics     *metrics.Metrics
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		metrics:     m,
	}
}

// Authenticate validates JWT tokens and adds user context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for certain endpoints
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		var token string
		if header := r.Header.Get("Authorization"); header != "" {
			t, err := m.authService.ExtractTokenFromHeader(header)
			if err != nil {
				m.metrics.AuthFailure("malformed_header")
				apperr.Write(w, r, apperr.Unauthenticated("authorization header must be a bearer token"))
				return
			}
			token = t
		} else if r.Method == http.MethodGet {
			token = r.URL.Query().Get(streamTokenParam)
		}
		if token == "" {
			m.metrics.AuthFailure("missing_token")
			apperr.Write(w, r, apperr.Unauthenticated("authorization header required"))
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			reason := "invalid_token"
			if errors.Is(err, auth.ErrExpiredToken) {
				reason = "expired_token"
			}
			m.metrics.AuthFailure(reason)
			log.WithFields(log.Fields{"path": r.URL.Path, "reason": reason}).Debug("Rejected token")
			apperr.Write(w, r, apperr.Unauthenticated("invalid or expired token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok && claims != nil
}

// IdentityFromContext returns the caller's identity, or the zero Identity
// when the request is unauthenticated.
func IdentityFromContext(ctx context.Context) models.Identity {
	claims, ok := GetUserFromContext(ctx)
	if !ok {
		return models.Identity{}
	}
	return claims.Identity
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/api/auth/login",
		"/api/auth/register",
		"/api/auth/refresh",
		"/health",
		"/metrics",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}
