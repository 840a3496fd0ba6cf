package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/promptpilot/model-router/utils"
)

// AdminAuth guards mutating admin endpoints with an HMAC-signed bearer
// token. With an empty secret the guard is disabled and requests pass
// through.
type AdminAuth struct {
	secret []byte
	logger *zap.Logger
}

// NewAdminAuth creates the admin guard.
func NewAdminAuth(secret string, logger *zap.Logger) *AdminAuth {
	return &AdminAuth{secret: []byte(secret), logger: logger}
}

// Enabled reports whether a secret is configured.
func (a *AdminAuth) Enabled() bool {
	return len(a.secret) > 0
}

// RequireAdmin validates the Authorization bearer token when the guard is
// enabled.
func (a *AdminAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearer(r)
		if token == "" {
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		_, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			a.logger.Warn("admin token validation failed", zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractBearer pulls the token from the Authorization header.
func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
