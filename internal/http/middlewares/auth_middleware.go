package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/fieldops/internal/apperr"
	"github.com/geocoder89/fieldops/internal/auth"
	"github.com/geocoder89/fieldops/internal/authz"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

const ctxSubjectKey = "auth.subject"

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		c.Set(ctxSubjectKey, authz.Subject{UserID: userID, Role: claims.Role})

		c.Next()
	}
}

// Allow gates a route on the role requirement of action. It must run after
// RequireAuth; ownership is checked by the handler once the record is loaded.
func Allow(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := SubjectFromContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		if err := authz.CheckRole(action, subject); err != nil {
			status, code, msg := http.StatusForbidden, "forbidden", "Unauthorized"
			if appErr, ok := apperr.As(err); ok {
				status, code, msg = appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message
			}
			abort(c, status, code, msg)
			return
		}

		c.Next()
	}
}

func SubjectFromContext(c *gin.Context) (authz.Subject, bool) {
	v, ok := c.Get(ctxSubjectKey)
	if !ok {
		return authz.Subject{}, false
	}
	subject, ok := v.(authz.Subject)
	return subject, ok
}
