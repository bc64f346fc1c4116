package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/todohub/internal/actorctx"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
	log *slog.Logger
}

func NewAuthMiddleware(jwt TokenVerifier, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{jwt: jwt, log: log}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.Verify(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				abortError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
				return
			}
			m.log.ErrorContext(c.Request.Context(), "token verification failed", "err", err)
			abortError(c, http.StatusInternalServerError, "internal_error", "Could not verify access token")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxClaimsKey, claims)

		c.Request = c.Request.WithContext(actorctx.With(c.Request.Context(), actorctx.Actor{
			UserID:   claims.UserID,
			Username: claims.Username,
		}))

		c.Next()
	}
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

func UsernameFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUsername)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// SetIdentity is used by tests to skip token verification.
func SetIdentity(c *gin.Context, userID int64, username string) {
	c.Set(ctxUserIDKey, userID)
	c.Set(ctxUsername, username)
}
