package middlewares

import (
	"net/http"
	"strings"

	"github.com/KerenDoz/Event-Planner/internal/actorctx"
	"github.com/KerenDoz/Event-Planner/internal/auth"
	"github.com/gin-gonic/gin"
)

// AccessCookie holds the access JWT for browser sessions.
const AccessCookie = "access_token"

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

// RequireAuth rejects requests without a valid access token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := accessToken(c)
		if raw == "" {
			abortUnauthorized(c, "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired access token")
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, _ := accessToken(c); raw != "" {
			if claims, err := m.jwt.VerifyAccessToken(raw); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	reqID, _ := c.Get(CtxRequestID)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":      "unauthorized",
			"message":   message,
			"requestId": reqID,
		},
	})
}

// accessToken prefers the Authorization header over the cookie. bearer
// reports which one was used.
func accessToken(c *gin.Context) (raw string, bearer bool) {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), true
	}

	if v, err := c.Cookie(AccessCookie); err == nil {
		return v, false
	}
	return "", false
}

// Stash useful bits of identity on the context
func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUsername, claims.Username)
	c.Set(CtxEmail, claims.Email)

	c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), claims.UserID))
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func UsernameFromContext(c *gin.Context) string {
	return c.GetString(CtxUsername)
}
