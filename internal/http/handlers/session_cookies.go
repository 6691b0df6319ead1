package handlers

import (
	"net/http"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/http/middlewares"
	"github.com/KerenDoz/Event-Planner/internal/identity"
	"github.com/gin-gonic/gin"
)

const (
	RefreshCookie     = "refresh_token"
	refreshCookiePath = "/account"
)

// CookieConfig is shared by every handler that writes cookies.
type CookieConfig struct {
	Secure bool
}

// setSession writes the access cookie, plus the refresh cookie for
// persistent sessions. A non-persistent session gets a browser-session
// cookie and any stale refresh cookie is dropped.
func (c CookieConfig) setSession(ctx *gin.Context, sess identity.Session) {
	ctx.SetSameSite(http.SameSiteLaxMode)

	maxAge := 0
	if sess.Persistent {
		maxAge = secondsUntil(sess.AccessExpiresAt)
	}
	ctx.SetCookie(middlewares.AccessCookie, sess.AccessToken, maxAge, "/", "", c.Secure, true)

	if sess.Persistent && sess.RefreshToken != "" {
		ctx.SetSameSite(http.SameSiteStrictMode)
		ctx.SetCookie(RefreshCookie, sess.RefreshToken, secondsUntil(sess.RefreshExpiresAt), refreshCookiePath, "", c.Secure, true)
		return
	}

	if !sess.Persistent {
		c.clearRefresh(ctx)
	}
}

func (c CookieConfig) clearSession(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.AccessCookie, "", -1, "/", "", c.Secure, true)
	c.clearRefresh(ctx)
}

func (c CookieConfig) clearRefresh(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(RefreshCookie, "", -1, refreshCookiePath, "", c.Secure, true)
}

func refreshTokenFrom(ctx *gin.Context) string {
	raw, err := ctx.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return raw
}

// the refresh cookie only exists for "remember me" sessions
func persistentSession(ctx *gin.Context) bool {
	return refreshTokenFrom(ctx) != ""
}

func secondsUntil(t time.Time) int {
	s := int(time.Until(t).Seconds())
	if s < 1 {
		return 1
	}
	return s
}
