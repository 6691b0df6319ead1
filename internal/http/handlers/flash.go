package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const flashSession = "flash_notice"

// Flashes installs the client-side session that carries one-shot notices
// between a refused delete and the next listing. key signs the cookie.
func Flashes(key []byte, secure bool) gin.HandlerFunc {
	store := cookie.NewStore(key)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   60,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return sessions.Sessions(flashSession, store)
}

func setFlash(ctx *gin.Context, message string) {
	s := sessions.Default(ctx)
	s.AddFlash(message)
	if err := s.Save(); err != nil {
		_ = ctx.Error(err)
	}
}

// takeFlash returns the newest pending notice and drops the rest.
func takeFlash(ctx *gin.Context) string {
	s := sessions.Default(ctx)

	flashes := s.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := s.Save(); err != nil {
		_ = ctx.Error(err)
	}

	msg, _ := flashes[len(flashes)-1].(string)
	return msg
}
