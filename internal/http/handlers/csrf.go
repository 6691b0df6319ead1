package handlers

import (
	"net/http"

	"github.com/KerenDoz/Event-Planner/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// CSRFToken hands out the masked anti-forgery token. The signing cookie is
// HttpOnly, so every client fetches the token here before posting.
func CSRFToken(ctx *gin.Context) {
	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, gin.H{
		"token":  middlewares.CSRFTokenFromContext(ctx),
		"header": middlewares.CSRFHeader,
	})
}
