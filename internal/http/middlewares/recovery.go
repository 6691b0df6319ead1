package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery logs the panic with the request id and answers with a generic
// 500. Nothing about the failure reaches the client.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		reqID, _ := c.Get(CtxRequestID)

		slog.Default().ErrorContext(c.Request.Context(), "panic_recovered",
			"request_id", reqID,
			"route", c.FullPath(),
			"panic", recovered,
		)

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":      "internal_error",
				"message":   "Something went wrong. Please try again later.",
				"requestId": reqID,
			},
		})
	})
}
