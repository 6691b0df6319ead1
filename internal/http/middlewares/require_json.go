package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects request bodies other than JSON. A urlencoded form is
// also let through so plain HTML forms can post logout and delete
// confirmations with a _csrf field. Bodyless POSTs pass.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasBody(c.Request) {
			c.Next()
			return
		}

		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err == nil && (mediaType == "application/json" || mediaType == "application/x-www-form-urlencoded") {
			c.Next()
			return
		}

		reqID, _ := c.Get(CtxRequestID)
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error": gin.H{
				"code":      "unsupported_media_type",
				"message":   "Content-Type must be application/json",
				"requestId": reqID,
			},
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}
