package middlewares

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

const (
	CSRFCookie    = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
	CSRFFormField = "_csrf"
)

type CSRFOptions struct {
	// 32 bytes; signs the token cookie
	AuthKey []byte
	Secure  bool
	// browser origins allowed to post cross-site, e.g. "http://localhost:3000"
	TrustedOrigins []string
}

// CSRF guards unsafe requests with gorilla/csrf. The real token lives in a
// signed HttpOnly cookie; clients echo the masked token from GET /csrf in the
// X-CSRF-Token header or the _csrf form field. Requests authenticated only by
// a bearer header carry no ambient credentials and are exempt.
func CSRF(opts CSRFOptions) gin.HandlerFunc {
	protect := csrf.Protect(opts.AuthKey,
		csrf.CookieName(CSRFCookie),
		csrf.RequestHeader(CSRFHeader),
		csrf.FieldName(CSRFFormField),
		csrf.Path("/"),
		csrf.Secure(opts.Secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(originHosts(opts.TrustedOrigins)),
		// the gin side writes the error envelope
		csrf.ErrorHandler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})),
	)

	return func(c *gin.Context) {
		if bearerOnly(c) {
			c.Next()
			return
		}

		req := c.Request
		if !opts.Secure {
			// no TLS in dev and tests, so skip the HTTPS referer check
			req = csrf.PlaintextHTTPRequest(req)
		}

		passed := false
		protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, req)

		if !passed {
			reqID, _ := c.Get(CtxRequestID)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":      "csrf_invalid",
					"message":   "Missing or invalid anti-forgery token",
					"requestId": reqID,
				},
			})
			return
		}

		c.Next()
	}
}

// CSRFTokenFromContext returns the masked token to echo on the next unsafe
// request. Empty for bearer-only requests.
func CSRFTokenFromContext(c *gin.Context) string {
	return csrf.Token(c.Request)
}

// gorilla/csrf compares origins by host
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		out = append(out, u.Host)
	}
	return out
}

func bearerOnly(c *gin.Context) bool {
	_, bearer := accessToken(c)
	if !bearer {
		return false
	}
	_, err := c.Cookie(AccessCookie)
	return err != nil
}
