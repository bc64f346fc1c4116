package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Authorization, Content-Type, If-None-Match, X-Request-Id"
	// clients read the request id for support and the validator for
	// conditional list fetches
	corsExposed = "ETag, Retry-After, X-Request-Id"
	corsMaxAge  = "600"
)

type corsPolicy struct {
	origins  map[string]struct{}
	wildcard bool
}

func (p corsPolicy) allowOrigin(origin string) (string, bool) {
	if _, ok := p.origins[origin]; ok {
		return origin, true
	}
	if p.wildcard {
		return "*", true
	}
	return "", false
}

// CORSMiddleware allows the listed origins. Listed origins may send
// credentials; "*" allows any other origin without them. Preflights are
// answered here and never reach the router.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	p := corsPolicy{origins: make(map[string]struct{}, len(allowedOrigins))}

	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(origin, "/")
		if origin == "*" {
			p.wildcard = true
			continue
		}
		p.origins[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		if len(p.origins) > 0 {
			h.Add("Vary", "Origin")
		}

		allowed, ok := p.allowOrigin(origin)
		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""

		if !ok {
			if preflight {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h.Set("Access-Control-Allow-Origin", allowed)
		if allowed != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Expose-Headers", corsExposed)

		if preflight {
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
