package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects request bodies that are not JSON. Requests without a
// body (logout, deletes) pass whatever their method.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if hasBody(c.Request) && !isJSONMediaType(c.GetHeader("Content-Type")) {
			abortError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
			return
		}
		c.Next()
	}
}

func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}

// isJSONMediaType accepts application/json and structured +json types,
// with any parameters.
func isJSONMediaType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || (strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}
