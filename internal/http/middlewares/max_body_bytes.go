package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies at limit bytes. A declared Content-Length
// over the cap is refused with 413 before any handler runs. Bodies of
// unknown length are cut off by the reader, and the JSON binder reports the
// overflow with the same 413.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			abortError(c, http.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("Request body must be at most %d bytes", limit))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		c.Next()
	}
}
