package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/actorctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	maxRequestIDLen = 128
)

// RequestID adopts the caller's X-Request-Id when it is a sane token and
// mints a uuid otherwise. The id is echoed back, kept on the gin context for
// error envelopes and put on the request context for log records.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Header(requestIDHeader, id)
		c.Set(CtxRequestID, id)
		c.Request = c.Request.WithContext(actorctx.WithRequestID(c.Request.Context(), id))

		c.Next()
	}
}

// validRequestID accepts short printable ASCII without spaces, so an id can
// be logged and echoed in a header as is.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

// RequestLogger writes one record per request once the handlers are done.
// Request and user ids come from the request context, which by then holds
// the authenticated actor.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()

		c.Next()

		status := c.Writer.Status()

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		log.LogAttrs(c.Request.Context(), level, "http_request", attrs...)
	}
}
