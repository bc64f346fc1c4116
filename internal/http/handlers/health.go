package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
	log   *slog.Logger
}

// create a new instance of the health handler
func NewHealthHandler(store Pinger, log *slog.Logger) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{store: store, log: log}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports ready only while the store answers a ping.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.store == nil {
		ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	pctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	if err := h.store.Ping(pctx); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "readiness check failed", "err", err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
