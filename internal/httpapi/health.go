package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status string `json:"status"` // ok|degraded
	Redis  string `json:"redis"`  // up|down
}

// HealthHandler reports liveness plus the state of the Redis dependency.
// A down store degrades the service (rate limiting fails open, sharing is
// unavailable) but does not stop chat, so the endpoint stays 200.
type HealthHandler struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
}

func NewHealthHandler(rdb redis.UniversalClient, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{rdb: rdb, logger: logger}
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.handleHealth)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Redis: "up"}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		resp.Status = "degraded"
		resp.Redis = "down"
		h.logger.Warn("redis health check failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}
