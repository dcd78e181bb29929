package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/notification-service/internal/realtime"
)

// HealthCheckFunc checks one dependency.
type HealthCheckFunc func(ctx context.Context) error

type HealthHandler struct {
	checks   map[string]HealthCheckFunc
	registry *realtime.Manager
}

func NewHealthHandler(checks map[string]HealthCheckFunc, registry *realtime.Manager) *HealthHandler {
	return &HealthHandler{checks: checks, registry: registry}
}

// Health reports dependency status and the number of live connections
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			components[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	body := gin.H{
		"status":     overall,
		"service":    "notification-service",
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if h.registry != nil {
		body["live_connections"] = h.registry.Count()
	}

	c.JSON(status, body)
}
