// Package handler holds the HTTP handlers behind the admin API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api/response"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is anything whose connectivity can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one dependency reported by the health endpoint.
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

// NewHealthHandler reports "ok" per dependency, or 503 with the degraded ones.
func NewHealthHandler(version string, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		services := make(map[string]string, len(checks))
		degraded := false
		for _, c := range checks {
			services[c.Name] = "ok"
			if err := c.Pinger.Ping(ctx); err != nil {
				services[c.Name] = "degraded"
				degraded = true
			}
		}

		if degraded {
			response.Error(w, http.StatusServiceUnavailable, response.CodeDegraded,
				"One or more services degraded", services)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"version":  version,
			"services": services,
		})
	}
}
