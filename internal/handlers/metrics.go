package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/jhalickman/live-poll/internal/services"
)

// HandleMetrics returns coordinator metrics.
func HandleMetrics(metrics *services.Metrics, registry *services.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snapshot := metrics.Snapshot(registry)
		return e.JSON(http.StatusOK, snapshot)
	}
}

// HandleHealth returns coordinator health status.
func HandleHealth(metrics *services.Metrics, registry *services.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snapshot := metrics.Snapshot(registry)

		status := http.StatusOK
		if snapshot.HealthStatus == "critical" {
			status = http.StatusServiceUnavailable
		}

		response := map[string]interface{}{
			"status":             snapshot.HealthStatus,
			"active_connections": snapshot.ActiveConnections,
			"active_rooms":       snapshot.ActiveRooms,
			"uptime_seconds":     snapshot.UptimeSeconds,
		}

		return e.JSON(status, response)
	}
}
