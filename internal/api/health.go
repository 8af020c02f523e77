package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"label-cabinet/backstage/internal/models/entities"
)

// HealthCheckHandler handles GET /healthCheck
//
// @Summary Health check
// @Description Verifies the server and its backing services are reachable.
// @Tags Misc
// @Success 200 {object} entities.HealthCheckResponse
// @Failure 503 {object} entities.HealthCheckResponse
// @Router /healthCheck [get]
func (h *Handlers) HealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		services := make(map[string]entities.ServiceStatus)

		// Check postgres
		pgstatus := "ok"
		pgDetails := "Postgres Connected"
		if err := h.deps.DB.PingContext(ctx); err != nil {
			pgstatus = "down"
			pgDetails = err.Error()
		}
		services["postgres"] = entities.ServiceStatus{
			Status:  pgstatus,
			Details: pgDetails,
		}

		if h.deps.Redis != nil {
			redisStatus := "ok"
			redisDetails := "Redis Connected"
			if err := h.deps.Redis.Ping(ctx).Err(); err != nil {
				redisStatus = "down"
				redisDetails = err.Error()
			}
			services["redis"] = entities.ServiceStatus{
				Status:  redisStatus,
				Details: redisDetails,
			}
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		uptime := time.Since(h.deps.UpSince).Round(time.Second).String()

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  h.deps.UpSince,
			Uptime:   uptime,
		}
		w.Header().Set("Content-Type", "application/json")
		if overallStatus != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
