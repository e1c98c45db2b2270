package handler

import (
	"context"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status string            `json:"status"`
	Failed map[string]string `json:"failed,omitempty"`
}

// Health reports process liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Readiness builds a handler that pings every backing store. Any
// failing store turns the endpoint 503 and names the store in the body.
func Readiness(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := make(map[string]string)
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			JSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "degraded",
				Failed: failed,
			})
			return
		}

		JSON(w, http.StatusOK, HealthResponse{
			Status: "ok",
		})
	}
}
