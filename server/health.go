package server

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// ReadinessProbe reports whether the bot has completed its first cycle
type ReadinessProbe interface {
	Ready() bool
}

// HealthResponse is the body of the health and readiness endpoints
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is the body of the status endpoint
type StatusResponse struct {
	Ready    bool               `json:"ready"`
	Uptime   string             `json:"uptime"`
	Counters map[string]float64 `json:"counters"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Uptime: time.Since(s.startTime).Truncate(time.Second).String(),
	})
}

// ready returns 503 until the first cycle has completed
func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil && !s.readiness.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "not_ready",
			Message: "first cycle has not completed",
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(s.startTime).Truncate(time.Second).String(),
	})
}
