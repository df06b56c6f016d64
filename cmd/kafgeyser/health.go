package main

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/kafka"
	"github.com/jittakal/kafgeyser/internal/plugin"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// livenessHandler reports that the process is serving requests.
func livenessHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{
			Status:    "alive",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}, logger)
	}
}

// readinessHandler is ready only while the plugin's publisher is connected.
func readinessHandler(p *plugin.Plugin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := "not loaded"
		if pub := p.Publisher(); pub != nil {
			state = pub.State().String()
		}

		status, statusCode := "ready", http.StatusOK
		if state != kafka.StateConnected.String() {
			status, statusCode = "not ready", http.StatusServiceUnavailable
		}

		writeHealth(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    map[string]string{"publisher": state},
		}, logger)
	}
}

func writeHealth(w http.ResponseWriter, statusCode int, response HealthResponse, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode health response", zap.Error(err))
	}
}
