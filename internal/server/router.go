// Package server assembles the HTTP router for the detection service.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threatforge/detection-platform/internal/handlers"
	"github.com/threatforge/detection-platform/internal/middleware"
)

// NewRouter wires the handler's routes onto a ServeMux behind the request-id
// middleware.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/detections", h.Detections)
	mux.HandleFunc("/api/v1/detections/validate", h.ValidateContent)
	mux.HandleFunc("/api/v1/detections/", h.DetectionByID)

	return middleware.RequestID(mux)
}
