// Package handlers maps the HTTP surface onto the detection service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/threatforge/detection-platform/internal/httputil"
	"github.com/threatforge/detection-platform/internal/models"
	"github.com/threatforge/detection-platform/internal/repository"
	"github.com/threatforge/detection-platform/internal/service"
	"github.com/threatforge/detection-platform/internal/validation"
)

type Handler struct {
	service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Detections handles POST and GET /api/v1/detections.
func (h *Handler) Detections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createDetection(w, r)
	case http.MethodGet:
		h.listDetections(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createDetection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDetectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = r.Header.Get("X-User-ID")
	req.OrgID = r.Header.Get("X-Org-ID")

	d, result, err := h.service.CreateDetection(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"detection":  d,
		"validation": result,
	})
}

func (h *Handler) listDetections(w http.ResponseWriter, r *http.Request) {
	opts := repository.ListOptions{
		Cursor: r.URL.Query().Get("cursor"),
	}

	if p := r.URL.Query().Get("platform"); p != "" {
		platform, err := models.ParsePlatform(p)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "unrecognized platform")
			return
		}
		opts.Platform = platform
	}
	if tags := r.URL.Query().Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				opts.Tags = append(opts.Tags, tag)
			}
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil || n <= 0 {
			httputil.WriteError(w, http.StatusBadRequest, "page_size must be a positive integer")
			return
		}
		opts.PageSize = n
	}

	resp, err := h.service.ListDetections(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// DetectionByID handles GET /api/v1/detections/{id} and
// GET /api/v1/detections/{id}/versions.
func (h *Handler) DetectionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/detections/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		httputil.WriteError(w, http.StatusBadRequest, "detection id is required")
		return
	}

	switch sub {
	case "":
		d, err := h.service.GetDetection(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, d)
	case "versions":
		history, err := h.service.GetVersionHistory(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, history)
	default:
		http.NotFound(w, r)
	}
}

// ValidateContent handles POST /api/v1/detections/validate: a dry-run
// validation that persists nothing.
func (h *Handler) ValidateContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ValidateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.ValidateContent(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var qerr *service.QualityThresholdError
	switch {
	case errors.As(err, &qerr):
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":      "quality score below threshold",
			"score":      qerr.Score,
			"threshold":  qerr.Threshold,
			"validation": qerr.Result,
		})
	case errors.Is(err, validation.ErrInvalidInput),
		errors.Is(err, validation.ErrInvalidPlatform):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrDetectionNotFound):
		httputil.WriteError(w, http.StatusNotFound, "detection not found")
	case errors.Is(err, context.DeadlineExceeded):
		httputil.WriteError(w, http.StatusGatewayTimeout, "operation timed out")
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
