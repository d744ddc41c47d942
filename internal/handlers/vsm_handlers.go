package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"cellstatus-platform/internal/models"
	"cellstatus-platform/internal/repository"
	"cellstatus-platform/internal/services"
	"cellstatus-platform/internal/vsm"
	"cellstatus-platform/pkg/logging"
	"cellstatus-platform/pkg/metrics"
)

// VsmHandler handles value stream map API endpoints
type VsmHandler struct {
	vsmService *services.VsmService
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewVsmHandler creates a new VSM handler
func NewVsmHandler(vsmService *services.VsmService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *VsmHandler {
	return &VsmHandler{
		vsmService: vsmService,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// Compute handles POST /api/vsm/compute. The body is the interchange
// document: stations plus optional operation names and raw material
// feed rate. The grouped_wait query flag switches idle time to
// process-step-group adjacency.
func (h *VsmHandler) Compute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/vsm/compute").Observe(time.Since(startTime).Seconds())
	}()

	var doc models.VsmDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		sendError(h.metrics, w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	opts := vsm.Options{
		GroupedWait: r.URL.Query().Get("grouped_wait") == "true",
	}

	result, err := h.vsmService.Compute(ctx, &doc, opts)
	if err != nil {
		if isValidation(err) {
			sendError(h.metrics, w, r, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error(ctx, "[API_VSM_COMPUTE_ERROR] Failed to compute metrics", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/vsm/compute")
		sendError(h.metrics, w, r, "failed to compute value stream metrics", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/vsm/compute", "POST", "200")
	sendJSON(w, result, http.StatusOK)
}

// SaveConfig handles POST /api/vsm/configs/{name}
func (h *VsmHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	var doc models.VsmDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		sendError(h.metrics, w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	cfg, err := h.vsmService.SaveConfig(ctx, name, &doc)
	if err != nil {
		if isValidation(err) {
			sendError(h.metrics, w, r, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error(ctx, "[API_VSM_SAVE_ERROR] Failed to save configuration", logging.Fields{
			"name": name,
		}, err)
		sendError(h.metrics, w, r, "failed to save configuration", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/vsm/configs/{name}", "POST", "201")
	sendJSON(w, cfg, http.StatusCreated)
}

// GetConfig handles GET /api/vsm/configs/{name}, returning the stored
// document together with freshly computed metrics.
func (h *VsmHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	doc, err := h.vsmService.LoadConfig(ctx, name)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			sendError(h.metrics, w, r, notFound.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_VSM_GET_ERROR] Failed to load configuration", logging.Fields{
			"name": name,
		}, err)
		sendError(h.metrics, w, r, "failed to load configuration", http.StatusInternalServerError)
		return
	}

	opts := vsm.Options{
		GroupedWait: r.URL.Query().Get("grouped_wait") == "true",
	}

	result, err := h.vsmService.Compute(ctx, doc, opts)
	if err != nil {
		h.logger.Error(ctx, "[API_VSM_GET_ERROR] Failed to compute metrics for stored configuration", logging.Fields{
			"name": name,
		}, err)
		sendError(h.metrics, w, r, "stored configuration is invalid", http.StatusUnprocessableEntity)
		return
	}

	h.metrics.RecordAPIRequest("/api/vsm/configs/{name}", "GET", "200")
	sendJSON(w, map[string]interface{}{
		"document": doc,
		"result":   result,
	}, http.StatusOK)
}

// ListConfigs handles GET /api/vsm/configs
func (h *VsmHandler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, offset := pagination(r)

	configs, err := h.vsmService.ListConfigs(ctx, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_VSM_LIST_ERROR] Failed to list configurations", logging.Fields{}, err)
		sendError(h.metrics, w, r, "failed to list configurations", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/vsm/configs", "GET", "200")
	sendJSON(w, paginate(configs, len(configs), page, limit), http.StatusOK)
}

// RegisterRoutes registers all VSM API routes
func (h *VsmHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/vsm/compute", h.Compute).Methods("POST")
	router.HandleFunc("/api/vsm/configs", h.ListConfigs).Methods("GET")
	router.HandleFunc("/api/vsm/configs/{name}", h.GetConfig).Methods("GET")
	router.HandleFunc("/api/vsm/configs/{name}", h.SaveConfig).Methods("POST")
}

// isValidation reports whether err is (or wraps) a validation error.
func isValidation(err error) bool {
	var validation *models.ValidationError
	return errors.As(err, &validation)
}
