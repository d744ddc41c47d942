package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"cellstatus-platform/internal/models"
	"cellstatus-platform/internal/repository"
	"cellstatus-platform/internal/services"
	"cellstatus-platform/pkg/logging"
	"cellstatus-platform/pkg/metrics"
)

// FloorHandler handles machine, operator, maintenance, production and
// audit API endpoints.
type FloorHandler struct {
	floorService *services.FloorService
	logger       *logging.StructuredLogger
	metrics      *metrics.Collector
}

// NewFloorHandler creates a new floor handler
func NewFloorHandler(
	floorService *services.FloorService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *FloorHandler {
	return &FloorHandler{
		floorService: floorService,
		logger:       logger,
		metrics:      metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// pagination parses page/limit query parameters with defaults.
func pagination(r *http.Request) (page, limit, offset int) {
	page = 1
	limit = 100

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	return page, limit, (page - 1) * limit
}

// ListMachines handles GET /api/machines
func (h *FloorHandler) ListMachines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/machines").Observe(time.Since(startTime).Seconds())
	}()

	page, limit, offset := pagination(r)

	machines, total, err := h.floorService.ListMachines(ctx, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_MACHINES_ERROR] Failed to list machines", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/machines")
		sendError(h.metrics, w, r, "failed to retrieve machines", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/machines", "GET", "200")
	sendJSON(w, paginate(machines, total, page, limit), http.StatusOK)
}

// GetMachine handles GET /api/machines/{id}
func (h *FloorHandler) GetMachine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	machineID := mux.Vars(r)["id"]

	machine, err := h.floorService.GetMachine(ctx, machineID)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			sendError(h.metrics, w, r, notFound.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_GET_MACHINE_ERROR] Failed to get machine", logging.Fields{
			"machine_id": machineID,
		}, err)
		sendError(h.metrics, w, r, "failed to retrieve machine", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/machines/{id}", "GET", "200")
	sendJSON(w, machine, http.StatusOK)
}

// CreateMachine handles POST /api/machines
func (h *FloorHandler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var machine models.Machine
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		sendError(h.metrics, w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	if machine.ID == "" || machine.Name == "" {
		sendError(h.metrics, w, r, "machine id and name are required", http.StatusBadRequest)
		return
	}

	if err := h.floorService.CreateMachine(ctx, &machine); err != nil {
		h.logger.Error(ctx, "[API_CREATE_MACHINE_ERROR] Failed to create machine", logging.Fields{
			"machine_id": machine.ID,
		}, err)
		sendError(h.metrics, w, r, "failed to create machine", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/machines", "POST", "201")
	sendJSON(w, machine, http.StatusCreated)
}

// UpdateMachine handles PUT /api/machines/{id}
func (h *FloorHandler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	machineID := mux.Vars(r)["id"]

	var machine models.Machine
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		sendError(h.metrics, w, r, "invalid request body", http.StatusBadRequest)
		return
	}
	machine.ID = machineID

	if err := h.floorService.UpdateMachine(ctx, &machine); err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			sendError(h.metrics, w, r, notFound.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_UPDATE_MACHINE_ERROR] Failed to update machine", logging.Fields{
			"machine_id": machineID,
		}, err)
		sendError(h.metrics, w, r, "failed to update machine", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/machines/{id}", "PUT", "200")
	sendJSON(w, machine, http.StatusOK)
}

// DeleteMachine handles DELETE /api/machines/{id}
func (h *FloorHandler) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	machineID := mux.Vars(r)["id"]

	if err := h.floorService.DeleteMachine(ctx, machineID); err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			sendError(h.metrics, w, r, notFound.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_DELETE_MACHINE_ERROR] Failed to delete machine", logging.Fields{
			"machine_id": machineID,
		}, err)
		sendError(h.metrics, w, r, "failed to delete machine", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/machines/{id}", "DELETE", "204")
	w.WriteHeader(http.StatusNoContent)
}

// ListOperators handles GET /api/operators
func (h *FloorHandler) ListOperators(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, offset := pagination(r)

	operators, total, err := h.floorService.ListOperators(ctx, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_OPERATORS_ERROR] Failed to list operators", logging.Fields{}, err)
		sendError(h.metrics, w, r, "failed to retrieve operators", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/operators", "GET", "200")
	sendJSON(w, paginate(operators, total, page, limit), http.StatusOK)
}

// CreateOperator handles POST /api/operators
func (h *FloorHandler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var op models.Operator
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		sendError(h.metrics, w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	if op.ID == "" || op.Name == "" {
		sendError(h.metrics, w, r, "operator id and name are required", http.StatusBadRequest)
		return
	}

	if err := h.floorService.CreateOperator(ctx, &op); err != nil {
		h.logger.Error(ctx, "[API_CREATE_OPERATOR_ERROR] Failed to create operator", logging.Fields{
			"operator_id": op.ID,
		}, err)
		sendError(h.metrics, w, r, "failed to create operator", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/operators", "POST", "201")
	sendJSON(w, op, http.StatusCreated)
}

// ListMaintenanceLogs handles GET /api/maintenance
func (h *FloorHandler) ListMaintenanceLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, offset := pagination(r)

	filter := repository.MaintenanceFilter{Limit: limit, Offset: offset}

	if machineID := r.URL.Query().Get("machine_id"); machineID != "" {
		filter.MachineID = &machineID
	}

	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		since, err := time.Parse("2006-01-02", sinceStr)
		if err != nil {
			sendError(h.metrics, w, r, "invalid since date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.Since = &since
	}

	logs, total, err := h.floorService.ListMaintenanceLogs(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_MAINTENANCE_ERROR] Failed to list maintenance logs", logging.Fields{}, err)
		sendError(h.metrics, w, r, "failed to retrieve maintenance logs", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/maintenance", "GET", "200")
	sendJSON(w, paginate(logs, total, page, limit), http.StatusOK)
}

// CreateMaintenanceLog handles POST /api/maintenance
func (h *FloorHandler) CreateMaintenanceLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var log models.MaintenanceLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		sendError(h.metrics, w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	if log.MachineID == "" || log.Description == "" {
		sendError(h.metrics, w, r, "machine_id and description are required", http.StatusBadRequest)
		return
	}

	if err := h.floorService.CreateMaintenanceLog(ctx, &log); err != nil {
		h.logger.Error(ctx, "[API_CREATE_MAINTENANCE_ERROR] Failed to create maintenance log", logging.Fields{
			"machine_id": log.MachineID,
		}, err)
		sendError(h.metrics, w, r, "failed to create maintenance log", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/maintenance", "POST", "201")
	sendJSON(w, log, http.StatusCreated)
}

// ListProductionRecords handles GET /api/production
func (h *FloorHandler) ListProductionRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, offset := pagination(r)

	filter := repository.ProductionFilter{Limit: limit, Offset: offset}

	if machineID := r.URL.Query().Get("machine_id"); machineID != "" {
		filter.MachineID = &machineID
	}

	if startStr := r.URL.Query().Get("start_day"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			sendError(h.metrics, w, r, "invalid start_day, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDay = &start
	}

	if endStr := r.URL.Query().Get("end_day"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			sendError(h.metrics, w, r, "invalid end_day, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDay = &end
	}

	records, total, err := h.floorService.ListProductionRecords(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_PRODUCTION_ERROR] Failed to list production records", logging.Fields{}, err)
		sendError(h.metrics, w, r, "failed to retrieve production records", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/production", "GET", "200")
	sendJSON(w, paginate(records, total, page, limit), http.StatusOK)
}

// CreateProductionRecord handles POST /api/production
func (h *FloorHandler) CreateProductionRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rec models.ProductionRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		sendError(h.metrics, w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	if rec.MachineID == "" {
		sendError(h.metrics, w, r, "machine_id is required", http.StatusBadRequest)
		return
	}

	if err := h.floorService.CreateProductionRecord(ctx, &rec); err != nil {
		h.logger.Error(ctx, "[API_CREATE_PRODUCTION_ERROR] Failed to create production record", logging.Fields{
			"machine_id": rec.MachineID,
		}, err)
		sendError(h.metrics, w, r, "failed to create production record", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/production", "POST", "201")
	sendJSON(w, rec, http.StatusCreated)
}

// ListAuditFindings handles GET /api/findings
func (h *FloorHandler) ListAuditFindings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, offset := pagination(r)

	findings, total, err := h.floorService.ListAuditFindings(ctx, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_FINDINGS_ERROR] Failed to list audit findings", logging.Fields{}, err)
		sendError(h.metrics, w, r, "failed to retrieve audit findings", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/findings", "GET", "200")
	sendJSON(w, paginate(findings, total, page, limit), http.StatusOK)
}

// CreateAuditFinding handles POST /api/findings
func (h *FloorHandler) CreateAuditFinding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var finding models.AuditFinding
	if err := json.NewDecoder(r.Body).Decode(&finding); err != nil {
		sendError(h.metrics, w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	if finding.Finding == "" {
		sendError(h.metrics, w, r, "finding text is required", http.StatusBadRequest)
		return
	}

	if err := h.floorService.CreateAuditFinding(ctx, &finding); err != nil {
		h.logger.Error(ctx, "[API_CREATE_FINDING_ERROR] Failed to create audit finding", logging.Fields{}, err)
		sendError(h.metrics, w, r, "failed to create audit finding", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/findings", "POST", "201")
	sendJSON(w, finding, http.StatusCreated)
}

// HealthCheck handles GET /health
func (h *FloorHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	sendJSON(w, status, http.StatusOK)
}

// RegisterRoutes registers all floor API routes
func (h *FloorHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/machines", h.ListMachines).Methods("GET")
	router.HandleFunc("/api/machines", h.CreateMachine).Methods("POST")
	router.HandleFunc("/api/machines/{id}", h.GetMachine).Methods("GET")
	router.HandleFunc("/api/machines/{id}", h.UpdateMachine).Methods("PUT")
	router.HandleFunc("/api/machines/{id}", h.DeleteMachine).Methods("DELETE")
	router.HandleFunc("/api/operators", h.ListOperators).Methods("GET")
	router.HandleFunc("/api/operators", h.CreateOperator).Methods("POST")
	router.HandleFunc("/api/maintenance", h.ListMaintenanceLogs).Methods("GET")
	router.HandleFunc("/api/maintenance", h.CreateMaintenanceLog).Methods("POST")
	router.HandleFunc("/api/production", h.ListProductionRecords).Methods("GET")
	router.HandleFunc("/api/production", h.CreateProductionRecord).Methods("POST")
	router.HandleFunc("/api/findings", h.ListAuditFindings).Methods("GET")
	router.HandleFunc("/api/findings", h.CreateAuditFinding).Methods("POST")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

// sendJSON sends a JSON response
func sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func sendError(m *metrics.Collector, w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	m.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	sendJSON(w, response, statusCode)
}

// paginate wraps a result page in the standard envelope
func paginate(data interface{}, total, page, limit int) PaginatedResponse {
	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}
