package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"cellstatus-platform/internal/models"
	"cellstatus-platform/internal/repository"
	"cellstatus-platform/internal/report"
	"cellstatus-platform/internal/services"
	"cellstatus-platform/internal/spc"
	"cellstatus-platform/pkg/logging"
	"cellstatus-platform/pkg/metrics"
)

// SpcHandler handles SPC statistics, report and export endpoints
type SpcHandler struct {
	spcService *services.SpcService
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewSpcHandler creates a new SPC handler
func NewSpcHandler(spcService *services.SpcService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SpcHandler {
	return &SpcHandler{
		spcService: spcService,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// SpcStatsDTO is the wire shape for statistics. Undefined indices are
// NaN inside the engine; JSON cannot carry NaN, so they become null
// here and the UI renders the placeholder.
type SpcStatsDTO struct {
	N        int      `json:"n"`
	Mean     float64  `json:"mean"`
	StdDev   float64  `json:"stdDev"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Range    float64  `json:"range"`
	Cp       *float64 `json:"cp"`
	Cpk      *float64 `json:"cpk"`
	Pp       *float64 `json:"pp"`
	Ppk      *float64 `json:"ppk"`
	Nominal  *float64 `json:"nominal"`
	OutOfTol int      `json:"outOfTol"`
}

// finiteOrNil maps a non-finite value onto a JSON null.
func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// toDTO converts engine statistics to the wire shape.
func toDTO(stats *spc.Stats) *SpcStatsDTO {
	if stats == nil {
		return nil
	}
	return &SpcStatsDTO{
		N:        stats.N,
		Mean:     stats.Mean,
		StdDev:   stats.StdDev,
		Min:      stats.Min,
		Max:      stats.Max,
		Range:    stats.Range,
		Cp:       finiteOrNil(stats.Cp),
		Cpk:      finiteOrNil(stats.Cpk),
		Pp:       finiteOrNil(stats.Pp),
		Ppk:      finiteOrNil(stats.Ppk),
		Nominal:  finiteOrNil(stats.Nominal),
		OutOfTol: stats.OutOfTol,
	}
}

// groupFromRequest resolves the characteristic group addressed by the
// request's query parameters.
func (h *SpcHandler) groupFromRequest(w http.ResponseWriter, r *http.Request) (*services.SpcGroup, bool) {
	ctx := r.Context()

	partNumber := r.URL.Query().Get("part_number")
	characteristic := r.URL.Query().Get("characteristic")
	if partNumber == "" || characteristic == "" {
		sendError(h.metrics, w, r, "part_number and characteristic are required", http.StatusBadRequest)
		return nil, false
	}

	filter := repository.MeasurementFilter{}

	if machineID := r.URL.Query().Get("machine_id"); machineID != "" {
		filter.MachineID = &machineID
	}

	if startStr := r.URL.Query().Get("start"); startStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			sendError(h.metrics, w, r, "invalid start, expected RFC 3339", http.StatusBadRequest)
			return nil, false
		}
		filter.Start = &start
	}

	if endStr := r.URL.Query().Get("end"); endStr != "" {
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			sendError(h.metrics, w, r, "invalid end, expected RFC 3339", http.StatusBadRequest)
			return nil, false
		}
		filter.End = &end
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = l
		}
	}

	group, err := h.spcService.ComputeGroup(ctx, partNumber, characteristic, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_SPC_ERROR] Failed to compute characteristic group", logging.Fields{
			"part_number":    partNumber,
			"characteristic": characteristic,
		}, err)
		h.metrics.RecordAPIError("internal_error", r.URL.Path)
		sendError(h.metrics, w, r, "failed to compute SPC statistics", http.StatusInternalServerError)
		return nil, false
	}

	return group, true
}

// GetStats handles GET /api/spc/stats
func (h *SpcHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/spc/stats").Observe(time.Since(startTime).Seconds())
	}()

	group, ok := h.groupFromRequest(w, r)
	if !ok {
		return
	}

	response := map[string]interface{}{
		"part_number":    group.PartNumber,
		"characteristic": group.Characteristic,
		"limits":         group.Limits,
		"stats":          toDTO(group.Stats),
		"histogram":      group.Histogram,
		"runChart":       group.RunChart,
		"samples":        len(group.Samples),
	}

	h.metrics.RecordAPIRequest("/api/spc/stats", "GET", "200")
	sendJSON(w, response, http.StatusOK)
}

// GetReport handles GET /api/spc/report, returning a standalone
// printable HTML page.
func (h *SpcHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	group, ok := h.groupFromRequest(w, r)
	if !ok {
		return
	}

	html, err := report.Build(group)
	if err != nil {
		h.logger.Error(ctx, "[API_SPC_REPORT_ERROR] Failed to build report", logging.Fields{
			"part_number":    group.PartNumber,
			"characteristic": group.Characteristic,
		}, err)
		sendError(h.metrics, w, r, "failed to build report", http.StatusInternalServerError)
		return
	}

	h.metrics.ReportBuildDuration.Observe(time.Since(startTime).Seconds())
	h.metrics.RecordAPIRequest("/api/spc/report", "GET", "200")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// ExportCSV handles GET /api/spc/export, streaming the group's samples
// as CSV.
func (h *SpcHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	group, ok := h.groupFromRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_%s.csv"`, group.PartNumber, group.Characteristic))

	writer := csv.NewWriter(w)
	writer.Write([]string{"machine_id", "part_number", "characteristic", "value", "measured_at", "note"})

	for _, sample := range group.Samples {
		note := ""
		if sample.Note != nil {
			note = *sample.Note
		}
		writer.Write([]string{
			sample.MachineID,
			sample.PartNumber,
			sample.Characteristic,
			strconv.FormatFloat(sample.Value, 'g', -1, 64),
			sample.MeasuredAt.Format(time.RFC3339),
			note,
		})
	}

	writer.Flush()
	h.metrics.RecordAPIRequest("/api/spc/export", "GET", "200")
}

// GetLimits handles GET /api/spc/limits, returning the stored bounds
// verbatim (a stored lower limit of 0 is returned as-is).
func (h *SpcHandler) GetLimits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	partNumber := r.URL.Query().Get("part_number")
	characteristic := r.URL.Query().Get("characteristic")
	if partNumber == "" || characteristic == "" {
		sendError(h.metrics, w, r, "part_number and characteristic are required", http.StatusBadRequest)
		return
	}

	limits, err := h.spcService.GetLimits(ctx, partNumber, characteristic)
	if err != nil {
		h.logger.Error(ctx, "[API_SPC_LIMITS_ERROR] Failed to get limits", logging.Fields{
			"part_number":    partNumber,
			"characteristic": characteristic,
		}, err)
		sendError(h.metrics, w, r, "failed to retrieve limits", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/spc/limits", "GET", "200")
	sendJSON(w, limits, http.StatusOK)
}

// SetLimits handles PUT /api/spc/limits
func (h *SpcHandler) SetLimits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	partNumber := r.URL.Query().Get("part_number")
	characteristic := r.URL.Query().Get("characteristic")
	if partNumber == "" || characteristic == "" {
		sendError(h.metrics, w, r, "part_number and characteristic are required", http.StatusBadRequest)
		return
	}

	var limits models.SpecLimits
	if err := json.NewDecoder(r.Body).Decode(&limits); err != nil {
		sendError(h.metrics, w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	if limits.USL != nil && limits.LSL != nil && *limits.USL < *limits.LSL {
		sendError(h.metrics, w, r, "usl must not be below lsl", http.StatusBadRequest)
		return
	}

	if err := h.spcService.SetLimits(ctx, partNumber, characteristic, limits); err != nil {
		h.logger.Error(ctx, "[API_SPC_LIMITS_ERROR] Failed to store limits", logging.Fields{
			"part_number":    partNumber,
			"characteristic": characteristic,
		}, err)
		sendError(h.metrics, w, r, "failed to store limits", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/spc/limits", "PUT", "200")
	sendJSON(w, limits, http.StatusOK)
}

// RegisterRoutes registers all SPC API routes
func (h *SpcHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/spc/stats", h.GetStats).Methods("GET")
	router.HandleFunc("/api/spc/report", h.GetReport).Methods("GET")
	router.HandleFunc("/api/spc/export", h.ExportCSV).Methods("GET")
	router.HandleFunc("/api/spc/limits", h.GetLimits).Methods("GET")
	router.HandleFunc("/api/spc/limits", h.SetLimits).Methods("PUT")
}
