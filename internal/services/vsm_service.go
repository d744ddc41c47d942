package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cellstatus-platform/internal/models"
	"cellstatus-platform/internal/repository"
	"cellstatus-platform/internal/vsm"
	"cellstatus-platform/pkg/logging"
	"cellstatus-platform/pkg/metrics"
)

// VsmService computes value-stream metrics from ad-hoc documents or
// saved configurations. The engine itself is pure; the service owns
// boundary validation, persistence and observability.
type VsmService struct {
	repo    repository.FloorRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewVsmService creates a new value stream service
func NewVsmService(repo repository.FloorRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *VsmService {
	return &VsmService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Compute validates a document and runs the metrics engine over it.
func (s *VsmService) Compute(ctx context.Context, doc *models.VsmDocument, opts vsm.Options) (*vsm.Result, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if opts.RawMaterialUPH == 0 {
		opts.RawMaterialUPH = doc.RawMaterialUPH
	}

	startTime := time.Now()
	result := vsm.ComputeMetrics(doc.Stations, opts)
	duration := time.Since(startTime)

	s.metrics.VsmComputeDuration.Observe(duration.Seconds())
	s.metrics.VsmStationsPerRun.Observe(float64(len(doc.Stations)))

	s.logger.Info(ctx, "[VSM_COMPUTE] Value stream metrics computed", logging.Fields{
		"stations":     result.Summary.Stations,
		"bottleneck":   result.Summary.BottleneckName,
		"grouped_wait": opts.GroupedWait,
		"duration_ms":  duration.Milliseconds(),
	})

	return &result, nil
}

// SaveConfig validates and persists a named value stream configuration.
func (s *VsmService) SaveConfig(ctx context.Context, name string, doc *models.VsmDocument) (*models.VsmConfig, error) {
	if name == "" {
		return nil, &models.ValidationError{
			Field:   "name",
			Message: "configuration name must not be empty",
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode vsm document: %w", err)
	}

	now := time.Now().UTC()
	cfg := &models.VsmConfig{
		Name:      name,
		Document:  string(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.SaveVsmConfig(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[VSM_CONFIG_SAVED] Value stream configuration saved", logging.Fields{
		"name":     name,
		"stations": len(doc.Stations),
	})

	return cfg, nil
}

// LoadConfig fetches a saved configuration and decodes its document.
func (s *VsmService) LoadConfig(ctx context.Context, name string) (*models.VsmDocument, error) {
	cfg, err := s.repo.GetVsmConfig(ctx, name)
	if err != nil {
		return nil, err
	}

	var doc models.VsmDocument
	if err := json.Unmarshal([]byte(cfg.Document), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode vsm document %q: %w", name, err)
	}

	return &doc, nil
}

// ListConfigs lists saved configurations.
func (s *VsmService) ListConfigs(ctx context.Context, limit, offset int) ([]*models.VsmConfig, error) {
	return s.repo.ListVsmConfigs(ctx, limit, offset)
}
