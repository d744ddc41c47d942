package services

import (
	"context"
	"time"

	"cellstatus-platform/internal/chart"
	"cellstatus-platform/internal/models"
	"cellstatus-platform/internal/repository"
	"cellstatus-platform/internal/spc"
	"cellstatus-platform/pkg/logging"
	"cellstatus-platform/pkg/metrics"
)

// Default canvas for generated run charts, in SVG user units.
const (
	runChartWidth  = 720
	runChartHeight = 240
)

// SpcGroup bundles everything the presentation layer needs for one
// characteristic: the raw samples, derived statistics, spec limits and
// chart-ready series. Stats is nil when no samples matched.
type SpcGroup struct {
	PartNumber     string                     `json:"part_number"`
	Characteristic string                     `json:"characteristic"`
	Samples        []models.MeasurementSample `json:"samples"`
	Limits         models.SpecLimits          `json:"limits"`
	Stats          *spc.Stats                 `json:"stats"`
	Histogram      []chart.Bin                `json:"histogram"`
	RunChart       chart.RunChartSeries       `json:"runChart"`
}

// SpcService assembles SPC statistics and chart series for measurement
// groups.
type SpcService struct {
	repo    repository.FloorRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSpcService creates a new SPC service
func NewSpcService(repo repository.FloorRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SpcService {
	return &SpcService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// SetLimits stores the tolerance bounds for a characteristic. Limits
// are stored verbatim; the lower-limit-zero convention is applied on
// read, not on write.
func (s *SpcService) SetLimits(ctx context.Context, partNumber, characteristic string, limits models.SpecLimits) error {
	if err := s.repo.UpsertSpecLimits(ctx, partNumber, characteristic, limits); err != nil {
		return err
	}

	s.logger.Info(ctx, "[SPC_LIMITS_SET] Specification limits stored", logging.Fields{
		"part_number":    partNumber,
		"characteristic": characteristic,
	})

	return nil
}

// GetLimits fetches the stored tolerance bounds for a characteristic.
func (s *SpcService) GetLimits(ctx context.Context, partNumber, characteristic string) (models.SpecLimits, error) {
	return s.repo.GetSpecLimits(ctx, partNumber, characteristic)
}

// ComputeGroup fetches samples for one (part, characteristic) group,
// normalizes the spec limits and derives statistics plus chart series.
// A group with no samples comes back with nil Stats and empty series,
// not an error.
func (s *SpcService) ComputeGroup(ctx context.Context, partNumber, characteristic string, filter repository.MeasurementFilter) (*SpcGroup, error) {
	filter.PartNumber = &partNumber
	filter.Characteristic = &characteristic

	samples, err := s.repo.GetMeasurements(ctx, filter)
	if err != nil {
		return nil, err
	}

	rawLimits, err := s.repo.GetSpecLimits(ctx, partNumber, characteristic)
	if err != nil {
		return nil, err
	}
	// Lower limit of exactly 0 means "no lower limit" in the source
	// data; normalize before the engine ever sees it.
	limits := rawLimits.Normalized()

	group := &SpcGroup{
		PartNumber:     partNumber,
		Characteristic: characteristic,
		Limits:         limits,
		Samples:        make([]models.MeasurementSample, len(samples)),
	}
	for i, sample := range samples {
		group.Samples[i] = *sample
	}

	startTime := time.Now()

	values := spc.Values(group.Samples)
	group.Stats = spc.Compute(values, limits)
	group.Histogram = chart.Histogram(values, 0)

	mean, stdDev := 0.0, 0.0
	if group.Stats != nil {
		mean, stdDev = group.Stats.Mean, group.Stats.StdDev
	}
	group.RunChart = chart.RunChart(group.Samples, runChartWidth, runChartHeight, mean, stdDev, limits)

	duration := time.Since(startTime)
	s.metrics.SpcComputeDuration.Observe(duration.Seconds())
	s.metrics.SpcSamplesPerGroup.Observe(float64(len(values)))

	s.logger.Debug(ctx, "[SPC_COMPUTE] Characteristic group computed", logging.Fields{
		"part_number":    partNumber,
		"characteristic": characteristic,
		"samples":        len(values),
		"duration_ms":    duration.Milliseconds(),
	})

	return group, nil
}
