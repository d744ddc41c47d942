package services

import (
	"context"
	"time"

	"cellstatus-platform/internal/models"
	"cellstatus-platform/internal/repository"
	"cellstatus-platform/pkg/logging"
	"cellstatus-platform/pkg/metrics"
)

// FloorService handles machine, operator, maintenance, production and
// audit data operations.
type FloorService struct {
	repo    repository.FloorRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewFloorService creates a new floor service
func NewFloorService(repo repository.FloorRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *FloorService {
	return &FloorService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateMachine creates a machine, stamping creation times.
func (s *FloorService) CreateMachine(ctx context.Context, machine *models.Machine) error {
	now := time.Now().UTC()
	machine.CreatedAt = now
	machine.UpdatedAt = now
	if machine.Status == "" {
		machine.Status = "active"
	}
	return s.repo.CreateMachine(ctx, machine)
}

// GetMachine retrieves a machine by ID
func (s *FloorService) GetMachine(ctx context.Context, machineID string) (*models.Machine, error) {
	return s.repo.GetMachine(ctx, machineID)
}

// ListMachines retrieves machines with pagination
func (s *FloorService) ListMachines(ctx context.Context, limit, offset int) ([]*models.Machine, int, error) {
	return s.repo.ListMachines(ctx, limit, offset)
}

// UpdateMachine updates an existing machine
func (s *FloorService) UpdateMachine(ctx context.Context, machine *models.Machine) error {
	return s.repo.UpdateMachine(ctx, machine)
}

// DeleteMachine deletes a machine
func (s *FloorService) DeleteMachine(ctx context.Context, machineID string) error {
	return s.repo.DeleteMachine(ctx, machineID)
}

// CreateOperator creates an operator
func (s *FloorService) CreateOperator(ctx context.Context, op *models.Operator) error {
	now := time.Now().UTC()
	op.CreatedAt = now
	op.UpdatedAt = now
	return s.repo.CreateOperator(ctx, op)
}

// ListOperators retrieves operators with pagination
func (s *FloorService) ListOperators(ctx context.Context, limit, offset int) ([]*models.Operator, int, error) {
	return s.repo.ListOperators(ctx, limit, offset)
}

// CreateMaintenanceLog records a maintenance event
func (s *FloorService) CreateMaintenanceLog(ctx context.Context, log *models.MaintenanceLog) error {
	log.CreatedAt = time.Now().UTC()
	if log.LoggedAt.IsZero() {
		log.LoggedAt = log.CreatedAt
	}
	return s.repo.CreateMaintenanceLog(ctx, log)
}

// ListMaintenanceLogs retrieves maintenance logs
func (s *FloorService) ListMaintenanceLogs(ctx context.Context, filter repository.MaintenanceFilter) ([]*models.MaintenanceLog, int, error) {
	return s.repo.ListMaintenanceLogs(ctx, filter)
}

// CreateProductionRecord records a shift's production counts
func (s *FloorService) CreateProductionRecord(ctx context.Context, rec *models.ProductionRecord) error {
	rec.CreatedAt = time.Now().UTC()
	return s.repo.CreateProductionRecord(ctx, rec)
}

// ListProductionRecords retrieves production records
func (s *FloorService) ListProductionRecords(ctx context.Context, filter repository.ProductionFilter) ([]*models.ProductionRecord, int, error) {
	return s.repo.ListProductionRecords(ctx, filter)
}

// CreateAuditFinding records an ad-hoc audit finding
func (s *FloorService) CreateAuditFinding(ctx context.Context, finding *models.AuditFinding) error {
	finding.CreatedAt = time.Now().UTC()
	if finding.Severity == "" {
		finding.Severity = "info"
	}
	return s.repo.CreateAuditFinding(ctx, finding)
}

// ListAuditFindings retrieves audit findings
func (s *FloorService) ListAuditFindings(ctx context.Context, limit, offset int) ([]*models.AuditFinding, int, error) {
	return s.repo.ListAuditFindings(ctx, limit, offset)
}
