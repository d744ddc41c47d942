package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cellstatus-platform/internal/models"
	"cellstatus-platform/pkg/database"
	"cellstatus-platform/pkg/logging"
	"cellstatus-platform/pkg/metrics"
)

// FloorRepository provides data access for floor status data
type FloorRepository interface {
	// Machine operations
	CreateMachine(ctx context.Context, machine *models.Machine) error
	GetMachine(ctx context.Context, machineID string) (*models.Machine, error)
	ListMachines(ctx context.Context, limit, offset int) ([]*models.Machine, int, error)
	UpdateMachine(ctx context.Context, machine *models.Machine) error
	DeleteMachine(ctx context.Context, machineID string) error

	// Operator operations
	CreateOperator(ctx context.Context, op *models.Operator) error
	ListOperators(ctx context.Context, limit, offset int) ([]*models.Operator, int, error)

	// Maintenance log operations
	CreateMaintenanceLog(ctx context.Context, log *models.MaintenanceLog) error
	ListMaintenanceLogs(ctx context.Context, filter MaintenanceFilter) ([]*models.MaintenanceLog, int, error)

	// Production record operations
	CreateProductionRecord(ctx context.Context, rec *models.ProductionRecord) error
	ListProductionRecords(ctx context.Context, filter ProductionFilter) ([]*models.ProductionRecord, int, error)

	// Audit finding operations
	CreateAuditFinding(ctx context.Context, finding *models.AuditFinding) error
	ListAuditFindings(ctx context.Context, limit, offset int) ([]*models.AuditFinding, int, error)

	// Measurement operations
	CreateMeasurementsBatch(ctx context.Context, samples []*models.MeasurementSample) error
	GetMeasurements(ctx context.Context, filter MeasurementFilter) ([]*models.MeasurementSample, error)
	GetSpecLimits(ctx context.Context, partNumber, characteristic string) (models.SpecLimits, error)
	UpsertSpecLimits(ctx context.Context, partNumber, characteristic string, limits models.SpecLimits) error

	// Value stream configuration operations
	SaveVsmConfig(ctx context.Context, cfg *models.VsmConfig) error
	GetVsmConfig(ctx context.Context, name string) (*models.VsmConfig, error)
	ListVsmConfigs(ctx context.Context, limit, offset int) ([]*models.VsmConfig, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// MaintenanceFilter defines filters for querying maintenance logs
type MaintenanceFilter struct {
	MachineID *string
	Since     *time.Time
	Limit     int
	Offset    int
}

// ProductionFilter defines filters for querying production records
type ProductionFilter struct {
	MachineID *string
	StartDay  *time.Time
	EndDay    *time.Time
	Limit     int
	Offset    int
}

// MeasurementFilter defines filters for querying measurement samples.
// Samples always come back ordered by measurement time ascending, the
// order the SPC run chart needs.
type MeasurementFilter struct {
	MachineID      *string
	PartNumber     *string
	Characteristic *string
	Start          *time.Time
	End            *time.Time
	Limit          int
}

// floorRepository implements FloorRepository
type floorRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewFloorRepository creates a new floor repository
func NewFloorRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) FloorRepository {
	return &floorRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateMachine creates a new machine
func (r *floorRepository) CreateMachine(ctx context.Context, machine *models.Machine) error {
	query := `
		INSERT INTO machines (id, name, area, status, cycle_time, setup_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, "insert_machine", query,
		machine.ID,
		machine.Name,
		machine.Area,
		machine.Status,
		machine.CycleTime,
		machine.SetupTime,
		machine.CreatedAt,
		machine.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create machine: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_MACHINE] Machine created", logging.Fields{
		"machine_id": machine.ID,
		"area":       machine.Area,
	})

	return nil
}

// GetMachine retrieves a machine by ID
func (r *floorRepository) GetMachine(ctx context.Context, machineID string) (*models.Machine, error) {
	query := `
		SELECT id, name, area, status, cycle_time, setup_time, created_at, updated_at
		FROM machines
		WHERE id = $1
	`

	var machine models.Machine
	err := r.db.GetContext(ctx, "get_machine", &machine, query, machineID)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "machine", ID: machineID}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}

	return &machine, nil
}

// ListMachines retrieves machines with pagination
func (r *floorRepository) ListMachines(ctx context.Context, limit, offset int) ([]*models.Machine, int, error) {
	var total int
	if err := r.db.GetContext(ctx, "count_machines", &total, "SELECT COUNT(*) FROM machines"); err != nil {
		return nil, 0, fmt.Errorf("failed to count machines: %w", err)
	}

	query := `
		SELECT id, name, area, status, cycle_time, setup_time, created_at, updated_at
		FROM machines
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	var machines []*models.Machine
	if err := r.db.SelectContext(ctx, "list_machines", &machines, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list machines: %w", err)
	}

	return machines, total, nil
}

// UpdateMachine updates an existing machine
func (r *floorRepository) UpdateMachine(ctx context.Context, machine *models.Machine) error {
	query := `
		UPDATE machines
		SET name = $2, area = $3, status = $4, cycle_time = $5, setup_time = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, "update_machine", query,
		machine.ID,
		machine.Name,
		machine.Area,
		machine.Status,
		machine.CycleTime,
		machine.SetupTime,
		time.Now().UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to update machine: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return &NotFoundError{Resource: "machine", ID: machine.ID}
	}

	return nil
}

// DeleteMachine deletes a machine by ID
func (r *floorRepository) DeleteMachine(ctx context.Context, machineID string) error {
	result, err := r.db.ExecContext(ctx, "delete_machine", "DELETE FROM machines WHERE id = $1", machineID)
	if err != nil {
		return fmt.Errorf("failed to delete machine: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return &NotFoundError{Resource: "machine", ID: machineID}
	}

	return nil
}

// CreateOperator creates a new operator
func (r *floorRepository) CreateOperator(ctx context.Context, op *models.Operator) error {
	query := `
		INSERT INTO operators (id, name, shift, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, "insert_operator", query,
		op.ID, op.Name, op.Shift, op.CreatedAt, op.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}

	return nil
}

// ListOperators retrieves operators with pagination
func (r *floorRepository) ListOperators(ctx context.Context, limit, offset int) ([]*models.Operator, int, error) {
	var total int
	if err := r.db.GetContext(ctx, "count_operators", &total, "SELECT COUNT(*) FROM operators"); err != nil {
		return nil, 0, fmt.Errorf("failed to count operators: %w", err)
	}

	query := `
		SELECT id, name, shift, created_at, updated_at
		FROM operators
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	var operators []*models.Operator
	if err := r.db.SelectContext(ctx, "list_operators", &operators, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list operators: %w", err)
	}

	return operators, total, nil
}

// CreateMaintenanceLog creates a new maintenance log entry
func (r *floorRepository) CreateMaintenanceLog(ctx context.Context, log *models.MaintenanceLog) error {
	query := `
		INSERT INTO maintenance_logs (machine_id, operator_id, description, downtime_min, logged_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		log.MachineID,
		log.OperatorID,
		log.Description,
		log.DowntimeMin,
		log.LoggedAt,
		log.CreatedAt,
	).Scan(&log.ID)

	if err != nil {
		return fmt.Errorf("failed to create maintenance log: %w", err)
	}

	return nil
}

// ListMaintenanceLogs retrieves maintenance logs with filtering and pagination
func (r *floorRepository) ListMaintenanceLogs(ctx context.Context, filter MaintenanceFilter) ([]*models.MaintenanceLog, int, error) {
	query := `
		SELECT id, machine_id, operator_id, description, downtime_min, logged_at, created_at
		FROM maintenance_logs
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.MachineID != nil {
		query += fmt.Sprintf(" AND machine_id = $%d", argNum)
		args = append(args, *filter.MachineID)
		argNum++
	}

	if filter.Since != nil {
		query += fmt.Sprintf(" AND logged_at >= $%d", argNum)
		args = append(args, *filter.Since)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var total int
	if err := r.db.GetContext(ctx, "count_maintenance_logs", &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count maintenance logs: %w", err)
	}

	query += " ORDER BY logged_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var logs []*models.MaintenanceLog
	if err := r.db.SelectContext(ctx, "list_maintenance_logs", &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list maintenance logs: %w", err)
	}

	return logs, total, nil
}

// CreateProductionRecord creates a new production record
func (r *floorRepository) CreateProductionRecord(ctx context.Context, rec *models.ProductionRecord) error {
	query := `
		INSERT INTO production_records (machine_id, shift, good_parts, scrap_parts, production_day, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (machine_id, shift, production_day) DO UPDATE SET
			good_parts = EXCLUDED.good_parts,
			scrap_parts = EXCLUDED.scrap_parts
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		rec.MachineID,
		rec.Shift,
		rec.GoodParts,
		rec.ScrapParts,
		rec.ProductionDay,
		rec.CreatedAt,
	).Scan(&rec.ID)

	if err != nil {
		return fmt.Errorf("failed to create production record: %w", err)
	}

	return nil
}

// ListProductionRecords retrieves production records with filtering and pagination
func (r *floorRepository) ListProductionRecords(ctx context.Context, filter ProductionFilter) ([]*models.ProductionRecord, int, error) {
	query := `
		SELECT id, machine_id, shift, good_parts, scrap_parts, production_day, created_at
		FROM production_records
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.MachineID != nil {
		query += fmt.Sprintf(" AND machine_id = $%d", argNum)
		args = append(args, *filter.MachineID)
		argNum++
	}

	if filter.StartDay != nil {
		query += fmt.Sprintf(" AND production_day >= $%d", argNum)
		args = append(args, *filter.StartDay)
		argNum++
	}

	if filter.EndDay != nil {
		query += fmt.Sprintf(" AND production_day <= $%d", argNum)
		args = append(args, *filter.EndDay)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var total int
	if err := r.db.GetContext(ctx, "count_production_records", &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count production records: %w", err)
	}

	query += " ORDER BY production_day DESC, machine_id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var records []*models.ProductionRecord
	if err := r.db.SelectContext(ctx, "list_production_records", &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list production records: %w", err)
	}

	return records, total, nil
}

// CreateAuditFinding creates a new audit finding
func (r *floorRepository) CreateAuditFinding(ctx context.Context, finding *models.AuditFinding) error {
	query := `
		INSERT INTO audit_findings (machine_id, part_number, severity, finding, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		finding.MachineID,
		finding.PartNumber,
		finding.Severity,
		finding.Finding,
		finding.CreatedAt,
	).Scan(&finding.ID)

	if err != nil {
		return fmt.Errorf("failed to create audit finding: %w", err)
	}

	return nil
}

// ListAuditFindings retrieves audit findings with pagination
func (r *floorRepository) ListAuditFindings(ctx context.Context, limit, offset int) ([]*models.AuditFinding, int, error) {
	var total int
	if err := r.db.GetContext(ctx, "count_audit_findings", &total, "SELECT COUNT(*) FROM audit_findings"); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit findings: %w", err)
	}

	query := `
		SELECT id, machine_id, part_number, severity, finding, created_at
		FROM audit_findings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var findings []*models.AuditFinding
	if err := r.db.SelectContext(ctx, "list_audit_findings", &findings, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit findings: %w", err)
	}

	return findings, total, nil
}

// CreateMeasurementsBatch inserts measurement samples in a single transaction
func (r *floorRepository) CreateMeasurementsBatch(ctx context.Context, samples []*models.MeasurementSample) error {
	if len(samples) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(samples)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(samples),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurements (machine_id, part_number, characteristic, value, measured_at, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, sample := range samples {
		_, err := stmt.ExecContext(ctx,
			sample.MachineID,
			sample.PartNumber,
			sample.Characteristic,
			sample.Value,
			sample.MeasuredAt,
			sample.Note,
			sample.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert measurement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(samples)))

	return nil
}

// GetMeasurements retrieves measurement samples ordered by measurement time
func (r *floorRepository) GetMeasurements(ctx context.Context, filter MeasurementFilter) ([]*models.MeasurementSample, error) {
	query := `
		SELECT id, machine_id, part_number, characteristic, value, measured_at, note, created_at
		FROM measurements
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.MachineID != nil {
		query += fmt.Sprintf(" AND machine_id = $%d", argNum)
		args = append(args, *filter.MachineID)
		argNum++
	}

	if filter.PartNumber != nil {
		query += fmt.Sprintf(" AND part_number = $%d", argNum)
		args = append(args, *filter.PartNumber)
		argNum++
	}

	if filter.Characteristic != nil {
		query += fmt.Sprintf(" AND characteristic = $%d", argNum)
		args = append(args, *filter.Characteristic)
		argNum++
	}

	if filter.Start != nil {
		query += fmt.Sprintf(" AND measured_at >= $%d", argNum)
		args = append(args, *filter.Start)
		argNum++
	}

	if filter.End != nil {
		query += fmt.Sprintf(" AND measured_at <= $%d", argNum)
		args = append(args, *filter.End)
		argNum++
	}

	query += " ORDER BY measured_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	var samples []*models.MeasurementSample
	if err := r.db.SelectContext(ctx, "get_measurements", &samples, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get measurements: %w", err)
	}

	return samples, nil
}

// GetSpecLimits retrieves the tolerance bounds for a characteristic.
// Missing rows come back as empty limits, not an error: a characteristic
// with no recorded tolerance is still chartable.
func (r *floorRepository) GetSpecLimits(ctx context.Context, partNumber, characteristic string) (models.SpecLimits, error) {
	query := `
		SELECT usl, lsl
		FROM spec_limits
		WHERE part_number = $1 AND characteristic = $2
	`

	var limits models.SpecLimits
	err := r.db.GetContext(ctx, "get_spec_limits", &limits, query, partNumber, characteristic)

	if err == sql.ErrNoRows {
		return models.SpecLimits{}, nil
	}

	if err != nil {
		return models.SpecLimits{}, fmt.Errorf("failed to get spec limits: %w", err)
	}

	return limits, nil
}

// UpsertSpecLimits creates or updates the tolerance bounds for a characteristic
func (r *floorRepository) UpsertSpecLimits(ctx context.Context, partNumber, characteristic string, limits models.SpecLimits) error {
	query := `
		INSERT INTO spec_limits (part_number, characteristic, usl, lsl, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (part_number, characteristic) DO UPDATE SET
			usl = EXCLUDED.usl,
			lsl = EXCLUDED.lsl,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, "upsert_spec_limits", query,
		partNumber, characteristic, limits.USL, limits.LSL, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to upsert spec limits: %w", err)
	}

	return nil
}

// SaveVsmConfig creates or updates a value stream configuration by name
func (r *floorRepository) SaveVsmConfig(ctx context.Context, cfg *models.VsmConfig) error {
	query := `
		INSERT INTO vsm_configs (name, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		cfg.Name,
		cfg.Document,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	).Scan(&cfg.ID)

	if err != nil {
		return fmt.Errorf("failed to save vsm config: %w", err)
	}

	return nil
}

// GetVsmConfig retrieves a value stream configuration by name
func (r *floorRepository) GetVsmConfig(ctx context.Context, name string) (*models.VsmConfig, error) {
	query := `
		SELECT id, name, document, created_at, updated_at
		FROM vsm_configs
		WHERE name = $1
	`

	var cfg models.VsmConfig
	err := r.db.GetContext(ctx, "get_vsm_config", &cfg, query, name)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "vsm_config", ID: name}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get vsm config: %w", err)
	}

	return &cfg, nil
}

// ListVsmConfigs retrieves value stream configurations with pagination
func (r *floorRepository) ListVsmConfigs(ctx context.Context, limit, offset int) ([]*models.VsmConfig, error) {
	query := `
		SELECT id, name, document, created_at, updated_at
		FROM vsm_configs
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	var configs []*models.VsmConfig
	if err := r.db.SelectContext(ctx, "list_vsm_configs", &configs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list vsm configs: %w", err)
	}

	return configs, nil
}

// HealthCheck performs a repository health check
func (r *floorRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
