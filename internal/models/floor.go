package models

import "time"

// Machine represents a machine resource on the floor.
type Machine struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Area      string    `json:"area" db:"area"`
	Status    string    `json:"status" db:"status"`
	CycleTime *float64  `json:"cycle_time,omitempty" db:"cycle_time"`
	SetupTime *float64  `json:"setup_time,omitempty" db:"setup_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Operator represents a floor operator.
type Operator struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Shift     string    `json:"shift" db:"shift"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MaintenanceLog records a maintenance event against a machine.
type MaintenanceLog struct {
	ID          int64     `json:"id" db:"id"`
	MachineID   string    `json:"machine_id" db:"machine_id"`
	OperatorID  *string   `json:"operator_id,omitempty" db:"operator_id"`
	Description string    `json:"description" db:"description"`
	DowntimeMin *float64  `json:"downtime_min,omitempty" db:"downtime_min"`
	LoggedAt    time.Time `json:"logged_at" db:"logged_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductionRecord is one shift's production count for a machine.
type ProductionRecord struct {
	ID            int64     `json:"id" db:"id"`
	MachineID     string    `json:"machine_id" db:"machine_id"`
	Shift         string    `json:"shift" db:"shift"`
	GoodParts     int       `json:"good_parts" db:"good_parts"`
	ScrapParts    int       `json:"scrap_parts" db:"scrap_parts"`
	ProductionDay time.Time `json:"production_day" db:"production_day"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// AuditFinding is an ad-hoc SPC/audit observation entered from the
// floor, linked loosely to a machine or part.
type AuditFinding struct {
	ID         int64     `json:"id" db:"id"`
	MachineID  *string   `json:"machine_id,omitempty" db:"machine_id"`
	PartNumber *string   `json:"part_number,omitempty" db:"part_number"`
	Severity   string    `json:"severity" db:"severity"`
	Finding    string    `json:"finding" db:"finding"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
