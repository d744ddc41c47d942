package models

import (
	"fmt"
	"time"
)

// Station represents one production step in a value stream.
// Stations sharing a ProcessStep are parallel capacity at the same
// logical stage; distinct ascending ProcessStep values define flow order.
type Station struct {
	ID            string  `json:"id" db:"id"`
	MachineID     *string `json:"machineId,omitempty" db:"machine_id"`
	Name          string  `json:"name" db:"name"`
	CycleTime     float64 `json:"cycleTime" db:"cycle_time"`
	SetupTime     float64 `json:"setupTime" db:"setup_time"`
	BatchSize     float64 `json:"batchSize" db:"batch_size"`
	Operators     float64 `json:"operators" db:"operators"`
	UptimePercent float64 `json:"uptimePercent" db:"uptime_percent"`
	ProcessStep   int     `json:"processStep" db:"process_step"`
}

// ApplyDefaults fills the optional numeric fields with their documented
// defaults (batch size 1, one operator, 100% uptime, no setup).
func (s *Station) ApplyDefaults() {
	if s.BatchSize == 0 {
		s.BatchSize = 1
	}
	if s.Operators == 0 {
		s.Operators = 1
	}
	if s.UptimePercent == 0 {
		s.UptimePercent = 100
	}
}

// Validate checks the station invariants. The metrics engine itself
// never validates; callers validate at the boundary before computing.
func (s *Station) Validate() error {
	if s.CycleTime <= 0 {
		return &ValidationError{
			Field:   "cycleTime",
			Value:   fmt.Sprintf("%v", s.CycleTime),
			Message: "cycle time must be greater than zero",
		}
	}
	if s.BatchSize < 1 {
		return &ValidationError{
			Field:   "batchSize",
			Value:   fmt.Sprintf("%v", s.BatchSize),
			Message: "batch size must be at least 1",
		}
	}
	if s.Operators < 1 {
		return &ValidationError{
			Field:   "operators",
			Value:   fmt.Sprintf("%v", s.Operators),
			Message: "operator count must be at least 1",
		}
	}
	if s.UptimePercent <= 0 || s.UptimePercent > 100 {
		return &ValidationError{
			Field:   "uptimePercent",
			Value:   fmt.Sprintf("%v", s.UptimePercent),
			Message: "uptime must be in (0, 100]",
		}
	}
	return nil
}

// StationMetrics is the derived record the engine produces per station.
// The input Station is never mutated.
type StationMetrics struct {
	StationID         string  `json:"stationId"`
	Name              string  `json:"name"`
	ProcessStep       int     `json:"processStep"`
	SetupImpact       float64 `json:"setupImpact"`
	EffectiveCycleTime float64 `json:"effectiveCycleTime"`
	TheoreticalRate   float64 `json:"theoreticalRate"`
	Rate              float64 `json:"rate"`
	TaktTime          float64 `json:"taktTime"`
	IsBottleneck      bool    `json:"isBottleneck"`
	Utilization       float64 `json:"utilization"`
	WaitTime          float64 `json:"waitTime"`
	DowntimeImpact    float64 `json:"downtimeImpact"`
}

// VsmSummary aggregates one computation run over the whole stream.
type VsmSummary struct {
	Stations             int     `json:"stations"`
	TotalCT              float64 `json:"totalCT"`
	BottleneckName       string  `json:"bottleneckName"`
	BottleneckCT         float64 `json:"bottleneckCT"`
	RawMaterialUPH       float64 `json:"rawMaterialUPH"`
	TaktTime             float64 `json:"taktTime"`
	LeadTime             float64 `json:"leadTime"`
	WaitingTime          float64 `json:"waitingTime"`
	VaRatio              float64 `json:"vaRatio"`
	SystemThroughputUPH  float64 `json:"systemThroughputUPH"`
	AvgUtilizationPercent float64 `json:"avgUtilizationPercent"`
	CellBalancePercent   float64 `json:"cellBalancePercent"`
	ProcessEfficiency    float64 `json:"processEfficiency"`
}

// VsmDocument is the de facto interchange format shared by import,
// export and saved configurations.
type VsmDocument struct {
	Stations       []Station         `json:"stations"`
	OperationNames map[string]string `json:"operationNames,omitempty"`
	RawMaterialUPH float64           `json:"rawMaterialUPH,omitempty"`
}

// Validate validates every station in the document, reporting the first
// violation together with its position.
func (d *VsmDocument) Validate() error {
	for i := range d.Stations {
		d.Stations[i].ApplyDefaults()
		if err := d.Stations[i].Validate(); err != nil {
			return fmt.Errorf("station %d (%s): %w", i, d.Stations[i].Name, err)
		}
	}
	return nil
}

// VsmConfig is a persisted value stream configuration.
type VsmConfig struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Document  string    `json:"-" db:"document"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
