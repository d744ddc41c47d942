package models

import (
	"strconv"
	"strings"
	"time"
)

// MeasurementSample represents a single SPC data point. The machine,
// part and characteristic identifiers are opaque and carried through
// for display and grouping only; the statistics never look at them.
type MeasurementSample struct {
	ID             int64     `json:"id" db:"id"`
	MachineID      string    `json:"machine_id" db:"machine_id"`
	PartNumber     string    `json:"part_number" db:"part_number"`
	Characteristic string    `json:"characteristic" db:"characteristic"`
	Value          float64   `json:"value" db:"value"`
	MeasuredAt     time.Time `json:"measured_at" db:"measured_at"`
	Note           *string   `json:"note,omitempty" db:"note"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// SpecLimits holds the tolerance bounds for a characteristic. A nil
// pointer means the limit is not specified.
type SpecLimits struct {
	USL *float64 `json:"usl,omitempty" db:"usl"`
	LSL *float64 `json:"lsl,omitempty" db:"lsl"`
}

// Normalized applies the shop-floor convention that a lower limit of
// exactly 0 means "no lower limit" (attribute-style one-sided
// tolerance). Callers normalize before handing limits to the
// statistics engine.
func (l SpecLimits) Normalized() SpecLimits {
	out := l
	if out.LSL != nil && *out.LSL == 0 {
		out.LSL = nil
	}
	return out
}

// RawMeasurementRecord is one line from a measurement import file.
// Format: machine_id,part_number,characteristic,value,timestamp[,note]
type RawMeasurementRecord struct {
	MachineID      string
	PartNumber     string
	Characteristic string
	RawValue       string
	RawTimestamp   string
	Note           string
}

// ToSample converts a raw record into a MeasurementSample. Non-numeric
// values are rejected here so that they never reach the statistics
// engine; gauges on the floor occasionally emit placeholders like "n/a".
func (r *RawMeasurementRecord) ToSample() (*MeasurementSample, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(r.RawValue), 64)
	if err != nil {
		return nil, &ValidationError{
			Field:   "value",
			Value:   r.RawValue,
			Message: "measurement value is not numeric",
		}
	}

	measuredAt, err := time.Parse(time.RFC3339, strings.TrimSpace(r.RawTimestamp))
	if err != nil {
		return nil, &ValidationError{
			Field:   "timestamp",
			Value:   r.RawTimestamp,
			Message: "invalid timestamp, expected RFC 3339",
		}
	}

	sample := &MeasurementSample{
		MachineID:      strings.TrimSpace(r.MachineID),
		PartNumber:     strings.TrimSpace(r.PartNumber),
		Characteristic: strings.TrimSpace(r.Characteristic),
		Value:          value,
		MeasuredAt:     measuredAt,
		CreatedAt:      time.Now().UTC(),
	}

	if note := strings.TrimSpace(r.Note); note != "" {
		sample.Note = &note
	}

	return sample, nil
}

// ValidationError represents a data validation error.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent.
func (e *ValidationError) IsTransient() bool {
	return false
}
