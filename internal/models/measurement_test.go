package models

import (
	"errors"
	"testing"
	"time"
)

func TestRawMeasurementRecord_ToSample(t *testing.T) {
	tests := []struct {
		name        string
		record      RawMeasurementRecord
		wantErr     bool
		errField    string
		checkValues func(*testing.T, *MeasurementSample)
	}{
		{
			name: "valid record",
			record: RawMeasurementRecord{
				MachineID:      "CNC-01",
				PartNumber:     "P100",
				Characteristic: "diameter",
				RawValue:       "10.02",
				RawTimestamp:   "2026-03-01T08:15:00Z",
			},
			wantErr: false,
			checkValues: func(t *testing.T, s *MeasurementSample) {
				if s.MachineID != "CNC-01" {
					t.Errorf("MachineID = %q, want %q", s.MachineID, "CNC-01")
				}
				if s.Value != 10.02 {
					t.Errorf("Value = %v, want 10.02", s.Value)
				}
				want := time.Date(2026, 3, 1, 8, 15, 0, 0, time.UTC)
				if !s.MeasuredAt.Equal(want) {
					t.Errorf("MeasuredAt = %v, want %v", s.MeasuredAt, want)
				}
				if s.Note != nil {
					t.Errorf("Note = %v, want nil", *s.Note)
				}
			},
		},
		{
			name: "whitespace trimmed and note kept",
			record: RawMeasurementRecord{
				MachineID:      "  CNC-02 ",
				PartNumber:     "P100",
				Characteristic: " runout ",
				RawValue:       " 0.013 ",
				RawTimestamp:   " 2026-03-01T09:00:00Z ",
				Note:           " after tool change ",
			},
			wantErr: false,
			checkValues: func(t *testing.T, s *MeasurementSample) {
				if s.MachineID != "CNC-02" {
					t.Errorf("MachineID = %q, want trimmed %q", s.MachineID, "CNC-02")
				}
				if s.Characteristic != "runout" {
					t.Errorf("Characteristic = %q, want %q", s.Characteristic, "runout")
				}
				if s.Note == nil || *s.Note != "after tool change" {
					t.Errorf("Note = %v, want %q", s.Note, "after tool change")
				}
			},
		},
		{
			name: "gauge placeholder value",
			record: RawMeasurementRecord{
				MachineID:      "CNC-01",
				PartNumber:     "P100",
				Characteristic: "diameter",
				RawValue:       "n/a",
				RawTimestamp:   "2026-03-01T08:15:00Z",
			},
			wantErr:  true,
			errField: "value",
		},
		{
			name: "empty value",
			record: RawMeasurementRecord{
				MachineID:      "CNC-01",
				PartNumber:     "P100",
				Characteristic: "diameter",
				RawValue:       "",
				RawTimestamp:   "2026-03-01T08:15:00Z",
			},
			wantErr:  true,
			errField: "value",
		},
		{
			name: "bad timestamp",
			record: RawMeasurementRecord{
				MachineID:      "CNC-01",
				PartNumber:     "P100",
				Characteristic: "diameter",
				RawValue:       "10.0",
				RawTimestamp:   "03/01/2026 08:15",
			},
			wantErr:  true,
			errField: "timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, err := tt.record.ToSample()

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("error type = %T, want *ValidationError", err)
				}
				if vErr.Field != tt.errField {
					t.Errorf("error field = %q, want %q", vErr.Field, tt.errField)
				}
				if vErr.IsTransient() {
					t.Error("validation errors must not be transient")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.checkValues != nil {
				tt.checkValues(t, sample)
			}
		})
	}
}

func TestSpecLimits_Normalized(t *testing.T) {
	usl := 10.5
	lslZero := 0.0
	lsl := 9.5

	tests := []struct {
		name    string
		limits  SpecLimits
		wantLSL *float64
		wantUSL *float64
	}{
		{"both limits", SpecLimits{USL: &usl, LSL: &lsl}, &lsl, &usl},
		{"zero lower limit stripped", SpecLimits{USL: &usl, LSL: &lslZero}, nil, &usl},
		{"no limits", SpecLimits{}, nil, nil},
		{"lower only", SpecLimits{LSL: &lsl}, &lsl, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.limits.Normalized()

			if (got.LSL == nil) != (tt.wantLSL == nil) {
				t.Fatalf("LSL presence = %v, want %v", got.LSL != nil, tt.wantLSL != nil)
			}
			if got.LSL != nil && *got.LSL != *tt.wantLSL {
				t.Errorf("LSL = %v, want %v", *got.LSL, *tt.wantLSL)
			}
			if (got.USL == nil) != (tt.wantUSL == nil) {
				t.Fatalf("USL presence = %v, want %v", got.USL != nil, tt.wantUSL != nil)
			}
		})
	}

	// Normalized must not mutate the original.
	original := SpecLimits{USL: &usl, LSL: &lslZero}
	_ = original.Normalized()
	if original.LSL == nil {
		t.Error("Normalized mutated its receiver")
	}
}
