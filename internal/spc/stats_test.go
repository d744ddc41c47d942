package spc

import (
	"math"
	"testing"
	"time"

	"cellstatus-platform/internal/models"
)

func f(v float64) *float64 { return &v }

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// TestCompute_CanonicalGroup checks a hand-verified five-sample group
// against symmetric limits: mean 10.0, sample stddev 0.1581,
// Cp = Cpk ≈ 1.054 and Pp = Ppk ≈ 1.179 (population sigma).
func TestCompute_CanonicalGroup(t *testing.T) {
	values := []float64{9.8, 10.0, 10.1, 9.9, 10.2}
	limits := models.SpecLimits{USL: f(10.5), LSL: f(9.5)}

	stats := Compute(values, limits)
	if stats == nil {
		t.Fatal("Compute returned nil for non-empty input")
	}

	if stats.N != 5 {
		t.Errorf("N = %d, want 5", stats.N)
	}
	if !almostEqual(stats.Mean, 10.0, 1e-9) {
		t.Errorf("Mean = %v, want 10.0", stats.Mean)
	}
	if !almostEqual(stats.StdDev, 0.158114, 1e-5) {
		t.Errorf("StdDev = %v, want 0.158114", stats.StdDev)
	}
	if !almostEqual(stats.Min, 9.8, 1e-9) || !almostEqual(stats.Max, 10.2, 1e-9) {
		t.Errorf("Min/Max = %v/%v, want 9.8/10.2", stats.Min, stats.Max)
	}
	if !almostEqual(stats.Range, 0.4, 1e-9) {
		t.Errorf("Range = %v, want 0.4", stats.Range)
	}
	if !almostEqual(stats.Cp, 1.054093, 1e-5) {
		t.Errorf("Cp = %v, want 1.054093", stats.Cp)
	}
	if !almostEqual(stats.Cpk, 1.054093, 1e-5) {
		t.Errorf("Cpk = %v, want 1.054093", stats.Cpk)
	}
	if !almostEqual(stats.Pp, 1.178511, 1e-5) {
		t.Errorf("Pp = %v, want 1.178511", stats.Pp)
	}
	if !almostEqual(stats.Ppk, 1.178511, 1e-5) {
		t.Errorf("Ppk = %v, want 1.178511", stats.Ppk)
	}
	if !almostEqual(stats.Nominal, 10.0, 1e-9) {
		t.Errorf("Nominal = %v, want 10.0", stats.Nominal)
	}
	if stats.OutOfTol != 0 {
		t.Errorf("OutOfTol = %d, want 0", stats.OutOfTol)
	}
}

// TestCompute_CapabilityOrdering: for any data with two-sided limits,
// a centered index never exceeds its potential counterpart.
func TestCompute_CapabilityOrdering(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		limits models.SpecLimits
	}{
		{"centered", []float64{9.8, 10.0, 10.2}, models.SpecLimits{USL: f(10.5), LSL: f(9.5)}},
		{"shifted high", []float64{10.3, 10.4, 10.45, 10.35}, models.SpecLimits{USL: f(10.5), LSL: f(9.5)}},
		{"shifted low", []float64{9.52, 9.6, 9.55, 9.58}, models.SpecLimits{USL: f(10.5), LSL: f(9.5)}},
		{"mean outside limits", []float64{10.8, 10.9, 11.0}, models.SpecLimits{USL: f(10.5), LSL: f(9.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := Compute(tt.values, tt.limits)
			if stats == nil {
				t.Fatal("Compute returned nil")
			}
			if stats.Cpk > stats.Cp {
				t.Errorf("Cpk %v exceeds Cp %v", stats.Cpk, stats.Cp)
			}
			if stats.Ppk > stats.Pp {
				t.Errorf("Ppk %v exceeds Pp %v", stats.Ppk, stats.Pp)
			}
		})
	}
}

// TestCompute_UndefinedIndices: NaN marks every case where capability
// has no meaning; the descriptive fields stay valid.
func TestCompute_UndefinedIndices(t *testing.T) {
	tests := []struct {
		name        string
		values      []float64
		limits      models.SpecLimits
		wantCpNaN   bool
		wantCpkNaN  bool
		checkValues func(*testing.T, *Stats)
	}{
		{
			name:       "no limits",
			values:     []float64{1, 2, 3},
			limits:     models.SpecLimits{},
			wantCpNaN:  true,
			wantCpkNaN: true,
			checkValues: func(t *testing.T, s *Stats) {
				if !almostEqual(s.Mean, 2, 1e-9) {
					t.Errorf("Mean = %v, want 2", s.Mean)
				}
			},
		},
		{
			name:       "zero spread",
			values:     []float64{5, 5, 5, 5},
			limits:     models.SpecLimits{USL: f(6), LSL: f(4)},
			wantCpNaN:  true,
			wantCpkNaN: true,
			checkValues: func(t *testing.T, s *Stats) {
				if s.StdDev != 0 {
					t.Errorf("StdDev = %v, want 0", s.StdDev)
				}
			},
		},
		{
			name:       "single sample",
			values:     []float64{7.2},
			limits:     models.SpecLimits{USL: f(8), LSL: f(7)},
			wantCpNaN:  true,
			wantCpkNaN: true,
			checkValues: func(t *testing.T, s *Stats) {
				if s.N != 1 {
					t.Errorf("N = %d, want 1", s.N)
				}
				if s.StdDev != 0 {
					t.Errorf("StdDev = %v, want 0 for a single sample", s.StdDev)
				}
			},
		},
		{
			name:       "upper limit only",
			values:     []float64{9.8, 10.0, 10.2},
			limits:     models.SpecLimits{USL: f(10.5)},
			wantCpNaN:  true,
			wantCpkNaN: false,
			checkValues: func(t *testing.T, s *Stats) {
				if math.IsNaN(s.Cpk) || s.Cpk <= 0 {
					t.Errorf("one-sided Cpk = %v, want positive", s.Cpk)
				}
				if !math.IsNaN(s.Nominal) {
					t.Errorf("Nominal = %v, want NaN without both limits", s.Nominal)
				}
			},
		},
		{
			name:       "lower limit only",
			values:     []float64{9.8, 10.0, 10.2},
			limits:     models.SpecLimits{LSL: f(9.5)},
			wantCpNaN:  true,
			wantCpkNaN: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := Compute(tt.values, tt.limits)
			if stats == nil {
				t.Fatal("Compute returned nil")
			}
			if math.IsNaN(stats.Cp) != tt.wantCpNaN {
				t.Errorf("IsNaN(Cp) = %v, want %v", math.IsNaN(stats.Cp), tt.wantCpNaN)
			}
			if math.IsNaN(stats.Cpk) != tt.wantCpkNaN {
				t.Errorf("IsNaN(Cpk) = %v, want %v", math.IsNaN(stats.Cpk), tt.wantCpkNaN)
			}
			if tt.checkValues != nil {
				tt.checkValues(t, stats)
			}
		})
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	if stats := Compute(nil, models.SpecLimits{}); stats != nil {
		t.Errorf("Compute(nil) = %+v, want nil", stats)
	}
	if stats := Compute([]float64{}, models.SpecLimits{USL: f(1)}); stats != nil {
		t.Errorf("Compute(empty) = %+v, want nil", stats)
	}
}

// TestCompute_OutOfTolerance counts violations on either side.
func TestCompute_OutOfTolerance(t *testing.T) {
	values := []float64{9.3, 9.8, 10.0, 10.6, 10.7}
	limits := models.SpecLimits{USL: f(10.5), LSL: f(9.5)}

	stats := Compute(values, limits)
	if stats.OutOfTol != 3 {
		t.Errorf("OutOfTol = %d, want 3", stats.OutOfTol)
	}
}

// TestCompute_ZeroLowerLimitConvention: a stored LSL of 0 means "no
// lower limit"; Normalized strips it before the engine sees it.
func TestCompute_ZeroLowerLimitConvention(t *testing.T) {
	raw := models.SpecLimits{USL: f(10.5), LSL: f(0)}
	limits := raw.Normalized()

	if limits.LSL != nil {
		t.Fatalf("Normalized LSL = %v, want nil", *limits.LSL)
	}

	// Values below the literal zero must not count as violations.
	stats := Compute([]float64{-0.5, 9.8, 10.0}, limits)
	if stats.OutOfTol != 0 {
		t.Errorf("OutOfTol = %d, want 0 with no lower limit", stats.OutOfTol)
	}
	if !math.IsNaN(stats.Cp) {
		t.Errorf("Cp = %v, want NaN with one-sided limits", stats.Cp)
	}
}

func TestValues(t *testing.T) {
	now := time.Now()
	samples := []models.MeasurementSample{
		{MachineID: "M1", Value: 1.5, MeasuredAt: now},
		{MachineID: "M1", Value: 2.5, MeasuredAt: now.Add(time.Minute)},
	}

	values := Values(samples)
	if len(values) != 2 || values[0] != 1.5 || values[1] != 2.5 {
		t.Errorf("Values = %v, want [1.5 2.5]", values)
	}

	if got := Values(nil); len(got) != 0 {
		t.Errorf("Values(nil) length = %d, want 0", len(got))
	}
}
