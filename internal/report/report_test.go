package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"cellstatus-platform/internal/chart"
	"cellstatus-platform/internal/models"
	"cellstatus-platform/internal/services"
	"cellstatus-platform/internal/spc"
)

func buildGroup(t *testing.T, values []float64, limits models.SpecLimits) *services.SpcGroup {
	t.Helper()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	samples := make([]models.MeasurementSample, len(values))
	for i, v := range values {
		samples[i] = models.MeasurementSample{
			MachineID:      "CNC-01",
			PartNumber:     "P100",
			Characteristic: "diameter",
			Value:          v,
			MeasuredAt:     base.Add(time.Duration(i) * time.Minute),
		}
	}

	stats := spc.Compute(values, limits)
	mean, stdDev := math.NaN(), math.NaN()
	if stats != nil {
		mean, stdDev = stats.Mean, stats.StdDev
	}

	return &services.SpcGroup{
		PartNumber:     "P100",
		Characteristic: "diameter",
		Samples:        samples,
		Limits:         limits,
		Stats:          stats,
		Histogram:      chart.Histogram(values, 0),
		RunChart:       chart.RunChart(samples, 720, 240, mean, stdDev, limits),
	}
}

func TestBuild_RendersStatisticsAndCharts(t *testing.T) {
	usl, lsl := 10.5, 9.5
	group := buildGroup(t, []float64{9.8, 10.0, 10.1, 9.9, 10.2},
		models.SpecLimits{USL: &usl, LSL: &lsl})

	html, err := Build(group)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"P100 / diameter",
		"5 samples",
		"<svg",
		"Cpk",
		"stroke-dasharray", // reference lines drawn
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(html, "NaN") {
		t.Error("report leaked a NaN instead of a placeholder")
	}
}

// TestBuild_PlaceholderForUndefinedIndices: capability indices without
// limits are NaN in the engine and must render as a typographic dash.
func TestBuild_PlaceholderForUndefinedIndices(t *testing.T) {
	group := buildGroup(t, []float64{9.8, 10.0, 10.2}, models.SpecLimits{})

	html, err := Build(group)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(html, placeholder) {
		t.Errorf("report without limits should contain the %q placeholder", placeholder)
	}
	if strings.Contains(html, "NaN") {
		t.Error("report leaked a NaN instead of a placeholder")
	}
}

func TestBuild_EmptyGroup(t *testing.T) {
	group := buildGroup(t, nil, models.SpecLimits{})

	html, err := Build(group)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(html, "0 samples") {
		t.Error("empty report should still render a sample count")
	}
	if !strings.Contains(html, "No data.") {
		t.Error("empty report should render the no-data notice for charts")
	}
}

func TestFmtValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10.5, "10.5"},
		{math.NaN(), placeholder},
		{math.Inf(1), placeholder},
		{math.Inf(-1), placeholder},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := fmtValue(tt.in); got != tt.want {
			t.Errorf("fmtValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
