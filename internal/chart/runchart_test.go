package chart

import (
	"math"
	"testing"
	"time"

	"cellstatus-platform/internal/models"
)

func limitPtr(v float64) *float64 { return &v }

func sampleAt(value float64, offset time.Duration) models.MeasurementSample {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return models.MeasurementSample{
		MachineID:      "M1",
		PartNumber:     "P100",
		Characteristic: "diameter",
		Value:          value,
		MeasuredAt:     base.Add(offset),
	}
}

// TestRunChart_OrdersByTimestamp: input order is irrelevant, points come
// out in measurement order with x spaced linearly by index.
func TestRunChart_OrdersByTimestamp(t *testing.T) {
	samples := []models.MeasurementSample{
		sampleAt(10.2, 2*time.Hour),
		sampleAt(9.8, 0),
		sampleAt(10.0, time.Hour),
	}

	series := RunChart(samples, 300, 100, math.NaN(), math.NaN(), models.SpecLimits{})

	if len(series.Points) != 3 {
		t.Fatalf("point count = %d, want 3", len(series.Points))
	}
	wantValues := []float64{9.8, 10.0, 10.2}
	wantX := []float64{0, 150, 300}
	for i, p := range series.Points {
		if p.Value != wantValues[i] {
			t.Errorf("point %d value = %v, want %v", i, p.Value, wantValues[i])
		}
		if math.Abs(p.X-wantX[i]) > 1e-9 {
			t.Errorf("point %d x = %v, want %v", i, p.X, wantX[i])
		}
	}
	for i := 1; i < len(series.Points); i++ {
		if series.Points[i].Timestamp.Before(series.Points[i-1].Timestamp) {
			t.Error("points are not in timestamp order")
		}
	}
}

// TestRunChart_RangeExtension: the y range must cover the control band
// and spec limits so every reference line is drawable on-canvas.
func TestRunChart_RangeExtension(t *testing.T) {
	samples := []models.MeasurementSample{
		sampleAt(10.0, 0),
		sampleAt(10.1, time.Minute),
	}

	tests := []struct {
		name     string
		mean     float64
		stdDev   float64
		limits   models.SpecLimits
		wantYMin float64
		wantYMax float64
	}{
		{
			name:     "control band dominates",
			mean:     10.05, stdDev: 0.1,
			wantYMin: 9.75, wantYMax: 10.35,
		},
		{
			name:     "spec limits dominate",
			mean:     10.05, stdDev: 0.01,
			limits:   models.SpecLimits{USL: limitPtr(10.5), LSL: limitPtr(9.5)},
			wantYMin: 9.5, wantYMax: 10.5,
		},
		{
			name:     "nan statistics ignored",
			mean:     math.NaN(), stdDev: math.NaN(),
			wantYMin: 10.0, wantYMax: 10.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := RunChart(samples, 300, 100, tt.mean, tt.stdDev, tt.limits)
			if math.Abs(series.YMin-tt.wantYMin) > 1e-9 {
				t.Errorf("YMin = %v, want %v", series.YMin, tt.wantYMin)
			}
			if math.Abs(series.YMax-tt.wantYMax) > 1e-9 {
				t.Errorf("YMax = %v, want %v", series.YMax, tt.wantYMax)
			}
		})
	}
}

// TestRunChartSeries_YFor: canvas origin is top-left, so larger values
// map to smaller y.
func TestRunChartSeries_YFor(t *testing.T) {
	series := RunChartSeries{YMin: 0, YMax: 10, Height: 100}

	if got := series.YFor(10); got != 0 {
		t.Errorf("YFor(YMax) = %v, want 0", got)
	}
	if got := series.YFor(0); got != 100 {
		t.Errorf("YFor(YMin) = %v, want 100", got)
	}
	if got := series.YFor(5); got != 50 {
		t.Errorf("YFor(midpoint) = %v, want 50", got)
	}

	// Flat series: everything sits on the vertical center.
	flat := RunChartSeries{YMin: 4, YMax: 4, Height: 100}
	if got := flat.YFor(4); got != 50 {
		t.Errorf("flat YFor = %v, want 50", got)
	}
}

func TestRunChart_SinglePointCentered(t *testing.T) {
	series := RunChart([]models.MeasurementSample{sampleAt(10, 0)}, 300, 100, math.NaN(), math.NaN(), models.SpecLimits{})

	if len(series.Points) != 1 {
		t.Fatalf("point count = %d, want 1", len(series.Points))
	}
	if series.Points[0].X != 150 {
		t.Errorf("single point x = %v, want 150 (canvas center)", series.Points[0].X)
	}
}

func TestRunChart_Empty(t *testing.T) {
	series := RunChart(nil, 300, 100, math.NaN(), math.NaN(), models.SpecLimits{})

	if len(series.Points) != 0 {
		t.Errorf("point count = %d, want 0", len(series.Points))
	}
	if series.Width != 300 || series.Height != 100 {
		t.Errorf("canvas = %vx%v, want 300x100", series.Width, series.Height)
	}
}
