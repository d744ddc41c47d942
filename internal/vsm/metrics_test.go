package vsm

import (
	"math"
	"testing"

	"cellstatus-platform/internal/models"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func makeStation(id string, cycleTime float64, step int) models.Station {
	return models.Station{
		ID:            id,
		Name:          "Station " + id,
		CycleTime:     cycleTime,
		SetupTime:     0,
		BatchSize:     1,
		Operators:     1,
		UptimePercent: 100,
		ProcessStep:   step,
	}
}

// TestComputeMetrics_ThreeStationFlow covers the canonical three-station
// scenario: cycle times 10/20/15 give rates 0.1/0.05/0.0667, the middle
// station is the bottleneck and utilization lands on 50/100/75.
func TestComputeMetrics_ThreeStationFlow(t *testing.T) {
	stations := []models.Station{
		makeStation("A", 10, 1),
		makeStation("B", 20, 2),
		makeStation("C", 15, 3),
	}

	result := ComputeMetrics(stations, Options{})

	if len(result.PerStation) != 3 {
		t.Fatalf("PerStation count = %d, want 3", len(result.PerStation))
	}

	wantRates := []float64{0.1, 0.05, 1.0 / 15}
	wantUtil := []float64{50, 100, 75}
	for i, m := range result.PerStation {
		if !almostEqual(m.Rate, wantRates[i], 1e-9) {
			t.Errorf("station %d rate = %v, want %v", i, m.Rate, wantRates[i])
		}
		if !almostEqual(m.Utilization, wantUtil[i], 1e-9) {
			t.Errorf("station %d utilization = %v, want %v", i, m.Utilization, wantUtil[i])
		}
	}

	if !result.PerStation[1].IsBottleneck {
		t.Error("station B should be the bottleneck")
	}
	if result.Summary.BottleneckName != "Station B" {
		t.Errorf("BottleneckName = %q, want %q", result.Summary.BottleneckName, "Station B")
	}

	// Station C is faster than its upstream neighbor B and must idle:
	// 1/0.05 - 1/(1/15) = 20 - 15 = 5 seconds per unit.
	if !almostEqual(result.PerStation[2].WaitTime, 5, 1e-9) {
		t.Errorf("station C wait time = %v, want 5", result.PerStation[2].WaitTime)
	}
	if result.PerStation[1].WaitTime != 0 {
		t.Errorf("station B wait time = %v, want 0", result.PerStation[1].WaitTime)
	}

	if !almostEqual(result.Summary.TotalCT, 45, 1e-9) {
		t.Errorf("TotalCT = %v, want 45", result.Summary.TotalCT)
	}
	if !almostEqual(result.Summary.LeadTime, 45, 1e-9) {
		t.Errorf("LeadTime = %v, want 45", result.Summary.LeadTime)
	}
	if !almostEqual(result.Summary.CellBalancePercent, 100, 1e-9) {
		t.Errorf("CellBalancePercent = %v, want 100", result.Summary.CellBalancePercent)
	}
	if !almostEqual(result.Summary.SystemThroughputUPH, 180, 1e-9) {
		t.Errorf("SystemThroughputUPH = %v, want 180", result.Summary.SystemThroughputUPH)
	}
	if !almostEqual(result.Summary.ProcessEfficiency, 50, 1e-9) {
		t.Errorf("ProcessEfficiency = %v, want 50", result.Summary.ProcessEfficiency)
	}
	if !almostEqual(result.Summary.AvgUtilizationPercent, 75, 1e-9) {
		t.Errorf("AvgUtilizationPercent = %v, want 75", result.Summary.AvgUtilizationPercent)
	}
	// No feed rate given: takt falls back to the bottleneck pace.
	if !almostEqual(result.Summary.TaktTime, 20, 1e-9) {
		t.Errorf("TaktTime = %v, want 20", result.Summary.TaktTime)
	}
}

// TestComputeMetrics_BottleneckInvariants checks that exactly one
// station is marked for arbitrary inputs, its rate is the minimum, and
// its utilization is exactly 100.
func TestComputeMetrics_BottleneckInvariants(t *testing.T) {
	tests := []struct {
		name       string
		cycleTimes []float64
		wantIndex  int
	}{
		{"distinct rates", []float64{5, 30, 12, 8}, 1},
		{"tie broken by input order", []float64{20, 20, 20}, 0},
		{"single station", []float64{7}, 0},
		{"bottleneck last", []float64{3, 4, 9}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stations := make([]models.Station, len(tt.cycleTimes))
			for i, ct := range tt.cycleTimes {
				stations[i] = makeStation(string(rune('A'+i)), ct, i+1)
			}

			result := ComputeMetrics(stations, Options{})

			marked := -1
			count := 0
			minRate := math.Inf(1)
			for i, m := range result.PerStation {
				if m.IsBottleneck {
					marked = i
					count++
				}
				if m.Rate < minRate {
					minRate = m.Rate
				}
			}

			if count != 1 {
				t.Fatalf("bottleneck count = %d, want exactly 1", count)
			}
			if marked != tt.wantIndex {
				t.Errorf("bottleneck index = %d, want %d", marked, tt.wantIndex)
			}
			if !almostEqual(result.PerStation[marked].Rate, minRate, 1e-12) {
				t.Errorf("bottleneck rate = %v, want min rate %v", result.PerStation[marked].Rate, minRate)
			}
			if !almostEqual(result.PerStation[marked].Utilization, 100, 1e-9) {
				t.Errorf("bottleneck utilization = %v, want 100", result.PerStation[marked].Utilization)
			}
		})
	}
}

// TestComputeMetrics_SetupAmortization verifies setup impact and the
// effective-cycle-time monotonicity: effective CT never drops below the
// raw cycle time.
func TestComputeMetrics_SetupAmortization(t *testing.T) {
	station := makeStation("A", 10, 1)
	station.SetupTime = 60
	station.BatchSize = 12

	result := ComputeMetrics([]models.Station{station}, Options{})
	m := result.PerStation[0]

	if !almostEqual(m.SetupImpact, 5, 1e-9) {
		t.Errorf("SetupImpact = %v, want 5", m.SetupImpact)
	}
	if !almostEqual(m.EffectiveCycleTime, 15, 1e-9) {
		t.Errorf("EffectiveCycleTime = %v, want 15", m.EffectiveCycleTime)
	}
	if m.EffectiveCycleTime < station.CycleTime {
		t.Error("effective cycle time must not drop below the raw cycle time")
	}
}

// TestComputeMetrics_UptimeAndOperators covers the reliability and
// parallel-operator adjustments.
func TestComputeMetrics_UptimeAndOperators(t *testing.T) {
	station := makeStation("A", 10, 1)
	station.Operators = 2
	station.UptimePercent = 80

	result := ComputeMetrics([]models.Station{station}, Options{})
	m := result.PerStation[0]

	if !almostEqual(m.TheoreticalRate, 0.2, 1e-9) {
		t.Errorf("TheoreticalRate = %v, want 0.2", m.TheoreticalRate)
	}
	if !almostEqual(m.Rate, 0.16, 1e-9) {
		t.Errorf("Rate = %v, want 0.16", m.Rate)
	}
	// takt = 10 / 2 / 0.8 = 6.25
	if !almostEqual(m.TaktTime, 6.25, 1e-9) {
		t.Errorf("TaktTime = %v, want 6.25", m.TaktTime)
	}
	if !almostEqual(m.DowntimeImpact, 0.04, 1e-9) {
		t.Errorf("DowntimeImpact = %v, want 0.04", m.DowntimeImpact)
	}
}

// TestComputeMetrics_GroupedWait exercises the process-step-group wait
// mode: parallel stations at the same step are no longer treated as
// sequential neighbors.
func TestComputeMetrics_GroupedWait(t *testing.T) {
	stations := []models.Station{
		makeStation("A", 10, 1),
		makeStation("B1", 30, 2),
		makeStation("B2", 25, 2),
		makeStation("C", 12, 3),
	}

	sequential := ComputeMetrics(stations, Options{})
	// Raw adjacency treats B2 as downstream of B1 even though they are
	// parallel: B2 appears starved by 30 - 25 = 5 seconds, and C waits
	// only on B2 (25 - 12 = 13).
	if !almostEqual(sequential.PerStation[2].WaitTime, 5, 1e-9) {
		t.Errorf("sequential wait for B2 = %v, want 5", sequential.PerStation[2].WaitTime)
	}
	if !almostEqual(sequential.PerStation[3].WaitTime, 13, 1e-9) {
		t.Errorf("sequential wait for C = %v, want 13", sequential.PerStation[3].WaitTime)
	}

	grouped := ComputeMetrics(stations, Options{GroupedWait: true})

	// Step 2's limiting rate (1/30) is slower than step 1: no wait for
	// either parallel member.
	if grouped.PerStation[1].WaitTime != 0 || grouped.PerStation[2].WaitTime != 0 {
		t.Errorf("step 2 wait = %v/%v, want 0/0",
			grouped.PerStation[1].WaitTime, grouped.PerStation[2].WaitTime)
	}
	// Step 3 outruns step 2's limiting member: 30 - 12 = 18 seconds.
	if !almostEqual(grouped.PerStation[3].WaitTime, 18, 1e-9) {
		t.Errorf("grouped wait for C = %v, want 18", grouped.PerStation[3].WaitTime)
	}
}

// TestComputeMetrics_RawMaterialTakt verifies that a customer feed rate
// overrides the bottleneck-derived takt.
func TestComputeMetrics_RawMaterialTakt(t *testing.T) {
	stations := []models.Station{makeStation("A", 10, 1)}

	result := ComputeMetrics(stations, Options{RawMaterialUPH: 120})

	if !almostEqual(result.Summary.TaktTime, 30, 1e-9) {
		t.Errorf("TaktTime = %v, want 30 (3600/120)", result.Summary.TaktTime)
	}
	if result.Summary.RawMaterialUPH != 120 {
		t.Errorf("RawMaterialUPH = %v, want 120", result.Summary.RawMaterialUPH)
	}
}

// TestComputeMetrics_EmptyInput: no stations means an explicit empty
// result, not an error or panic.
func TestComputeMetrics_EmptyInput(t *testing.T) {
	result := ComputeMetrics(nil, Options{})

	if result.PerStation == nil {
		t.Error("PerStation should be an empty slice, not nil")
	}
	if len(result.PerStation) != 0 {
		t.Errorf("PerStation count = %d, want 0", len(result.PerStation))
	}
	if result.Summary.Stations != 0 {
		t.Errorf("Summary.Stations = %d, want 0", result.Summary.Stations)
	}
}

// TestComputeMetrics_InvalidInputPropagatesNonFinite: the engine never
// panics on invariant violations; it produces Inf/NaN for the caller to
// guard against.
func TestComputeMetrics_InvalidInputPropagatesNonFinite(t *testing.T) {
	broken := makeStation("A", 0, 1)
	healthy := makeStation("B", 10, 2)

	result := ComputeMetrics([]models.Station{broken, healthy}, Options{})

	if !math.IsInf(result.PerStation[0].Rate, 1) {
		t.Errorf("rate for zero cycle time = %v, want +Inf", result.PerStation[0].Rate)
	}
	if Finite(result.PerStation[0].Rate) {
		t.Error("Finite should reject Inf")
	}
	if !result.PerStation[1].IsBottleneck {
		t.Error("the finite station should be the bottleneck")
	}
}
