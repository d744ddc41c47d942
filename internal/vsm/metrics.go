// Package vsm derives value-stream flow metrics from an ordered set of
// process stations: effective cycle times, throughput rates, the system
// bottleneck, takt time, utilization, wait time, lead time and overall
// process efficiency.
//
// The engine is pure and reentrant: it holds no state, performs no I/O,
// and never mutates its input. Invalid numeric inputs (zero cycle time,
// zero batch size) propagate as NaN/Inf rather than errors; callers
// validate at the boundary and render non-finite values as placeholders.
package vsm

import (
	"math"
	"sort"

	"cellstatus-platform/internal/models"
)

// Options controls a single computation run.
type Options struct {
	// RawMaterialUPH is the external input feed rate in units per hour.
	// When > 0 it drives the summary takt time; otherwise takt falls
	// back to the pace the bottleneck can sustain.
	RawMaterialUPH float64

	// GroupedWait computes wait time between process-step groups using
	// each group's limiting rate, instead of between raw adjacent
	// stations. The raw-adjacency default reproduces the historical
	// behavior; grouped mode gives economically meaningful idle time
	// when parallel stations share a step.
	GroupedWait bool
}

// Result is the outcome of one computation run.
type Result struct {
	PerStation []models.StationMetrics `json:"perStation"`
	Summary    models.VsmSummary       `json:"summary"`
}

// ComputeMetrics derives per-station and summary flow metrics. An empty
// station list yields a zero-valued Result with an empty PerStation
// slice — "nothing to compute" is not an error.
func ComputeMetrics(stations []models.Station, opts Options) Result {
	perStation := make([]models.StationMetrics, 0, len(stations))
	if len(stations) == 0 {
		return Result{PerStation: perStation}
	}

	// First pass: each station independently.
	for _, st := range stations {
		setupImpact := st.SetupTime / st.BatchSize
		ect := st.CycleTime + setupImpact
		theoretical := st.Operators / ect
		rate := theoretical * (st.UptimePercent / 100)
		takt := ect / st.Operators / (st.UptimePercent / 100)

		perStation = append(perStation, models.StationMetrics{
			StationID:          st.ID,
			Name:               st.Name,
			ProcessStep:        st.ProcessStep,
			SetupImpact:        setupImpact,
			EffectiveCycleTime: ect,
			TheoreticalRate:    theoretical,
			Rate:               rate,
			TaktTime:           takt,
			DowntimeImpact:     theoretical - rate,
		})
	}

	// Bottleneck: minimum actual rate, first in input order on ties.
	bottleneck := 0
	for i := 1; i < len(perStation); i++ {
		if perStation[i].Rate < perStation[bottleneck].Rate {
			bottleneck = i
		}
	}
	perStation[bottleneck].IsBottleneck = true
	bottleneckRate := perStation[bottleneck].Rate

	// Second pass: utilization relative to the bottleneck, uncapped.
	// The bottleneck itself lands exactly on 100.
	maxRate := perStation[0].Rate
	for i := range perStation {
		perStation[i].Utilization = bottleneckRate / perStation[i].Rate * 100
		if perStation[i].Rate > maxRate {
			maxRate = perStation[i].Rate
		}
	}

	if opts.GroupedWait {
		applyGroupedWait(perStation)
	} else {
		applySequentialWait(perStation)
	}

	summary := summarize(stations, perStation, bottleneck, maxRate, opts)
	return Result{PerStation: perStation, Summary: summary}
}

// applySequentialWait assigns idle time by raw array adjacency: a
// station faster than its upstream neighbor waits for supply.
func applySequentialWait(perStation []models.StationMetrics) {
	for i := 1; i < len(perStation); i++ {
		prev := perStation[i-1].Rate
		cur := perStation[i].Rate
		if cur > prev {
			perStation[i].WaitTime = 1/prev - 1/cur
		}
	}
}

// applyGroupedWait assigns idle time between process-step groups. A
// group's effective rate is its limiting (slowest) member; every member
// of a starved group carries the group's wait.
func applyGroupedWait(perStation []models.StationMetrics) {
	groupRate := make(map[int]float64)
	for _, m := range perStation {
		r, ok := groupRate[m.ProcessStep]
		if !ok || m.Rate < r {
			groupRate[m.ProcessStep] = m.Rate
		}
	}

	steps := make([]int, 0, len(groupRate))
	for step := range groupRate {
		steps = append(steps, step)
	}
	sort.Ints(steps)

	groupWait := make(map[int]float64)
	for i := 1; i < len(steps); i++ {
		prev := groupRate[steps[i-1]]
		cur := groupRate[steps[i]]
		if cur > prev {
			groupWait[steps[i]] = 1/prev - 1/cur
		}
	}

	for i := range perStation {
		perStation[i].WaitTime = groupWait[perStation[i].ProcessStep]
	}
}

func summarize(stations []models.Station, perStation []models.StationMetrics, bottleneck int, maxRate float64, opts Options) models.VsmSummary {
	var totalCT, leadTime, waiting, utilSum float64
	for i := range perStation {
		totalCT += stations[i].CycleTime
		leadTime += perStation[i].TaktTime
		waiting += perStation[i].WaitTime
		utilSum += perStation[i].Utilization
	}

	bottleneckRate := perStation[bottleneck].Rate

	takt := 1 / bottleneckRate
	if opts.RawMaterialUPH > 0 {
		takt = 3600 / opts.RawMaterialUPH
	}

	cellBalance := totalCT / leadTime * 100

	return models.VsmSummary{
		Stations:              len(perStation),
		TotalCT:               totalCT,
		BottleneckName:        perStation[bottleneck].Name,
		BottleneckCT:          perStation[bottleneck].EffectiveCycleTime,
		RawMaterialUPH:        opts.RawMaterialUPH,
		TaktTime:              takt,
		LeadTime:              leadTime,
		WaitingTime:           waiting,
		VaRatio:               cellBalance,
		SystemThroughputUPH:   bottleneckRate * 3600,
		AvgUtilizationPercent: utilSum / float64(len(perStation)),
		CellBalancePercent:    cellBalance,
		ProcessEfficiency:     bottleneckRate / maxRate * 100,
	}
}

// Finite reports whether v is renderable, i.e. neither NaN nor Inf.
// Presentation layers use this to decide between a number and a "—"
// placeholder.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
