package chart

import (
	"math"
	"sort"
	"time"

	"cellstatus-platform/internal/models"
)

// Point is one plotted sample in canvas coordinates, with the original
// value and timestamp carried for tooltips and labels.
type Point struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// RunChartSeries is a plotted series plus the y-mapping used for it, so
// reference lines (mean, control limits, spec limits) can be placed on
// the same scale.
type RunChartSeries struct {
	Points []Point `json:"points"`
	YMin   float64 `json:"yMin"`
	YMax   float64 `json:"yMax"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// YFor maps a data value onto the canvas y axis (origin top-left).
func (s *RunChartSeries) YFor(value float64) float64 {
	if s.YMax == s.YMin {
		return s.Height / 2
	}
	return s.Height - (value-s.YMin)/(s.YMax-s.YMin)*s.Height
}

// RunChart maps samples onto a width x height canvas. Samples are
// ordered by timestamp ascending, x linear by index. The y range is
// extended to cover the mean +/- 3 sigma control band and any spec
// limits so every reference line stays on-canvas. mean/stdDev may be
// NaN when no statistics exist; non-finite extensions are ignored.
func RunChart(samples []models.MeasurementSample, width, height float64, mean, stdDev float64, limits models.SpecLimits) RunChartSeries {
	ordered := make([]models.MeasurementSample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MeasuredAt.Before(ordered[j].MeasuredAt)
	})

	series := RunChartSeries{Width: width, Height: height}
	if len(ordered) == 0 {
		return series
	}

	yMin, yMax := ordered[0].Value, ordered[0].Value
	for _, s := range ordered {
		yMin = math.Min(yMin, s.Value)
		yMax = math.Max(yMax, s.Value)
	}

	extend := func(v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		yMin = math.Min(yMin, v)
		yMax = math.Max(yMax, v)
	}
	extend(mean - 3*stdDev)
	extend(mean + 3*stdDev)
	if limits.USL != nil {
		extend(*limits.USL)
	}
	if limits.LSL != nil {
		extend(*limits.LSL)
	}

	series.YMin = yMin
	series.YMax = yMax

	denom := float64(len(ordered) - 1)
	series.Points = make([]Point, len(ordered))
	for i, s := range ordered {
		x := width / 2
		if denom > 0 {
			x = float64(i) / denom * width
		}
		series.Points[i] = Point{
			X:         x,
			Y:         series.YFor(s.Value),
			Value:     s.Value,
			Timestamp: s.MeasuredAt,
		}
	}

	return series
}
