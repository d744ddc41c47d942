// Package chart provides the geometry and binning math shared by the
// value-stream diagram and SPC report renderers: histogram bins and
// run-chart coordinate series. Drawing is a presentation concern; the
// contract here ends at bin boundaries/counts and (x, y) points.
package chart

import "math"

// Bin is one histogram bucket over [Lower, Upper).
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// SturgesBins applies Sturges' rule with a floor of 5 bins.
func SturgesBins(n int) int {
	if n <= 0 {
		return 5
	}
	bins := int(math.Ceil(1 + 3.322*math.Log10(float64(n))))
	if bins < 5 {
		bins = 5
	}
	return bins
}

// Histogram bins values into desiredBins buckets, falling back to
// Sturges' rule when desiredBins <= 0. The sum of bin counts always
// equals len(values). When all values coincide a single bin holds
// everything.
func Histogram(values []float64, desiredBins int) []Bin {
	if len(values) == 0 {
		return nil
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if min == max {
		return []Bin{{Lower: min, Upper: max, Count: len(values)}}
	}

	bins := desiredBins
	if bins <= 0 {
		bins = SturgesBins(len(values))
	}

	width := (max - min) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = min + float64(i)*width
		out[i].Upper = min + float64(i+1)*width
	}

	for _, v := range values {
		idx := int(math.Floor((v - min) / width))
		// The maximum value rounds to index == bins; clamp absorbs
		// that and any floating-point edge wobble.
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}

	return out
}
