// Package spc computes descriptive statistics and process capability
// indices for measurement samples against optional specification
// limits.
//
// Like the value-stream engine, everything here is pure: no I/O, no
// shared state, deterministic output. Undefined indices (missing
// limits, zero spread) come back as NaN rather than errors so that a
// dashboard can always render a result, substituting placeholders for
// the non-finite fields.
package spc

import (
	"math"

	"cellstatus-platform/internal/models"
)

// Stats holds the derived statistics for one characteristic group.
// Cp/Cpk/Pp/Ppk and Nominal are NaN when undefined.
type Stats struct {
	N       int     `json:"n"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stdDev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Range   float64 `json:"range"`
	Cp      float64 `json:"cp"`
	Cpk     float64 `json:"cpk"`
	Pp      float64 `json:"pp"`
	Ppk     float64 `json:"ppk"`
	Nominal float64 `json:"nominal"`
	OutOfTol int    `json:"outOfTol"`
}

// Compute derives statistics for values against limits. Returns nil for
// an empty slice. Callers filter non-numeric samples and apply the
// lower-limit-zero normalization before calling; see
// models.SpecLimits.Normalized.
func Compute(values []float64, limits models.SpecLimits) *Stats {
	n := len(values)
	if n == 0 {
		return nil
	}

	var sum float64
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	// Sample standard deviation; a single sample divides by 1, not 0.
	sampleVar := sq / math.Max(float64(n-1), 1)
	stdDev := math.Sqrt(sampleVar)
	popStdDev := math.Sqrt(sq / float64(n))

	outOfTol := 0
	for _, v := range values {
		if (limits.USL != nil && v > *limits.USL) || (limits.LSL != nil && v < *limits.LSL) {
			outOfTol++
		}
	}

	stats := &Stats{
		N:        n,
		Mean:     mean,
		StdDev:   stdDev,
		Min:      min,
		Max:      max,
		Range:    max - min,
		Cp:       math.NaN(),
		Cpk:      math.NaN(),
		Pp:       math.NaN(),
		Ppk:      math.NaN(),
		Nominal:  math.NaN(),
		OutOfTol: outOfTol,
	}

	if stdDev <= 0 {
		return stats
	}

	switch {
	case limits.USL != nil && limits.LSL != nil:
		usl, lsl := *limits.USL, *limits.LSL
		stats.Nominal = (usl + lsl) / 2
		stats.Cp = (usl - lsl) / (6 * stdDev)
		stats.Cpk = math.Min((usl-mean)/(3*stdDev), (mean-lsl)/(3*stdDev))
		stats.Pp = (usl - lsl) / (6 * popStdDev)
		stats.Ppk = math.Min((usl-mean)/(3*popStdDev), (mean-lsl)/(3*popStdDev))
	case limits.USL != nil:
		// One-sided attribute tolerance: only Cpk is meaningful.
		stats.Cpk = (*limits.USL - mean) / (3 * stdDev)
	case limits.LSL != nil:
		stats.Cpk = (mean - *limits.LSL) / (3 * stdDev)
	}

	return stats
}

// Values extracts the numeric series from samples, in given order.
func Values(samples []models.MeasurementSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}
