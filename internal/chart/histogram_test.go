package chart

import (
	"math"
	"testing"
)

func TestSturgesBins(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 5},
		{1, 5},
		{10, 5},
		{30, 6},
		{100, 8},
		{1000, 11},
	}

	for _, tt := range tests {
		if got := SturgesBins(tt.n); got != tt.want {
			t.Errorf("SturgesBins(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

// TestHistogram_CountConservation: every value lands in exactly one
// bin, so counts always sum to len(values).
func TestHistogram_CountConservation(t *testing.T) {
	tests := []struct {
		name        string
		values      []float64
		desiredBins int
	}{
		{"uniform spread", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5},
		{"clustered", []float64{10.01, 10.02, 10.02, 10.03, 9.99, 10.0}, 4},
		{"auto bins", []float64{1.5, 2.5, 3.5, 2.0, 1.0, 4.0, 3.0}, 0},
		{"max value on upper edge", []float64{0, 0.25, 0.5, 0.75, 1.0}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bins := Histogram(tt.values, tt.desiredBins)

			total := 0
			for _, b := range bins {
				total += b.Count
			}
			if total != len(tt.values) {
				t.Errorf("bin counts sum to %d, want %d", total, len(tt.values))
			}
			if tt.desiredBins > 0 && len(bins) != tt.desiredBins {
				t.Errorf("bin count = %d, want %d", len(bins), tt.desiredBins)
			}
		})
	}
}

func TestHistogram_BinBoundaries(t *testing.T) {
	bins := Histogram([]float64{0, 1, 2, 3, 4}, 4)

	if len(bins) != 4 {
		t.Fatalf("bin count = %d, want 4", len(bins))
	}
	if bins[0].Lower != 0 || bins[len(bins)-1].Upper != 4 {
		t.Errorf("bin range [%v, %v], want [0, 4]", bins[0].Lower, bins[len(bins)-1].Upper)
	}
	for i := 1; i < len(bins); i++ {
		if math.Abs(bins[i].Lower-bins[i-1].Upper) > 1e-12 {
			t.Errorf("gap between bin %d upper %v and bin %d lower %v", i-1, bins[i-1].Upper, i, bins[i].Lower)
		}
	}
	// The maximum value belongs to the last bin, not an overflow bin.
	if bins[3].Count != 2 {
		t.Errorf("last bin count = %d, want 2 (values 3 and 4)", bins[3].Count)
	}
}

// TestHistogram_Degenerate: identical values collapse into one bin
// instead of dividing by a zero width.
func TestHistogram_Degenerate(t *testing.T) {
	bins := Histogram([]float64{7.5, 7.5, 7.5}, 10)

	if len(bins) != 1 {
		t.Fatalf("bin count = %d, want 1", len(bins))
	}
	if bins[0].Lower != 7.5 || bins[0].Upper != 7.5 || bins[0].Count != 3 {
		t.Errorf("degenerate bin = %+v, want {7.5 7.5 3}", bins[0])
	}
}

func TestHistogram_Empty(t *testing.T) {
	if bins := Histogram(nil, 5); bins != nil {
		t.Errorf("Histogram(nil) = %v, want nil", bins)
	}
}
