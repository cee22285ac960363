// Package analysis computes overlap statistics for key-range spans
// independently of the incremental bookkeeping in pkg/interval. Its
// sweep-based depth profile and gonum-based connectivity act as oracles:
// the manager's cached groups and layer counts must always agree with the
// values recomputed here from scratch.
package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/keyspan/pkg/interval"
	"github.com/vanderheijden86/keyspan/pkg/metrics"
)

// AxisSize is the number of notes on the axis.
const AxisSize = interval.MaxNote - interval.MinNote + 1

// DepthProfile is the per-note overlap depth over the full axis.
type DepthProfile struct {
	// Depth[n] is the number of spans covering note n.
	Depth [AxisSize]int `json:"depth"`
	// MaxDepth is the largest per-note depth. For any overlap-connected
	// cluster this equals its interval-graph chromatic number, i.e. the
	// minimum achievable layer count.
	MaxDepth int `json:"max_depth"`
	// PeakNote is the lowest note at which MaxDepth occurs (0 when empty).
	PeakNote int `json:"peak_note"`
}

// Profile sweeps the axis and counts covering spans per note.
func Profile(spans []interval.Span) DepthProfile {
	defer metrics.Timer(metrics.DepthSweep)()

	var p DepthProfile
	// Difference array: +1 at start, -1 past end, then prefix-sum.
	var delta [AxisSize + 1]int
	for _, s := range spans {
		delta[s.Start-interval.MinNote]++
		delta[s.End-interval.MinNote+1]--
	}
	depth := 0
	for n := 0; n < AxisSize; n++ {
		depth += delta[n]
		p.Depth[n] = depth
		if depth > p.MaxDepth {
			p.MaxDepth = depth
			p.PeakNote = n + interval.MinNote
		}
	}
	return p
}

// MaxOverlapDepth returns the maximum number of spans that mutually cover
// any single note. This is the layer-minimality oracle.
func MaxOverlapDepth(spans []interval.Span) int {
	return Profile(spans).MaxDepth
}

// DensityStats summarizes how crowded the axis is.
type DensityStats struct {
	MeanDepth    float64 `json:"mean_depth"`    // average depth over the whole axis
	StdDevDepth  float64 `json:"stddev_depth"`  // spread of the depth profile
	MaxDepth     int     `json:"max_depth"`     // peak overlap depth
	PeakNote     int     `json:"peak_note"`     // where the peak occurs
	CoveredNotes int     `json:"covered_notes"` // notes covered by at least one span
	Coverage     float64 `json:"coverage"`      // CoveredNotes / AxisSize
}

// Density computes axis density statistics from the depth profile.
func Density(spans []interval.Span) DensityStats {
	p := Profile(spans)

	samples := make([]float64, AxisSize)
	covered := 0
	for n, d := range p.Depth {
		samples[n] = float64(d)
		if d > 0 {
			covered++
		}
	}

	return DensityStats{
		MeanDepth:    stat.Mean(samples, nil),
		StdDevDepth:  stat.StdDev(samples, nil),
		MaxDepth:     p.MaxDepth,
		PeakNote:     p.PeakNote,
		CoveredNotes: covered,
		Coverage:     float64(covered) / float64(AxisSize),
	}
}
