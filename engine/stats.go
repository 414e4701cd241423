package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ============================================================================
// STATS — Box-plot summaries and least-squares trendlines
// ============================================================================
// Quartiles interpolate linearly between order statistics at position
// (n-1)·p, the same rule box plots in the browser use. They are computed over
// sorted copies; input slices are never reordered.
// ============================================================================

// BoxSummary is the five-number summary of one box, plus Tukey fences.
type BoxSummary struct {
	N          int       `json:"n"`
	Min        float64   `json:"min"`
	Q1         float64   `json:"q1"`
	Median     float64   `json:"median"`
	Q3         float64   `json:"q3"`
	Max        float64   `json:"max"`
	Mean       float64   `json:"mean"`
	LowerFence float64   `json:"lowerFence"` // lowest value ≥ Q1 - 1.5·IQR
	UpperFence float64   `json:"upperFence"` // highest value ≤ Q3 + 1.5·IQR
	Outliers   []float64 `json:"outliers,omitempty"`
}

// BoxStats summarizes values. Returns nil for an empty slice.
func BoxStats(values []float64) *BoxSummary {
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	b := &BoxSummary{
		N:      len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     quantile(0.25, sorted),
		Median: quantile(0.5, sorted),
		Q3:     quantile(0.75, sorted),
		Mean:   stat.Mean(sorted, nil),
	}

	iqr := b.Q3 - b.Q1
	lo := b.Q1 - 1.5*iqr
	hi := b.Q3 + 1.5*iqr

	b.LowerFence = b.Q1
	b.UpperFence = b.Q3
	for _, v := range sorted {
		if v < lo {
			continue
		}
		b.LowerFence = v
		break
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] > hi {
			continue
		}
		b.UpperFence = sorted[i]
		break
	}
	for _, v := range sorted {
		if v < lo || v > hi {
			b.Outliers = append(b.Outliers, v)
		}
	}
	return b
}

// quantile returns the p-quantile of sorted values, interpolating linearly
// between the neighbours of position (n-1)·p.
func quantile(p float64, sorted []float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Trendline is an ordinary least squares fit y = Intercept + Slope·x, with
// the segment endpoints spanning the observed x range.
type Trendline struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"rSquared"`
	N         int     `json:"n"`
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
}

// LinearFit fits a least-squares line through (xs[i], ys[i]).
// Returns nil when the slices differ in length or hold fewer than two
// distinct x values.
func LinearFit(xs, ys []float64) *Trendline {
	if len(xs) != len(ys) || len(xs) < 2 {
		return nil
	}

	minX, maxX := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
	}
	if minX == maxX {
		return nil
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	if math.IsNaN(r2) {
		// Constant y: the flat line fits exactly.
		r2 = 1
	}
	return &Trendline{
		Intercept: alpha,
		Slope:     beta,
		RSquared:  r2,
		N:         len(xs),
		X0:        minX,
		Y0:        alpha + beta*minX,
		X1:        maxX,
		Y1:        alpha + beta*maxX,
	}
}
