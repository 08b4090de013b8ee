package analyze

import "math"

// CurveSample is one point of the distortion curve with its derived
// difference statistics.
type CurveSample struct {
	K          int     `json:"k"`
	Distortion float64 `json:"distortion"` // sqrt of the fitted inertia

	// Relative decrease in distortion from k-1.
	DeltaPct float64 `json:"delta_pct"`
	// Change of DeltaPct from k-1. Negative when the drop slows down.
	DiffDeltaPct float64 `json:"diff_delta_pct"`
	// Relative change of DeltaPct from k-1, a relative second derivative.
	DeltaOfDeltaPct float64 `json:"delta_of_delta_pct"`
	// DeltaPct minus the 1/k complexity penalty.
	ComplexityAdjustedDiff float64 `json:"complexity_adjusted_diff"`
}

// CurveStatistics are whole-curve aggregates. They are only meaningful once
// every sample has been annotated.
type CurveStatistics struct {
	MaxDistortion float64 `json:"max_distortion"`
	SteepestDrop  float64 `json:"steepest_drop"` // Most negative DiffDeltaPct for k > 1, or 0
}

// Annotator derives the difference statistics of a distortion curve one
// sample at a time, keeping only the previous sample's values.
type Annotator struct {
	k         int
	prevDist  float64
	prevDelta float64
	stats     CurveStatistics
}

// Next annotates the distortion for the next k, starting at k=1.
func (a *Annotator) Next(distortion float64) CurveSample {
	a.k++
	s := CurveSample{
		K:                      a.k,
		Distortion:             distortion,
		ComplexityAdjustedDiff: -1 / float64(a.k),
	}

	if a.k > 1 {
		s.DeltaPct = ratio(a.prevDist-distortion, a.prevDist)
		s.DiffDeltaPct = s.DeltaPct - a.prevDelta
		if a.k > 2 {
			s.DeltaOfDeltaPct = ratio(a.prevDelta-s.DeltaPct, a.prevDelta)
		}
		s.ComplexityAdjustedDiff = s.DeltaPct - 1/float64(a.k)
		a.stats.SteepestDrop = math.Min(a.stats.SteepestDrop, s.DiffDeltaPct)
	}
	a.stats.MaxDistortion = math.Max(a.stats.MaxDistortion, distortion)

	a.prevDist = distortion
	a.prevDelta = s.DeltaPct
	return s
}

// Statistics returns the aggregates over every sample seen so far.
func (a *Annotator) Statistics() CurveStatistics {
	return a.stats
}

// Annotate builds a full curve from distortions ordered by k, starting at 1.
func Annotate(distortions []float64) ([]CurveSample, CurveStatistics) {
	var a Annotator
	curve := make([]CurveSample, len(distortions))
	for i, d := range distortions {
		curve[i] = a.Next(d)
	}
	return curve, a.Statistics()
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
