package analyze

import "math"

// Method identifies one elbow heuristic.
type Method string

const (
	MethodComplexity       Method = "opt1" // max DeltaPct - 1/k
	MethodLastDrop         Method = "opt2" // k before the last significant drop of DeltaPct
	MethodSecondDerivative Method = "opt3" // max DeltaOfDeltaPct
	MethodTriangle         Method = "opt4" // max triangle height
	MethodAngle            Method = "opt5" // min bend angle
)

// Methods lists every heuristic in evaluation order.
var Methods = []Method{
	MethodComplexity,
	MethodLastDrop,
	MethodSecondDerivative,
	MethodTriangle,
	MethodAngle,
}

// Fraction of the steepest drop a DiffDeltaPct must exceed to count as
// significant for MethodLastDrop.
const significantDropFraction = 0.25

// CandidateSet maps each heuristic to its chosen k. Heuristics whose
// condition never triggered are absent.
type CandidateSet map[Method]int

// Clone returns an independent copy.
func (c CandidateSet) Clone() CandidateSet {
	out := make(CandidateSet, len(c))
	for m, k := range c {
		out[m] = k
	}
	return out
}

// Evaluate runs all five heuristics over an annotated curve. stats must
// cover the whole curve.
func Evaluate(curve []CurveSample, stats CurveStatistics) CandidateSet {
	c := make(CandidateSet, len(Methods))
	set := func(m Method, k int, ok bool) {
		if ok {
			c[m] = k
		}
	}
	k, ok := complexityCandidate(curve)
	set(MethodComplexity, k, ok)
	k, ok = lastDropCandidate(curve, stats)
	set(MethodLastDrop, k, ok)
	k, ok = secondDerivativeCandidate(curve)
	set(MethodSecondDerivative, k, ok)
	k, ok = triangleCandidate(curve, stats)
	set(MethodTriangle, k, ok)
	k, ok = angleCandidate(curve, stats)
	set(MethodAngle, k, ok)
	return c
}

func complexityCandidate(curve []CurveSample) (int, bool) {
	best, found := math.Inf(-1), false
	k := 0
	for _, s := range curve {
		if s.K > 1 && s.ComplexityAdjustedDiff > best {
			best, k, found = s.ComplexityAdjustedDiff, s.K, true
		}
	}
	return k, found
}

// lastDropCandidate returns the k preceding the last sample whose drop in
// DeltaPct is at least a quarter of the steepest one.
func lastDropCandidate(curve []CurveSample, stats CurveStatistics) (int, bool) {
	if stats.SteepestDrop >= 0 {
		return 0, false
	}
	threshold := stats.SteepestDrop * significantDropFraction
	k, found := 0, false
	for _, s := range curve {
		if s.K > 1 && s.DiffDeltaPct < threshold {
			k, found = s.K-1, true
		}
	}
	return k, found
}

func secondDerivativeCandidate(curve []CurveSample) (int, bool) {
	best, found := math.Inf(-1), false
	k := 0
	for _, s := range curve {
		if s.K > 1 && s.DeltaOfDeltaPct > best {
			best, k, found = s.DeltaOfDeltaPct, s.K-1, true
		}
	}
	return k, found
}

func triangleCandidate(curve []CurveSample, stats CurveStatistics) (int, bool) {
	best, found := math.Inf(-1), false
	k := 0
	for i := 2; i < len(curve); i++ {
		a, b, c := scaled(curve, i-2, stats), scaled(curve, i-1, stats), scaled(curve, i, stats)
		if h := triangleHeight(a, b, c); h > best {
			best, k, found = h, curve[i].K-1, true
		}
	}
	return k, found
}

func angleCandidate(curve []CurveSample, stats CurveStatistics) (int, bool) {
	best, found := 360.0, false
	k := 0
	for i := 2; i < len(curve); i++ {
		a, b, c := scaled(curve, i-2, stats), scaled(curve, i-1, stats), scaled(curve, i, stats)
		angle, ok := bendAngle(a, b, c)
		if ok && angle < best {
			best, k, found = angle, curve[i].K-1, true
		}
	}
	return k, found
}

// point is a curve sample in the unit (complexity, distortion) plane.
type point struct {
	x, y float64
}

func scaled(curve []CurveSample, i int, stats CurveStatistics) point {
	return point{
		x: float64(curve[i].K) / float64(len(curve)),
		y: ratio(curve[i].Distortion, stats.MaxDistortion),
	}
}

func (p point) sub(q point) point { return point{p.x - q.x, p.y - q.y} }

func (p point) norm() float64 { return math.Hypot(p.x, p.y) }

// triangleHeight returns the height of triangle abc over the base ac, using
// Heron's formula. A degenerate base yields 0.
func triangleHeight(a, b, c point) float64 {
	ab := b.sub(a).norm()
	bc := c.sub(b).norm()
	ac := c.sub(a).norm()
	if ac == 0 {
		return 0
	}
	s := (ab + bc + ac) / 2
	sq := s * (s - ab) * (s - bc) * (s - ac)
	if sq <= 0 {
		return 0
	}
	return 2 * math.Sqrt(sq) / ac
}

// bendAngle returns the angle at mid between the rays to prev and next, in
// degrees within [0, 360). ok is false when either ray has zero length.
func bendAngle(prev, mid, next point) (angle float64, ok bool) {
	back, fwd := prev.sub(mid), next.sub(mid)
	if back.norm() == 0 || fwd.norm() == 0 {
		return 0, false
	}
	angle = (math.Atan2(back.y, back.x) - math.Atan2(fwd.y, fwd.x)) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	if angle >= 360 {
		angle -= 360
	}
	return angle, true
}
