package analyze

import "math"

// Point is a single (X, Y) measurement.
type Point struct {
	X float64
	Y float64
}

// Diagnostics describe the shape of a distortion curve. They never take
// part in the vote.
type Diagnostics struct {
	// Number of k where distortion rose above the previous k.
	MonotonicityViolations int `json:"monotonicity_violations"`
	// 1 for a non-increasing curve, lower with each violation.
	Confidence float64 `json:"confidence"`
	// Knee of the raw curve according to Kneedle.
	KneedleK int `json:"kneedle_k"`
}

// Diagnose inspects an annotated curve.
func Diagnose(curve []CurveSample) Diagnostics {
	points := make([]Point, len(curve))
	for i, s := range curve {
		points[i] = Point{X: float64(s.K), Y: s.Distortion}
	}
	return Diagnostics{
		MonotonicityViolations: countIncreases(points),
		Confidence:             CalculateConfidence(points),
		KneedleK:               int(FindKnee(points, Decreasing).X),
	}
}

// CalculateConfidence returns a value between 0 and 1 representing
// how "clean" the curve is. A distortion curve should never rise with k,
// so every rise counts against it.
func CalculateConfidence(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}
	violations := countIncreases(points)
	return math.Max(0, 1.0-float64(violations)/float64(len(points)))
}

func countIncreases(points []Point) int {
	violations := 0
	for i := 1; i < len(points); i++ {
		if points[i].Y > points[i-1].Y {
			violations++
		}
	}
	return violations
}
