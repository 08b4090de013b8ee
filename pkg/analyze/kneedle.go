package analyze

import (
	"sort"
)

// Direction describes how Y moves as X grows.
type Direction int

const (
	// Increasing is a saturation curve: rising and flattening out.
	Increasing Direction = iota
	// Decreasing is a distortion curve: falling and flattening out.
	Decreasing
)

// FindKnee implements the Kneedle algorithm to find the point of maximum curvature.
// Decreasing curves are mirrored so the knee is always the point furthest
// above the diagonal of the normalized plot.
func FindKnee(points []Point, dir Direction) Point {
	if len(points) < 3 {
		if len(points) > 0 {
			return points[len(points)-1]
		}
		return Point{}
	}

	// Sort a copy by X
	points = append([]Point(nil), points...)
	sort.Slice(points, func(i, j int) bool {
		return points[i].X < points[j].X
	})

	minX, maxX := points[0].X, points[len(points)-1].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	// Avoid divide by zero
	if maxX == minX || maxY == minY {
		return points[len(points)-1]
	}

	maxDist := -1.0
	var knee Point

	for _, p := range points {
		xNorm := (p.X - minX) / (maxX - minX)
		yNorm := (p.Y - minY) / (maxY - minY)
		if dir == Decreasing {
			yNorm = 1 - yNorm
		}

		// Distance above the diagonal y = x
		dist := yNorm - xNorm
		if dist > maxDist {
			maxDist = dist
			knee = p
		}
	}

	return knee
}
