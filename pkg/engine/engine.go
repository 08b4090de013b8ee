package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/runningwild/kfinder/pkg/dataset"
)

// Lloyd is a local k-means engine. Fits are deterministic for a given
// Params.Seed.
type Lloyd struct{}

// New returns the engine registered under kind. An empty kind selects Lloyd.
func New(kind string) (Engine, error) {
	switch kind {
	case "", "lloyd":
		return &Lloyd{}, nil
	default:
		return nil, fmt.Errorf("unknown engine: %s", kind)
	}
}

// Fit runs params.NInit seeded restarts and keeps the lowest-inertia model.
func (e *Lloyd) Fit(ctx context.Context, data dataset.Matrix, params Params) (*Model, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	p := params.WithDefaults()
	if p.K < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, p.K)
	}
	if p.K > data.Rows() {
		return nil, fmt.Errorf("%w: %d samples, k=%d", ErrTooFewSamples, data.Rows(), p.K)
	}
	if p.Init != InitKMeansPP && p.Init != InitRandom {
		return nil, fmt.Errorf("unknown init strategy: %s", p.Init)
	}

	r := rand.New(rand.NewSource(p.Seed))
	tol := p.Tolerance * meanVariance(data)

	var best *Model
	for run := 0; run < p.NInit; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := e.fitOnce(ctx, data, p, tol, r)
		if err != nil {
			return nil, err
		}
		if best == nil || m.Inertia < best.Inertia {
			best = m
		}
	}
	return best, nil
}

func (e *Lloyd) fitOnce(ctx context.Context, data dataset.Matrix, p Params, tol float64, r *rand.Rand) (*Model, error) {
	n, dim, k := data.Rows(), data.Cols(), p.K

	var centroids [][]float64
	if p.Init == InitRandom {
		centroids = initRandom(data, k, r)
	} else {
		centroids = initPlusPlus(data, k, r)
	}

	labels := make([]int, n)
	dists := make([]float64, n)
	counts := make([]int, k)
	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}

	iter := 0
	for iter < p.MaxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iter++
		assign(data, centroids, labels, dists)

		// Update step
		for j := range sums {
			for d := range sums[j] {
				sums[j][d] = 0
			}
			counts[j] = 0
		}
		for i, row := range data {
			floats.Add(sums[labels[i]], row)
			counts[labels[i]]++
		}

		shift := 0.0
		for j := 0; j < k; j++ {
			next := sums[j]
			if counts[j] > 0 {
				floats.Scale(1/float64(counts[j]), next)
			} else {
				// Reseed an empty cluster with the worst-served point.
				far := floats.MaxIdx(dists)
				copy(next, data[far])
				dists[far] = 0
			}
			d := floats.Distance(centroids[j], next, 2)
			shift += d * d
			copy(centroids[j], next)
		}

		if shift <= tol {
			break
		}
	}

	inertia := assign(data, centroids, labels, dists)
	return &Model{
		K:          k,
		Centroids:  centroids,
		Labels:     labels,
		Inertia:    inertia,
		Iterations: iter,
	}, nil
}

// assign sets each row's nearest centroid and squared distance, and returns
// the total.
func assign(data dataset.Matrix, centroids [][]float64, labels []int, dists []float64) float64 {
	total := 0.0
	for i, row := range data {
		best, bestDist := 0, math.Inf(1)
		for j, c := range centroids {
			d := sqDist(row, c)
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		labels[i] = best
		dists[i] = bestDist
		total += bestDist
	}
	return total
}

func initRandom(data dataset.Matrix, k int, r *rand.Rand) [][]float64 {
	perm := r.Perm(data.Rows())
	centroids := make([][]float64, k)
	for j := range centroids {
		centroids[j] = append([]float64(nil), data[perm[j]]...)
	}
	return centroids
}

// initPlusPlus seeds centroids with probability proportional to the squared
// distance from the nearest centroid chosen so far.
func initPlusPlus(data dataset.Matrix, k int, r *rand.Rand) [][]float64 {
	n := data.Rows()
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), data[r.Intn(n)]...))

	closest := make([]float64, n)
	for i, row := range data {
		closest[i] = sqDist(row, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(closest)
		next := r.Intn(n)
		if total > 0 {
			target := r.Float64() * total
			acc := 0.0
			for i, d := range closest {
				if d == 0 {
					continue
				}
				next = i
				acc += d
				if acc >= target {
					break
				}
			}
		}
		c := append([]float64(nil), data[next]...)
		centroids = append(centroids, c)
		for i, row := range data {
			if d := sqDist(row, c); d < closest[i] {
				closest[i] = d
			}
		}
	}
	return centroids
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func meanVariance(data dataset.Matrix) float64 {
	n := float64(data.Rows())
	mean := make([]float64, data.Cols())
	for _, row := range data {
		floats.Add(mean, row)
	}
	floats.Scale(1/n, mean)

	v := 0.0
	for _, row := range data {
		v += sqDist(row, mean)
	}
	return v / n / float64(data.Cols())
}
