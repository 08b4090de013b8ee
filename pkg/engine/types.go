package engine

import (
	"context"
	"errors"

	"github.com/runningwild/kfinder/pkg/dataset"
)

var (
	// ErrInvalidK is returned when the requested cluster count is below 1.
	ErrInvalidK = errors.New("cluster count must be positive")
	// ErrTooFewSamples is returned when there are fewer rows than clusters.
	ErrTooFewSamples = errors.New("fewer samples than clusters")
)

// Engine fits a clustering model with params.K clusters.
type Engine interface {
	Fit(ctx context.Context, data dataset.Matrix, params Params) (*Model, error)
}

// Init strategies for centroid seeding.
const (
	InitKMeansPP = "k-means++"
	InitRandom   = "random"
)

// Params defines the options for a single fit. Callers hand the same Params
// to every fit of a sweep; only K changes between runs.
type Params struct {
	K         int               `json:"k" yaml:"-"`
	Seed      int64             `json:"seed" yaml:"seed"`
	MaxIter   int               `json:"max_iter" yaml:"max_iter"`
	NInit     int               `json:"n_init" yaml:"n_init"`
	Tolerance float64           `json:"tolerance" yaml:"tolerance"`
	Init      string            `json:"init" yaml:"init"`
	Extra     map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"` // Opaque, forwarded untouched
}

// WithDefaults fills zero fields with the defaults used by the Lloyd engine.
func (p Params) WithDefaults() Params {
	if p.MaxIter <= 0 {
		p.MaxIter = 300
	}
	if p.NInit <= 0 {
		p.NInit = 10
	}
	if p.Tolerance <= 0 {
		p.Tolerance = 1e-4
	}
	if p.Init == "" {
		p.Init = InitKMeansPP
	}
	return p
}

// Model is a fitted clustering.
type Model struct {
	K          int         `json:"k"`
	Centroids  [][]float64 `json:"centroids"`
	Labels     []int       `json:"labels"`
	Inertia    float64     `json:"inertia"` // Sum of squared distances to the assigned centroid
	Iterations int         `json:"iterations"`
}
