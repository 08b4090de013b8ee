// Package finder picks the number of k-means clusters for a dataset.
//
// A Finder sweeps k = 1..MaxK through an engine.Engine, scores the
// resulting distortion curve with five elbow heuristics and returns the k
// most of them agree on. Ties go to the larger k.
package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/runningwild/kfinder/pkg/analyze"
	"github.com/runningwild/kfinder/pkg/dataset"
	"github.com/runningwild/kfinder/pkg/engine"
	"github.com/runningwild/kfinder/pkg/stats"
	"github.com/runningwild/kfinder/pkg/sweep"
)

const (
	// DefaultMaxK is the largest k tried unless WithMaxK says otherwise.
	DefaultMaxK = 30
	// MinMaxK is the smallest usable MaxK: the geometric heuristics need
	// three consecutive samples.
	MinMaxK = 3
)

// ErrConfiguration is returned for unusable finder settings, before any
// fit has run.
var ErrConfiguration = errors.New("invalid finder configuration")

// Result is the outcome of one FindBestK run.
type Result struct {
	BestK       int                     `json:"best_k"`
	Candidates  analyze.CandidateSet    `json:"best_k_opts"`
	Curve       []analyze.CurveSample   `json:"curve"`
	Stats       analyze.CurveStatistics `json:"stats"`
	Diagnostics analyze.Diagnostics     `json:"diagnostics"`
}

type options struct {
	maxK    int
	params  engine.Params
	workers int
	hist    *stats.Histogram
	logger  *slog.Logger
}

// Option configures a Finder.
type Option func(*options)

// WithMaxK sets the largest k to try. It must be at least MinMaxK.
func WithMaxK(k int) Option {
	return func(o *options) { o.maxK = k }
}

// WithParams sets the fit parameters forwarded to every engine call. Their
// K is ignored.
func WithParams(p engine.Params) Option {
	return func(o *options) { o.params = p }
}

// WithWorkers fits up to n values of k concurrently.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithHistogram records fit durations into h.
func WithHistogram(h *stats.Histogram) Option {
	return func(o *options) { o.hist = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Finder holds the inputs of a k search and the last result. It is not safe
// for concurrent use.
type Finder struct {
	eng  engine.Engine
	data dataset.Matrix
	opts options

	result *Result
}

// New validates the configuration without fitting anything.
func New(eng engine.Engine, data dataset.Matrix, opts ...Option) (*Finder, error) {
	o := options{
		maxK:    DefaultMaxK,
		workers: 1,
		logger:  slog.Default(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	f := &Finder{eng: eng, data: data, opts: o}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Finder) validate() error {
	if f.eng == nil {
		return fmt.Errorf("%w: engine is nil", ErrConfiguration)
	}
	if f.opts.maxK < MinMaxK {
		return fmt.Errorf("%w: max_k=%d, need at least %d", ErrConfiguration, f.opts.maxK, MinMaxK)
	}
	return nil
}

// MaxK returns the largest k tried.
func (f *Finder) MaxK() int { return f.opts.maxK }

// FindBestK runs the full sweep and vote and returns the winning k. The
// previous result is replaced only on success. Engine errors are returned
// unchanged.
func (f *Finder) FindBestK(ctx context.Context) (int, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	logger := f.opts.logger

	s := sweep.New(f.eng,
		sweep.WithWorkers(f.opts.workers),
		sweep.WithHistogram(f.opts.hist),
		sweep.WithLogger(logger),
	)
	curve, err := s.Run(ctx, f.data, f.opts.maxK, f.opts.params)
	if err != nil {
		return 0, err
	}

	candidates := analyze.Evaluate(curve.Samples, curve.Stats)
	best, err := analyze.SelectConsensus(candidates)
	if err != nil {
		return 0, err
	}

	diag := analyze.Diagnose(curve.Samples)
	if diag.MonotonicityViolations > 0 {
		logger.WarnContext(ctx, "distortion rises with k; fits may not have converged",
			"violations", diag.MonotonicityViolations,
			"confidence", diag.Confidence,
		)
	}

	f.result = &Result{
		BestK:       best,
		Candidates:  candidates,
		Curve:       curve.Samples,
		Stats:       curve.Stats,
		Diagnostics: diag,
	}

	attrs := []any{"best_k", best}
	for _, m := range analyze.Methods {
		if k, ok := candidates[m]; ok {
			attrs = append(attrs, string(m), k)
		}
	}
	logger.InfoContext(ctx, "best k selected", attrs...)
	return best, nil
}

// BestK returns the last winning k. ok is false before the first
// successful FindBestK.
func (f *Finder) BestK() (k int, ok bool) {
	if f.result == nil {
		return 0, false
	}
	return f.result.BestK, true
}

// BestKOpts returns a copy of the last per-method candidates, or nil.
func (f *Finder) BestKOpts() analyze.CandidateSet {
	if f.result == nil {
		return nil
	}
	return f.result.Candidates.Clone()
}

// Result returns a copy of the last result.
func (f *Finder) Result() (Result, bool) {
	if f.result == nil {
		return Result{}, false
	}
	r := *f.result
	r.Candidates = r.Candidates.Clone()
	r.Curve = append([]analyze.CurveSample(nil), r.Curve...)
	return r, true
}

// FitBest fits one more model at the best k, running FindBestK first if it
// has not run yet.
func (f *Finder) FitBest(ctx context.Context) (*engine.Model, error) {
	if f.result == nil {
		if _, err := f.FindBestK(ctx); err != nil {
			return nil, err
		}
	}
	p := f.opts.params
	p.K = f.result.BestK
	return f.eng.Fit(ctx, f.data, p)
}
