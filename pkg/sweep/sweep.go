package sweep

import (
	"context"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/runningwild/kfinder/pkg/analyze"
	"github.com/runningwild/kfinder/pkg/dataset"
	"github.com/runningwild/kfinder/pkg/engine"
	"github.com/runningwild/kfinder/pkg/stats"
)

// Curve is the annotated distortion curve for k = 1..MaxK.
type Curve struct {
	Samples []analyze.CurveSample
	Stats   analyze.CurveStatistics
}

// Sweeper fits one model per k and records the distortion curve.
type Sweeper struct {
	eng     engine.Engine
	workers int
	hist    *stats.Histogram
	logger  *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithWorkers runs up to n fits concurrently. n <= 1 fits sequentially.
func WithWorkers(n int) Option {
	return func(s *Sweeper) { s.workers = n }
}

// WithHistogram records each fit's wall time into h.
func WithHistogram(h *stats.Histogram) Option {
	return func(s *Sweeper) { s.hist = h }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(eng engine.Engine, opts ...Option) *Sweeper {
	s := &Sweeper{
		eng:     eng,
		workers: 1,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run fits k = 1..maxK, forwarding params with K replaced. The first fit
// error is returned as-is and no curve is produced.
func (s *Sweeper) Run(ctx context.Context, data dataset.Matrix, maxK int, params engine.Params) (Curve, error) {
	s.logger.InfoContext(ctx, "sweeping cluster counts", "max_k", maxK, "workers", s.workers)

	if s.workers <= 1 {
		return s.runSequential(ctx, data, maxK, params)
	}
	return s.runParallel(ctx, data, maxK, params)
}

func (s *Sweeper) runSequential(ctx context.Context, data dataset.Matrix, maxK int, params engine.Params) (Curve, error) {
	var ann analyze.Annotator
	samples := make([]analyze.CurveSample, 0, maxK)
	for k := 1; k <= maxK; k++ {
		d, err := s.fit(ctx, data, k, params)
		if err != nil {
			return Curve{}, err
		}
		samples = append(samples, ann.Next(d))
	}
	return Curve{Samples: samples, Stats: ann.Statistics()}, nil
}

// runParallel stores each distortion at index k-1 and annotates in k order
// once every fit has finished.
func (s *Sweeper) runParallel(ctx context.Context, data dataset.Matrix, maxK int, params engine.Params) (Curve, error) {
	distortions := make([]float64, maxK)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for k := 1; k <= maxK; k++ {
		g.Go(func() error {
			d, err := s.fit(gctx, data, k, params)
			if err != nil {
				return err
			}
			distortions[k-1] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Curve{}, err
	}

	samples, curveStats := analyze.Annotate(distortions)
	return Curve{Samples: samples, Stats: curveStats}, nil
}

func (s *Sweeper) fit(ctx context.Context, data dataset.Matrix, k int, params engine.Params) (float64, error) {
	p := params
	p.K = k

	start := time.Now()
	m, err := s.eng.Fit(ctx, data, p)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.ErrorContext(ctx, "fit failed", "k", k, "error", err)
		return 0, err
	}
	if s.hist != nil {
		s.hist.Record(elapsed)
	}

	d := math.Sqrt(m.Inertia)
	s.logger.DebugContext(ctx, "fit completed",
		"k", k,
		"inertia", m.Inertia,
		"distortion", d,
		"duration", elapsed,
	)
	return d, nil
}
