package sweep

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runningwild/kfinder/pkg/analyze"
	"github.com/runningwild/kfinder/pkg/dataset"
	"github.com/runningwild/kfinder/pkg/engine"
	"github.com/runningwild/kfinder/pkg/stats"
)

type mockEngine struct {
	mu      sync.Mutex
	calls   []engine.Params
	fitFunc func(params engine.Params) (*engine.Model, error)
}

func (m *mockEngine) Fit(_ context.Context, _ dataset.Matrix, params engine.Params) (*engine.Model, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()
	return m.fitFunc(params)
}

// inertiaOf returns an engine whose inertia is inertia[k-1].
func inertiaOf(inertia ...float64) *mockEngine {
	return &mockEngine{
		fitFunc: func(p engine.Params) (*engine.Model, error) {
			return &engine.Model{K: p.K, Inertia: inertia[p.K-1]}, nil
		},
	}
}

var data = dataset.Matrix{{0}, {1}}

func TestSweeperRun(t *testing.T) {
	mock := inertiaOf(10000, 3600, 900, 729)
	params := engine.Params{K: 99, Seed: 13, Extra: map[string]string{"algorithm": "elkan"}}

	curve, err := New(mock).Run(context.Background(), data, 4, params)
	require.NoError(t, err)

	require.Len(t, mock.calls, 4)
	for i, p := range mock.calls {
		assert.Equal(t, i+1, p.K)
		assert.Equal(t, int64(13), p.Seed)
		assert.Equal(t, "elkan", p.Extra["algorithm"])
	}

	want, wantStats := analyze.Annotate([]float64{100, 60, 30, 27})
	assert.Equal(t, want, curve.Samples)
	assert.Equal(t, wantStats, curve.Stats)
}

func TestSweeperRun_ParallelMatchesSequential(t *testing.T) {
	inertia := make([]float64, 12)
	for i := range inertia {
		inertia[i] = 1000 / math.Pow(float64(i+1), 1.5)
	}
	params := engine.Params{Seed: 1}

	seq, err := New(inertiaOf(inertia...)).Run(context.Background(), data, 12, params)
	require.NoError(t, err)

	hist := stats.NewHistogram()
	mock := inertiaOf(inertia...)
	par, err := New(mock, WithWorkers(4), WithHistogram(hist)).Run(context.Background(), data, 12, params)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	assert.Len(t, mock.calls, 12)
	assert.Equal(t, int64(12), hist.Count())
}

func TestSweeperRun_FitErrorIsReturnedUnchanged(t *testing.T) {
	boom := errors.New("fit exploded")
	for _, workers := range []int{1, 3} {
		mock := &mockEngine{
			fitFunc: func(p engine.Params) (*engine.Model, error) {
				if p.K == 3 {
					return nil, boom
				}
				return &engine.Model{K: p.K, Inertia: 1}, nil
			},
		}
		curve, err := New(mock, WithWorkers(workers)).Run(context.Background(), data, 5, engine.Params{})
		assert.Same(t, boom, err)
		assert.Empty(t, curve.Samples)
	}
}

func TestSweeperRun_Sequential_StopsAtFirstFailure(t *testing.T) {
	mock := &mockEngine{
		fitFunc: func(p engine.Params) (*engine.Model, error) {
			if p.K == 2 {
				return nil, engine.ErrTooFewSamples
			}
			return &engine.Model{Inertia: 1}, nil
		},
	}
	_, err := New(mock).Run(context.Background(), data, 5, engine.Params{})
	assert.ErrorIs(t, err, engine.ErrTooFewSamples)
	assert.Len(t, mock.calls, 2)
}

func TestSweeperRun_WithLloyd(t *testing.T) {
	blobs, _ := dataset.Blobs(dataset.BlobParams{Centers: 3, PerCluster: 20, Seed: 2})
	eng, err := engine.New("lloyd")
	require.NoError(t, err)

	curve, err := New(eng).Run(context.Background(), blobs, 5, engine.Params{Seed: 4, NInit: 3})
	require.NoError(t, err)
	require.Len(t, curve.Samples, 5)
	assert.Equal(t, curve.Samples[0].Distortion, curve.Stats.MaxDistortion)
	for i := 1; i < len(curve.Samples); i++ {
		assert.LessOrEqual(t, curve.Samples[i].Distortion, curve.Samples[i-1].Distortion)
	}
}
