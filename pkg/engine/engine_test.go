package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runningwild/kfinder/pkg/dataset"
)

func TestLloydFit(t *testing.T) {
	ctx := context.Background()
	// 2 clusters: near (0,0) and near (10,10)
	data := dataset.Matrix{
		{0, 0}, {0, 1}, {1, 0},
		{10, 10}, {10, 11}, {11, 10},
	}

	eng, err := New("lloyd")
	require.NoError(t, err)

	m, err := eng.Fit(ctx, data, Params{K: 2, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, m.K)
	assert.Len(t, m.Centroids, 2)
	assert.Len(t, m.Labels, len(data))

	assert.Equal(t, m.Labels[0], m.Labels[1])
	assert.Equal(t, m.Labels[0], m.Labels[2])
	assert.Equal(t, m.Labels[3], m.Labels[4])
	assert.NotEqual(t, m.Labels[0], m.Labels[3])

	// Each cluster is three points at squared distance 2/9, 5/9, 5/9 from its mean.
	assert.InDelta(t, 8.0/3.0, m.Inertia, 1e-9)
}

func TestLloydFit_SingleCluster(t *testing.T) {
	data := dataset.Matrix{{1}, {2}, {3}}
	m, err := (&Lloyd{}).Fit(context.Background(), data, Params{K: 1})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m.Inertia, 1e-12)
	assert.InDelta(t, 2.0, m.Centroids[0][0], 1e-12)
}

func TestLloydFit_KEqualsN(t *testing.T) {
	data := dataset.Matrix{{1, 1}, {5, 5}, {9, 9}}
	m, err := (&Lloyd{}).Fit(context.Background(), data, Params{K: 3, Seed: 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, m.Inertia, 1e-12)
}

func TestLloydFit_Deterministic(t *testing.T) {
	data, _ := dataset.Blobs(dataset.BlobParams{Centers: 5, PerCluster: 30, Dim: 2, Seed: 11})
	p := Params{K: 4, Seed: 42, NInit: 3}

	a, err := (&Lloyd{}).Fit(context.Background(), data, p)
	require.NoError(t, err)
	b, err := (&Lloyd{}).Fit(context.Background(), data, p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLloydFit_RandomInit(t *testing.T) {
	data, _ := dataset.Blobs(dataset.BlobParams{Centers: 3, PerCluster: 20, Seed: 5})
	m, err := (&Lloyd{}).Fit(context.Background(), data, Params{K: 3, Seed: 9, Init: InitRandom})
	require.NoError(t, err)
	assert.Equal(t, 3, m.K)
	assert.Positive(t, m.Iterations)
}

func TestLloydFit_Errors(t *testing.T) {
	ctx := context.Background()
	eng := &Lloyd{}
	data := dataset.Matrix{{0, 0}, {1, 1}}

	_, err := eng.Fit(ctx, data, Params{K: 0})
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = eng.Fit(ctx, data, Params{K: 3})
	assert.ErrorIs(t, err, ErrTooFewSamples)

	_, err = eng.Fit(ctx, dataset.Matrix{}, Params{K: 1})
	assert.ErrorIs(t, err, dataset.ErrEmpty)

	_, err = eng.Fit(ctx, data, Params{K: 1, Init: "bogus"})
	assert.Error(t, err)

	_, err = New("uring")
	assert.Error(t, err)
}

func TestLloydFit_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data, _ := dataset.Blobs(dataset.BlobParams{Centers: 2, PerCluster: 50, Seed: 1})
	_, err := (&Lloyd{}).Fit(ctx, data, Params{K: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParamsWithDefaults(t *testing.T) {
	p := Params{K: 4, Seed: 13, Extra: map[string]string{"algorithm": "elkan"}}.WithDefaults()
	assert.Equal(t, 4, p.K)
	assert.Equal(t, int64(13), p.Seed)
	assert.Equal(t, 300, p.MaxIter)
	assert.Equal(t, 10, p.NInit)
	assert.Equal(t, 1e-4, p.Tolerance)
	assert.Equal(t, InitKMeansPP, p.Init)
	assert.Equal(t, "elkan", p.Extra["algorithm"])
}
