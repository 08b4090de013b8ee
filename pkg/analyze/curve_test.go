package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotate(t *testing.T) {
	curve, stats := Annotate([]float64{100, 60, 30, 27})
	require.Len(t, curve, 4)

	for i, s := range curve {
		assert.Equal(t, i+1, s.K)
	}

	first := curve[0]
	assert.Equal(t, 0.0, first.DeltaPct)
	assert.Equal(t, 0.0, first.DiffDeltaPct)
	assert.Equal(t, 0.0, first.DeltaOfDeltaPct)
	assert.Equal(t, -1.0, first.ComplexityAdjustedDiff)

	assert.InDelta(t, 0.4, curve[1].DeltaPct, 1e-12)
	assert.InDelta(t, 0.4, curve[1].DiffDeltaPct, 1e-12)
	assert.Equal(t, 0.0, curve[1].DeltaOfDeltaPct)
	assert.InDelta(t, -0.1, curve[1].ComplexityAdjustedDiff, 1e-12)

	assert.InDelta(t, 0.5, curve[2].DeltaPct, 1e-12)
	assert.InDelta(t, 0.1, curve[2].DiffDeltaPct, 1e-12)
	assert.InDelta(t, -0.25, curve[2].DeltaOfDeltaPct, 1e-12)
	assert.InDelta(t, 0.5-1.0/3, curve[2].ComplexityAdjustedDiff, 1e-12)

	assert.InDelta(t, 0.1, curve[3].DeltaPct, 1e-12)
	assert.InDelta(t, -0.4, curve[3].DiffDeltaPct, 1e-12)
	assert.InDelta(t, 0.8, curve[3].DeltaOfDeltaPct, 1e-12)

	assert.Equal(t, 100.0, stats.MaxDistortion)
	assert.InDelta(t, -0.4, stats.SteepestDrop, 1e-12)
}

func TestAnnotate_ZeroDenominators(t *testing.T) {
	curve, stats := Annotate([]float64{10, 0, 0, 0})
	assert.InDelta(t, 1.0, curve[1].DeltaPct, 1e-12)
	assert.Equal(t, 0.0, curve[2].DeltaPct) // previous distortion was 0
	assert.InDelta(t, 1.0, curve[2].DeltaOfDeltaPct, 1e-12)
	assert.Equal(t, 0.0, curve[3].DeltaOfDeltaPct) // previous DeltaPct was 0
	assert.InDelta(t, -1.0, stats.SteepestDrop, 1e-12)

	curve, stats = Annotate([]float64{0, 0, 0})
	for _, s := range curve {
		assert.Equal(t, 0.0, s.DeltaPct)
		assert.Equal(t, 0.0, s.DeltaOfDeltaPct)
	}
	assert.Equal(t, 0.0, stats.MaxDistortion)
	assert.Equal(t, 0.0, stats.SteepestDrop)
}

func TestAnnotator_Streaming(t *testing.T) {
	distortions := []float64{50, 40, 20, 19, 18.5}
	want, wantStats := Annotate(distortions)

	var a Annotator
	for i, d := range distortions {
		assert.Equal(t, want[i], a.Next(d))
	}
	assert.Equal(t, wantStats, a.Statistics())
}

func TestAnnotate_NoDrop(t *testing.T) {
	// DeltaPct grows at every step, so nothing ever slows down.
	_, stats := Annotate([]float64{100, 90, 70, 40})
	assert.Equal(t, 0.0, stats.SteepestDrop)
}
