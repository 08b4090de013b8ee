package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistogram(t *testing.T) {
	h := NewHistogram()
	assert.Equal(t, time.Duration(0), h.Quantile(0.5))

	for i := 1; i <= 100; i++ {
		h.Record(time.Duration(i) * time.Millisecond)
	}
	assert.Equal(t, int64(100), h.Count())

	p50 := h.Quantile(0.5)
	assert.InDelta(t, float64(50*time.Millisecond), float64(p50), float64(time.Millisecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(h.Max()), float64(time.Millisecond))
	assert.InDelta(t, float64(50500*time.Microsecond), float64(h.Mean()), float64(time.Millisecond))
}

func TestHistogram_Clamp(t *testing.T) {
	h := NewHistogram()
	h.Record(0)
	h.Record(-time.Second)
	assert.Equal(t, int64(2), h.Count())
	assert.Equal(t, time.Microsecond, h.Max())
}

func TestHistogram_Merge(t *testing.T) {
	a, b := NewHistogram(), NewHistogram()
	a.Record(time.Millisecond)
	b.Record(2 * time.Millisecond)
	b.Record(3 * time.Millisecond)

	a.Merge(b)
	a.Merge(nil)
	a.Merge(a)
	assert.Equal(t, int64(3), a.Count())
	assert.Equal(t, int64(2), b.Count())

	s := a.Summary()
	assert.Equal(t, int64(3), s.Count)
	assert.InDelta(t, float64(3*time.Millisecond), float64(s.Max), float64(10*time.Microsecond))
}
