package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, Stats{}, NewStats(nil))
	})

	t.Run("values", func(t *testing.T) {
		s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		assert.Equal(t, 8, s.Count)
		assert.Equal(t, 2.0, s.Min)
		assert.Equal(t, 9.0, s.Max)
		assert.Equal(t, 5.0, s.Mean)
		assert.InDelta(t, 2.0, s.StdDeviation, 1e-9)
		assert.InDelta(t, 2.0/9.0, s.MinMaxRatio, 1e-9)
	})
}

func TestDistributionStats(t *testing.T) {
	even := NewDistributionStats([]float64{10, 10, 10, 10})
	assert.InDelta(t, 1.0, even.Quality, 1e-9)

	skewed := NewDistributionStats([]float64{1, 1, 1, 100})
	assert.Less(t, skewed.Quality, even.Quality)

	assert.Equal(t, DistributionStats{}, NewDistributionStats(nil))
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	assert.Equal(t, 0, h.Median())
	assert.Empty(t, h.Buckets())

	for i := 0; i < 90; i++ {
		h.Add(4)
	}
	for i := 0; i < 10; i++ {
		h.Add(100)
	}

	assert.Equal(t, int64(100), h.Count())
	assert.Equal(t, (90*4+10*100)/100, h.Mean())
	assert.Equal(t, 4, h.Median()) // first bucket midpoint
	assert.Equal(t, (64+128)/2, h.Percentile(99))
	assert.Equal(t, 0, h.Percentile(101))

	buckets := h.Buckets()
	require.Len(t, buckets, 2)
	assert.InDelta(t, 90.0, buckets["8"], 1e-9)
	assert.InDelta(t, 10.0, buckets["128"], 1e-9)

	h.Add(1 << 30)
	assert.Contains(t, h.Buckets(), "+Inf")
}

func TestSizeHistogramConcurrent(t *testing.T) {
	h := NewSizeHistogram()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				h.Add(i)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8000), h.Count())
}
