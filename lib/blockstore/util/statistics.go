package util

import (
	"math"
	"strconv"
	"sync"
)

// ----------------------------------------------------------------------------
// Summary statistics
// ----------------------------------------------------------------------------

// Stats is the summary of a set of samples
type Stats struct {
	Count        int     `json:"count"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	StdDeviation float64 `json:"std_deviation"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes count, min, max, mean and the population standard
// deviation of values. An empty input yields the zero Stats.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	s := Stats{Count: len(values), Min: values[0], Max: values[0]}

	var sum float64
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(len(values))

	var squares float64
	for _, v := range values {
		d := v - s.Mean
		squares += d * d
	}
	s.StdDeviation = math.Sqrt(squares / float64(len(values)))

	s.MinMaxRatio = 1.0
	if s.Max > 0 {
		s.MinMaxRatio = s.Min / s.Max
	}

	return s
}

// DistributionStats rates how evenly samples (e.g. entries per prefix) are
// spread. Quality is 1 for a perfectly even distribution and approaches 0
// for a heavily skewed one.
type DistributionStats struct {
	Stats
	Quality float64 `json:"quality"`
}

// NewDistributionStats computes distribution quality as the mean of
// (1 - coefficient of variation) and the min/max ratio.
func NewDistributionStats(sizes []float64) DistributionStats {
	stats := NewStats(sizes)
	if stats.Count == 0 {
		return DistributionStats{}
	}

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	return DistributionStats{
		Stats:   stats,
		Quality: (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5,
	}
}

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// sizeBoundaries are the upper bounds (inclusive) of the histogram buckets.
// Values above the last bound go into an overflow bucket.
var sizeBoundaries = []int{
	8, 16, 32, 64, 128, 256, 512, // small scalars and short strings
	1 << 10, 4 << 10, 16 << 10, 64 << 10, // vectors, records, bitmaps
	256 << 10, 1 << 20, 4 << 20, 16 << 20, // large bitmaps
}

// SizeHistogram counts value sizes in exponentially growing buckets. It gives
// cheap median and percentile estimates without keeping the samples.
//
// Thread-safety: All methods are safe for concurrent use.
type SizeHistogram struct {
	mu      sync.RWMutex
	buckets []int64 // len(sizeBoundaries)+1, the last one is the overflow bucket
	count   int64
	sum     int64
}

// NewSizeHistogram creates an empty histogram
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{
		buckets: make([]int64, len(sizeBoundaries)+1),
	}
}

// Add records one size sample
func (h *SizeHistogram) Add(size int) {
	i := len(sizeBoundaries)
	for j, bound := range sizeBoundaries {
		if size <= bound {
			i = j
			break
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.buckets[i]++
	h.count++
	h.sum += int64(size)
}

// Count returns the number of samples
func (h *SizeHistogram) Count() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Mean returns the exact mean of all samples
func (h *SizeHistogram) Mean() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// Median estimates the median sample
func (h *SizeHistogram) Median() int {
	return h.Percentile(50)
}

// Percentile estimates the given percentile (0-100). The estimate is the
// midpoint of the bucket the percentile falls into.
func (h *SizeHistogram) Percentile(p int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 || p < 0 || p > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * float64(p) / 100.0))
	var seen int64
	for i, n := range h.buckets {
		seen += n
		if seen >= target && n > 0 {
			return bucketMidpoint(i)
		}
	}
	return bucketMidpoint(len(h.buckets) - 1)
}

// Buckets returns the share (in percent) of samples per bucket, keyed by
// the bucket's upper bound ("+Inf" for the overflow bucket). Empty buckets
// are left out.
func (h *SizeHistogram) Buckets() map[string]float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]float64)
	if h.count == 0 {
		return out
	}
	for i, n := range h.buckets {
		if n == 0 {
			continue
		}
		label := "+Inf"
		if i < len(sizeBoundaries) {
			label = strconv.Itoa(sizeBoundaries[i])
		}
		out[label] = float64(n) * 100.0 / float64(h.count)
	}
	return out
}

func bucketMidpoint(i int) int {
	switch {
	case i == 0:
		return sizeBoundaries[0] / 2
	case i < len(sizeBoundaries):
		return (sizeBoundaries[i-1] + sizeBoundaries[i]) / 2
	default:
		return sizeBoundaries[len(sizeBoundaries)-1] * 2
	}
}
