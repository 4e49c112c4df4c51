package lib

import "math"

// AverageInt64 tracks the running distribution of request sizes an
// Arena routes to one size class, so callers can see how much of a
// block's capacity actual requests are using without keeping every
// sample around.
type AverageInt64 struct {
	n      int64
	minval int64
	maxval int64
	sum    int64
	sumsq  float64
	init   bool
}

// Add a sample.
func (av *AverageInt64) Add(sample int64) {
	av.n++
	av.sum += sample
	f := float64(sample)
	av.sumsq += f * f
	if av.init == false || sample < av.minval {
		av.minval = sample
		av.init = true
	}
	if av.maxval < sample {
		av.maxval = sample
	}
}

func (av *AverageInt64) Min() int64 {
	return av.minval
}

func (av *AverageInt64) Max() int64 {
	return av.maxval
}

func (av *AverageInt64) Samples() int64 {
	return av.n
}

func (av *AverageInt64) Sum() int64 {
	return av.sum
}

func (av *AverageInt64) Mean() int64 {
	if av.n == 0 {
		return 0
	}
	return int64(float64(av.sum) / float64(av.n))
}

func (av *AverageInt64) Variance() int64 {
	if av.n == 0 {
		return 0
	}
	samples, mean := float64(av.n), float64(av.Mean())
	return int64((av.sumsq / samples) - (mean * mean))
}

func (av *AverageInt64) SD() int64 {
	if av.n == 0 {
		return 0
	}
	return int64(math.Sqrt(float64(av.Variance())))
}

func (av *AverageInt64) Clone() *AverageInt64 {
	newav := (*av)
	return &newav
}

// Fragmentation reports the average number of bytes left unused inside
// a block of blockSize when sized against the requests actually seen so
// far: blockSize minus the running mean request size. It is zero once
// requests start exceeding blockSize on average, which only happens if
// the caller mismeasured its own size class.
func (av *AverageInt64) Fragmentation(blockSize int64) float64 {
	if av.n == 0 {
		return 0
	}
	waste := float64(blockSize) - float64(av.Mean())
	if waste < 0 {
		return 0
	}
	return waste
}

// Stats renders the running sample set, plus internal-fragmentation
// against blockSize, as a map suitable for Prettystats/JSON reporting.
func (av *AverageInt64) Stats(blockSize int64) map[string]interface{} {
	stats := map[string]interface{}{
		"samples":       av.Samples(),
		"min":           av.Min(),
		"max":           av.Max(),
		"mean":          av.Mean(),
		"variance":      av.Variance(),
		"stddev":        av.SD(),
		"fragmentation": av.Fragmentation(blockSize),
	}
	return stats
}
