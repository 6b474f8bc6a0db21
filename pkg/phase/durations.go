package phase

import (
	"sort"
	"time"
)

// Durations is a list of measured durations with summary statistics.
type Durations []time.Duration

// Summary holds the summary statistics of a Durations list.
type Summary struct {
	Count         int
	Avg, Min, Max time.Duration
	P50, P95      time.Duration
}

// Summary computes all statistics of ds in one call.
func (ds Durations) Summary() Summary {
	return Summary{
		Count: len(ds),
		Avg:   ds.Average(),
		Min:   ds.Minimum(),
		Max:   ds.Maximum(),
		P50:   ds.Median(),
		P95:   ds.Percentile(95),
	}
}

// Average calculates the mean of a slice of time.Duration values.
func (ds Durations) Average() time.Duration {
	if len(ds) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total / time.Duration(len(ds))
}

// Minimum finds the smallest time.Duration in the slice.
func (ds Durations) Minimum() time.Duration {
	if len(ds) == 0 {
		return 0
	}
	return ds.sorted()[0]
}

// Maximum finds the largest time.Duration in the slice.
func (ds Durations) Maximum() time.Duration {
	if len(ds) == 0 {
		return 0
	}
	return ds.sorted()[len(ds)-1]
}

// Median finds the middle value of the slice.
func (ds Durations) Median() time.Duration {
	if len(ds) == 0 {
		return 0
	}

	sorted := ds.sorted()
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Percentile calculates the Pxx value of the slice.
// Given percentile should be between 0 and 100.
func (ds Durations) Percentile(percentile float64) time.Duration {
	if len(ds) == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	sorted := ds.sorted()
	index := int(float64(len(sorted)-1) * (percentile / 100.0))
	return sorted[index]
}

// sorted returns a sorted copy, leaving ds untouched.
func (ds Durations) sorted() Durations {
	out := make(Durations, len(ds))
	copy(out, ds)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
