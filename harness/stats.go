package harness

import (
	"math"
	"slices"
	"time"
)

// Stats summarizes a set of round timings.
type Stats struct {
	Rounds int
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	Median time.Duration
	StdDev time.Duration
	// OPS is rounds per second based on the mean.
	OPS float64
}

// computeStats summarizes samples. StdDev is the sample standard
// deviation and is zero for a single round.
func computeStats(samples []time.Duration) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	var sum float64
	for _, s := range sorted {
		sum += float64(s)
	}

	n := len(sorted)
	mean := sum / float64(n)

	var median float64
	if n%2 == 1 {
		median = float64(sorted[n/2])
	} else {
		median = (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
	}

	var stddev float64
	if n > 1 {
		var sq float64
		for _, s := range sorted {
			d := float64(s) - mean
			sq += d * d
		}

		stddev = math.Sqrt(sq / float64(n-1))
	}

	st := Stats{
		Rounds: n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   time.Duration(math.Round(mean)),
		Median: time.Duration(math.Round(median)),
		StdDev: time.Duration(math.Round(stddev)),
	}

	if mean > 0 {
		st.OPS = float64(time.Second) / mean
	}

	return st
}
