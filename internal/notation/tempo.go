package notation

import "sort"

// DefaultTempoQPM is assumed when the melody gives the estimator nothing to
// work with.
const DefaultTempoQPM = 120.0

// EstimateTempo infers quarter notes per minute from note onset times. The
// median inter-onset interval is taken as one beat and folded into a
// comfortable 60-180 QPM range by doubling or halving.
func EstimateTempo(onsets []float64) float64 {
	if len(onsets) < 3 {
		return DefaultTempoQPM
	}
	intervals := make([]float64, 0, len(onsets)-1)
	for i := 1; i < len(onsets); i++ {
		delta := onsets[i] - onsets[i-1]
		if delta > 0.02 {
			intervals = append(intervals, delta)
		}
	}
	if len(intervals) == 0 {
		return DefaultTempoQPM
	}
	sort.Float64s(intervals)
	median := intervals[len(intervals)/2]

	qpm := 60.0 / median
	for qpm < 60 {
		qpm *= 2
	}
	for qpm > 180 {
		qpm /= 2
	}
	return qpm
}
