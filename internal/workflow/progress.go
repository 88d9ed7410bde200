package workflow

import "math"

// Relative effort weights per stage. Progress after a stage is the
// cumulative weight renormalized over the stages the job actually runs, so
// a job that skips rendering still finishes at 100.
var stageWeights = map[string]int{
	"separating":        30,
	"extracting-pitch":  30,
	"quantizing":        15,
	"encoding-notation": 15,
	"rendering":         10,
}

// progressAfter returns the percentage to persist once slot index idx of the
// active slots has completed.
func progressAfter(slots []slot, idx int) int {
	total := 0
	for _, s := range slots {
		total += s.weight
	}
	if total == 0 {
		return 100
	}
	cum := 0
	for i := 0; i <= idx && i < len(slots); i++ {
		cum += slots[i].weight
	}
	return int(math.Round(float64(cum) * 100 / float64(total)))
}
