package notation

// Krumhansl-Schmuckler key profiles, indexed by pitch class relative to the
// tonic.
var (
	majorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

var pitchClassNames = [12]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}

// DetectKey picks the major or minor key whose profile best correlates with
// the pitch-class histogram of the melody. Minor keys carry an "m" suffix.
// An empty melody defaults to C major.
func DetectKey(midiNotes []int) string {
	if len(midiNotes) == 0 {
		return "C"
	}
	var histogram [12]float64
	for _, n := range midiNotes {
		histogram[((n%12)+12)%12]++
	}

	bestKey := "C"
	bestScore := -1.0
	for tonic := 0; tonic < 12; tonic++ {
		if score := correlate(histogram, majorProfile, tonic); score > bestScore {
			bestScore = score
			bestKey = pitchClassNames[tonic]
		}
		if score := correlate(histogram, minorProfile, tonic); score > bestScore {
			bestScore = score
			bestKey = pitchClassNames[tonic] + "m"
		}
	}
	return bestKey
}

func correlate(histogram, profile [12]float64, tonic int) float64 {
	var score float64
	for pc := 0; pc < 12; pc++ {
		score += histogram[(pc+tonic)%12] * profile[pc]
	}
	return score
}
