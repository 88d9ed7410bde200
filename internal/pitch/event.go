package pitch

import "math"

// Event is a single fundamental-frequency observation.
type Event struct {
	Time       float64 `json:"time"`
	Frequency  float64 `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

// MIDINote converts the event frequency to the nearest MIDI note number.
// Returns 0 for non-positive frequencies.
func (e Event) MIDINote() int {
	if e.Frequency <= 0 {
		return 0
	}
	n := int(math.Round(69 + 12*math.Log2(e.Frequency/440.0)))
	if n < 0 {
		n = 0
	}
	if n > 127 {
		n = 127
	}
	return n
}
