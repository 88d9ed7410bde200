package notation

import (
	"encoding/json"
	"fmt"
)

// Note is one quantized event on the beat grid. A zero MIDI value is never
// stored; rests are the gaps between notes.
type Note struct {
	MIDI          int     `json:"midi"`
	OnsetBeats    float64 `json:"onset_beats"`
	DurationBeats float64 `json:"duration_beats"`
}

// Sequence is the quantized melody together with the musical context it was
// quantized against. It is the unit persisted as the quantized-events
// artifact and the only input the encoder needs.
type Sequence struct {
	TempoQPM         float64 `json:"tempo_qpm"`
	Key              string  `json:"key"`
	TimeSignatureNum int     `json:"time_signature_num"`
	TimeSignatureDen int     `json:"time_signature_den"`
	GridDenominator  int     `json:"grid_denominator"`
	Notes            []Note  `json:"notes"`
}

// GridStep returns the grid resolution in beats, where one beat is a quarter
// note.
func (s Sequence) GridStep() float64 {
	return 4.0 / float64(s.GridDenominator)
}

// BeatsPerMeasure returns the measure length in quarter-note beats.
func (s Sequence) BeatsPerMeasure() float64 {
	return float64(s.TimeSignatureNum) * 4.0 / float64(s.TimeSignatureDen)
}

// Marshal serializes the sequence with stable field order for persistence.
func (s Sequence) Marshal() ([]byte, error) {
	if s.Notes == nil {
		s.Notes = []Note{}
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sequence: %w", err)
	}
	return append(raw, '\n'), nil
}

// ParseSequence deserializes a persisted quantized sequence and checks the
// fields the encoder depends on.
func ParseSequence(raw []byte) (Sequence, error) {
	var seq Sequence
	if err := json.Unmarshal(raw, &seq); err != nil {
		return Sequence{}, fmt.Errorf("parse sequence: %w", err)
	}
	if seq.TempoQPM <= 0 {
		return Sequence{}, fmt.Errorf("sequence tempo %g is not positive", seq.TempoQPM)
	}
	if seq.TimeSignatureNum < 1 || seq.TimeSignatureDen < 1 {
		return Sequence{}, fmt.Errorf("sequence time signature %d/%d is invalid", seq.TimeSignatureNum, seq.TimeSignatureDen)
	}
	if seq.GridDenominator < 1 {
		return Sequence{}, fmt.Errorf("sequence grid denominator %d is invalid", seq.GridDenominator)
	}
	for i, note := range seq.Notes {
		if note.MIDI < 1 || note.MIDI > 127 {
			return Sequence{}, fmt.Errorf("note %d: midi %d out of range", i, note.MIDI)
		}
		if note.OnsetBeats < 0 || note.DurationBeats <= 0 {
			return Sequence{}, fmt.Errorf("note %d: invalid onset %g or duration %g", i, note.OnsetBeats, note.DurationBeats)
		}
	}
	return seq, nil
}
