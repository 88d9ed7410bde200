package notation

import (
	"math"

	"quaver/internal/pitch"
	"quaver/internal/queue"
)

// segment is a run of consecutive frames agreeing on one MIDI note.
type segment struct {
	midi  int
	start float64
	end   float64
}

// Quantize turns a pitch contour into a grid-aligned melody. Frames below
// the confidence threshold are unvoiced, contiguous runs of a note become
// segments, segment times are converted to beats at the chosen tempo, and
// onsets and durations snap to the grid. Segments too short to survive
// snapping are dropped rather than padded.
func Quantize(events []pitch.Event, params queue.Params) Sequence {
	seq := Sequence{
		Key:              params.Key,
		TimeSignatureNum: 4,
		TimeSignatureDen: 4,
		GridDenominator:  params.Grid,
		Notes:            []Note{},
	}
	if params.TimeSignature != "" {
		num, den, err := queue.ParseTimeSignature(params.TimeSignature)
		if err == nil {
			seq.TimeSignatureNum, seq.TimeSignatureDen = num, den
		}
	}

	segments := segmentEvents(events, params.Sensitivity)

	onsets := make([]float64, len(segments))
	for i, seg := range segments {
		onsets[i] = seg.start
	}
	seq.TempoQPM = params.TempoQPM
	if seq.TempoQPM <= 0 {
		seq.TempoQPM = EstimateTempo(onsets)
	}

	step := seq.GridStep()
	beatsPerSecond := seq.TempoQPM / 60.0
	var lastEnd float64
	for _, seg := range segments {
		onset := snap(seg.start*beatsPerSecond, step)
		dur := snap((seg.end-seg.start)*beatsPerSecond, step)
		if dur <= 0 {
			continue
		}
		if onset < lastEnd {
			onset = lastEnd
		}
		if n := len(seq.Notes); n > 0 && seq.Notes[n-1].MIDI == seg.midi && onset <= seq.Notes[n-1].OnsetBeats+seq.Notes[n-1].DurationBeats {
			// Adjacent snaps of the same note fuse into one longer note.
			seq.Notes[n-1].DurationBeats = onset + dur - seq.Notes[n-1].OnsetBeats
			lastEnd = seq.Notes[n-1].OnsetBeats + seq.Notes[n-1].DurationBeats
			continue
		}
		seq.Notes = append(seq.Notes, Note{MIDI: seg.midi, OnsetBeats: onset, DurationBeats: dur})
		lastEnd = onset + dur
	}

	if seq.Key == "" {
		midi := make([]int, len(seq.Notes))
		for i, note := range seq.Notes {
			midi[i] = note.MIDI
		}
		seq.Key = DetectKey(midi)
	}
	return seq
}

// segmentEvents groups voiced frames into note segments. A segment breaks on
// a note change or on a silence longer than twice the frame spacing.
func segmentEvents(events []pitch.Event, sensitivity float64) []segment {
	spacing := frameSpacing(events)
	gapLimit := 2.5 * spacing

	var segments []segment
	open := -1
	var lastTime float64
	for _, ev := range events {
		midi := ev.MIDINote()
		// Frequencies below the MIDI floor (~8.2 Hz) have no playable
		// note and count as unvoiced.
		voiced := ev.Confidence >= sensitivity && ev.Frequency > 0 && midi > 0
		if !voiced {
			if open >= 0 {
				segments[open].end = lastTime + spacing
				open = -1
			}
			lastTime = ev.Time
			continue
		}
		if open >= 0 && (segments[open].midi != midi || ev.Time-lastTime > gapLimit) {
			segments[open].end = lastTime + spacing
			open = -1
		}
		if open < 0 {
			segments = append(segments, segment{midi: midi, start: ev.Time})
			open = len(segments) - 1
		}
		lastTime = ev.Time
	}
	if open >= 0 {
		segments[open].end = lastTime + spacing
	}
	return segments
}

func frameSpacing(events []pitch.Event) float64 {
	for i := 1; i < len(events); i++ {
		if delta := events[i].Time - events[i-1].Time; delta > 0 {
			return delta
		}
	}
	return 0.01
}

func snap(beats, step float64) float64 {
	return math.Round(beats/step) * step
}
