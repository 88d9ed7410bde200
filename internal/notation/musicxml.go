package notation

import (
	"encoding/xml"
	"fmt"
	"math"
	"strings"
)

const (
	xmlHeader  = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"
	xmlDoctype = "<!DOCTYPE score-partwise PUBLIC \"-//Recordare//DTD MusicXML 4.0 Partwise//EN\" \"http://www.musicxml.org/dtds/partwise.dtd\">\n"
)

type scorePartwise struct {
	XMLName  xml.Name    `xml:"score-partwise"`
	Version  string      `xml:"version,attr"`
	PartList xmlPartList `xml:"part-list"`
	Parts    []xmlPart   `xml:"part"`
}

type xmlPartList struct {
	ScoreParts []xmlScorePart `xml:"score-part"`
}

type xmlScorePart struct {
	ID       string `xml:"id,attr"`
	PartName string `xml:"part-name"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number     int            `xml:"number,attr"`
	Attributes *xmlAttributes `xml:"attributes,omitempty"`
	Direction  *xmlDirection  `xml:"direction,omitempty"`
	Notes      []xmlNote      `xml:"note"`
}

type xmlAttributes struct {
	Divisions int     `xml:"divisions"`
	Key       xmlKey  `xml:"key"`
	Time      xmlTime `xml:"time"`
	Clef      xmlClef `xml:"clef"`
}

type xmlKey struct {
	Fifths int    `xml:"fifths"`
	Mode   string `xml:"mode"`
}

type xmlTime struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type xmlClef struct {
	Sign string `xml:"sign"`
	Line int    `xml:"line"`
}

type xmlDirection struct {
	Sound xmlSound `xml:"sound"`
}

type xmlSound struct {
	Tempo string `xml:"tempo,attr"`
}

type xmlNote struct {
	Pitch    *xmlPitch   `xml:"pitch,omitempty"`
	Rest     *struct{}   `xml:"rest,omitempty"`
	Duration int         `xml:"duration"`
	Tie      []xmlTie    `xml:"tie,omitempty"`
	Type     string      `xml:"type,omitempty"`
	Notation *xmlNotated `xml:"notations,omitempty"`
}

type xmlPitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter,omitempty"`
	Octave int    `xml:"octave"`
}

type xmlTie struct {
	Type string `xml:"type,attr"`
}

type xmlNotated struct {
	Tied []xmlTie `xml:"tied"`
}

// Encode renders a quantized sequence as a MusicXML score-partwise document.
// The output is deterministic: encoding the same sequence twice yields
// byte-identical documents. An empty sequence encodes as a single
// whole-measure rest.
func Encode(seq Sequence) ([]byte, error) {
	divisions := seq.GridDenominator / 4
	if divisions < 1 {
		divisions = 1
	}
	exactDiv := seq.BeatsPerMeasure() * float64(divisions)
	measureDiv := int(math.Round(exactDiv))
	if measureDiv < 1 {
		return nil, fmt.Errorf("time signature %d/%d yields empty measures", seq.TimeSignatureNum, seq.TimeSignatureDen)
	}
	if math.Abs(exactDiv-float64(measureDiv)) > 1e-9 {
		return nil, fmt.Errorf("grid 1/%d cannot fill %d/%d measures evenly", seq.GridDenominator, seq.TimeSignatureNum, seq.TimeSignatureDen)
	}

	fifths, mode, err := keyFifths(seq.Key)
	if err != nil {
		return nil, err
	}
	useFlats := fifths < 0

	events, totalDiv, err := layoutNotes(seq, divisions)
	if err != nil {
		return nil, err
	}

	measureCount := (totalDiv + measureDiv - 1) / measureDiv
	if measureCount < 1 {
		measureCount = 1
	}
	measures := make([]xmlMeasure, measureCount)
	for i := range measures {
		measures[i].Number = i + 1
	}
	measures[0].Attributes = &xmlAttributes{
		Divisions: divisions,
		Key:       xmlKey{Fifths: fifths, Mode: mode},
		Time:      xmlTime{Beats: seq.TimeSignatureNum, BeatType: seq.TimeSignatureDen},
		Clef:      xmlClef{Sign: "G", Line: 2},
	}
	measures[0].Direction = &xmlDirection{Sound: xmlSound{Tempo: formatTempo(seq.TempoQPM)}}

	if len(events) == 0 {
		measures[0].Notes = []xmlNote{{Rest: &struct{}{}, Duration: measureDiv}}
	} else {
		fillMeasures(measures, events, measureDiv, divisions, useFlats)
	}

	score := scorePartwise{
		Version:  "4.0",
		PartList: xmlPartList{ScoreParts: []xmlScorePart{{ID: "P1", PartName: "Melody"}}},
		Parts:    []xmlPart{{ID: "P1", Measures: measures}},
	}
	body, err := xml.MarshalIndent(score, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal score: %w", err)
	}
	var out strings.Builder
	out.WriteString(xmlHeader)
	out.WriteString(xmlDoctype)
	out.Write(body)
	out.WriteByte('\n')
	return []byte(out.String()), nil
}

// layoutEvent is a note or rest pinned to an absolute division offset.
type layoutEvent struct {
	midi     int // 0 means rest
	startDiv int
	durDiv   int
}

// layoutNotes converts beat positions to division offsets and fills the gaps
// between notes with rests. Notes must be sorted and non-overlapping.
func layoutNotes(seq Sequence, divisions int) ([]layoutEvent, int, error) {
	var events []layoutEvent
	cursor := 0
	for i, note := range seq.Notes {
		start := int(math.Round(note.OnsetBeats * float64(divisions)))
		dur := int(math.Round(note.DurationBeats * float64(divisions)))
		if dur < 1 {
			return nil, 0, fmt.Errorf("note %d: duration %g shorter than the grid", i, note.DurationBeats)
		}
		if start < cursor {
			return nil, 0, fmt.Errorf("note %d: onset %g overlaps the previous note", i, note.OnsetBeats)
		}
		if start > cursor {
			events = append(events, layoutEvent{midi: 0, startDiv: cursor, durDiv: start - cursor})
		}
		events = append(events, layoutEvent{midi: note.MIDI, startDiv: start, durDiv: dur})
		cursor = start + dur
	}
	return events, cursor, nil
}

// fillMeasures distributes events across measures, splitting anything that
// crosses a barline and tying the split note halves together.
func fillMeasures(measures []xmlMeasure, events []layoutEvent, measureDiv, divisions int, useFlats bool) {
	for _, ev := range events {
		remaining := ev.durDiv
		pos := ev.startDiv
		tiedFromPrev := false
		for remaining > 0 {
			measure := pos / measureDiv
			if measure >= len(measures) {
				break
			}
			room := (measure+1)*measureDiv - pos
			chunk := remaining
			if chunk > room {
				chunk = room
			}
			tiesToNext := remaining > chunk

			note := xmlNote{Duration: chunk}
			if ev.midi == 0 {
				note.Rest = &struct{}{}
			} else {
				p := spellPitch(ev.midi, useFlats)
				note.Pitch = &p
				note.Type = noteType(chunk, divisions)
				note.Tie, note.Notation = tieElements(tiedFromPrev, tiesToNext)
			}
			measures[measure].Notes = append(measures[measure].Notes, note)

			pos += chunk
			remaining -= chunk
			tiedFromPrev = tiesToNext
		}
	}
	// Pad the final measure so every measure is metrically complete.
	last := len(measures) - 1
	used := 0
	for _, n := range measures[last].Notes {
		used += n.Duration
	}
	if used > 0 && used < measureDiv {
		measures[last].Notes = append(measures[last].Notes, xmlNote{Rest: &struct{}{}, Duration: measureDiv - used})
	}
}

func tieElements(fromPrev, toNext bool) ([]xmlTie, *xmlNotated) {
	var ties []xmlTie
	if fromPrev {
		ties = append(ties, xmlTie{Type: "stop"})
	}
	if toNext {
		ties = append(ties, xmlTie{Type: "start"})
	}
	if len(ties) == 0 {
		return nil, nil
	}
	return ties, &xmlNotated{Tied: ties}
}

var sharpSteps = [12]struct {
	step  string
	alter int
}{
	{"C", 0}, {"C", 1}, {"D", 0}, {"D", 1}, {"E", 0}, {"F", 0},
	{"F", 1}, {"G", 0}, {"G", 1}, {"A", 0}, {"A", 1}, {"B", 0},
}

var flatSteps = [12]struct {
	step  string
	alter int
}{
	{"C", 0}, {"D", -1}, {"D", 0}, {"E", -1}, {"E", 0}, {"F", 0},
	{"G", -1}, {"G", 0}, {"A", -1}, {"A", 0}, {"B", -1}, {"B", 0},
}

func spellPitch(midi int, useFlats bool) xmlPitch {
	pc := ((midi % 12) + 12) % 12
	octave := midi/12 - 1
	spelling := sharpSteps[pc]
	if useFlats {
		spelling = flatSteps[pc]
	}
	return xmlPitch{Step: spelling.step, Alter: spelling.alter, Octave: octave}
}

// noteType picks the advisory glyph for a duration. The duration element is
// authoritative, so the largest type that fits is close enough for irregular
// values.
func noteType(durDiv, divisions int) string {
	quarters := float64(durDiv) / float64(divisions)
	switch {
	case quarters >= 4:
		return "whole"
	case quarters >= 2:
		return "half"
	case quarters >= 1:
		return "quarter"
	case quarters >= 0.5:
		return "eighth"
	case quarters >= 0.25:
		return "16th"
	default:
		return "32nd"
	}
}

var majorFifths = map[string]int{
	"C": 0, "G": 1, "D": 2, "A": 3, "E": 4, "B": 5, "F#": 6, "C#": 7,
	"F": -1, "Bb": -2, "Eb": -3, "Ab": -4, "Db": -5, "Gb": -6, "Cb": -7,
}

var minorFifths = map[string]int{
	"A": 0, "E": 1, "B": 2, "F#": 3, "C#": 4, "G#": 5, "D#": 6, "A#": 7,
	"D": -1, "G": -2, "C": -3, "F": -4, "Bb": -5, "Eb": -6, "Ab": -7,
}

func keyFifths(key string) (int, string, error) {
	if key == "" {
		return 0, "major", nil
	}
	if strings.HasSuffix(key, "m") {
		if fifths, ok := minorFifths[strings.TrimSuffix(key, "m")]; ok {
			return fifths, "minor", nil
		}
		return 0, "", fmt.Errorf("unknown minor key %q", key)
	}
	if fifths, ok := majorFifths[key]; ok {
		return fifths, "major", nil
	}
	return 0, "", fmt.Errorf("unknown key %q", key)
}

func formatTempo(qpm float64) string {
	if qpm == math.Trunc(qpm) {
		return fmt.Sprintf("%d", int(qpm))
	}
	return fmt.Sprintf("%.2f", qpm)
}
