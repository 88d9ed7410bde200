package notation

import (
	"bytes"
	"strings"
	"testing"

	"quaver/internal/queue"
)

func testSequence() Sequence {
	return Sequence{
		TempoQPM:         120,
		Key:              "C",
		TimeSignatureNum: 4,
		TimeSignatureDen: 4,
		GridDenominator:  16,
		Notes: []Note{
			{MIDI: 69, OnsetBeats: 0, DurationBeats: 1},
			{MIDI: 72, OnsetBeats: 1.5, DurationBeats: 1},
		},
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	seq := testSequence()
	first, err := Encode(seq)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := Encode(seq)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("identical sequences must encode byte-identically")
	}
}

func TestEncodeStructure(t *testing.T) {
	doc, err := Encode(testSequence())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	text := string(doc)

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		"<!DOCTYPE score-partwise",
		`<score-partwise version="4.0">`,
		"<divisions>4</divisions>",
		"<beats>4</beats>",
		"<beat-type>4</beat-type>",
		`<sound tempo="120">`,
		"<step>A</step>",
		"<octave>4</octave>",
		"<step>C</step>",
		"<octave>5</octave>",
		"<rest>",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestEncodeEmptySequence(t *testing.T) {
	seq := testSequence()
	seq.Notes = nil

	doc, err := Encode(seq)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	text := string(doc)
	if !strings.Contains(text, "<rest>") {
		t.Fatal("empty sequence should encode a whole-measure rest")
	}
	if strings.Contains(text, "<pitch>") {
		t.Fatal("empty sequence must not contain pitched notes")
	}
	if strings.Count(text, "<measure") != 1 {
		t.Fatalf("empty sequence should span one measure:\n%s", text)
	}
}

func TestEncodeTiesAcrossBarline(t *testing.T) {
	seq := testSequence()
	seq.Notes = []Note{{MIDI: 60, OnsetBeats: 3, DurationBeats: 2}}

	doc, err := Encode(seq)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	text := string(doc)
	if !strings.Contains(text, `<tie type="start">`) || !strings.Contains(text, `<tie type="stop">`) {
		t.Fatalf("note crossing barline should be tied:\n%s", text)
	}
	if strings.Count(text, "<measure") != 2 {
		t.Fatalf("expected two measures:\n%s", text)
	}
}

func TestEncodeFlatSpelling(t *testing.T) {
	seq := testSequence()
	seq.Key = "Eb"
	seq.Notes = []Note{{MIDI: 63, OnsetBeats: 0, DurationBeats: 1}} // Eb4

	doc, err := Encode(seq)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	text := string(doc)
	if !strings.Contains(text, "<fifths>-3</fifths>") {
		t.Errorf("Eb major should carry three flats:\n%s", text)
	}
	if !strings.Contains(text, "<step>E</step>") || !strings.Contains(text, "<alter>-1</alter>") {
		t.Errorf("midi 63 in a flat key should spell E flat:\n%s", text)
	}
}

func TestEncodeRejectsOverlap(t *testing.T) {
	seq := testSequence()
	seq.Notes = []Note{
		{MIDI: 60, OnsetBeats: 0, DurationBeats: 2},
		{MIDI: 62, OnsetBeats: 1, DurationBeats: 1},
	}
	if _, err := Encode(seq); err == nil {
		t.Fatal("overlapping notes should fail to encode")
	}
}

func TestEncodeRejectsUnknownKey(t *testing.T) {
	seq := testSequence()
	seq.Key = "X"
	if _, err := Encode(seq); err == nil {
		t.Fatal("unknown key should fail to encode")
	}
}

func TestEncodeRejectsCoarseGridForMeter(t *testing.T) {
	seq := testSequence()
	seq.TimeSignatureNum = 3
	seq.TimeSignatureDen = 8
	seq.GridDenominator = 4

	_, err := Encode(seq)
	if err == nil {
		t.Fatal("quarter-note grid cannot fill 3/8 measures evenly")
	}
	if !strings.Contains(err.Error(), "evenly") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Every key hint the queue accepts must encode, and every key the encoder
// knows must be accepted as a hint. The two tables live in separate
// packages and drift silently otherwise.
func TestKeyHintsMatchEncoder(t *testing.T) {
	letters := []string{"A", "B", "C", "D", "E", "F", "G"}
	for _, letter := range letters {
		for _, accidental := range []string{"", "#", "b"} {
			for _, suffix := range []string{"", "m"} {
				hint := letter + accidental + suffix
				params := queue.DefaultParams()
				params.Key = hint

				_, _, encodeErr := keyFifths(hint)
				hintErr := params.Validate()
				if (encodeErr == nil) != (hintErr == nil) {
					t.Errorf("key %q: hint validation err=%v, encoder err=%v", hint, hintErr, encodeErr)
				}
			}
		}
	}
}

func TestKeyFifths(t *testing.T) {
	cases := []struct {
		key    string
		fifths int
		mode   string
	}{
		{"", 0, "major"},
		{"C", 0, "major"},
		{"G", 1, "major"},
		{"F", -1, "major"},
		{"Am", 0, "minor"},
		{"Em", 1, "minor"},
		{"Bbm", -5, "minor"},
	}
	for _, tc := range cases {
		fifths, mode, err := keyFifths(tc.key)
		if err != nil {
			t.Errorf("keyFifths(%q): %v", tc.key, err)
			continue
		}
		if fifths != tc.fifths || mode != tc.mode {
			t.Errorf("keyFifths(%q) = %d %s, want %d %s", tc.key, fifths, mode, tc.fifths, tc.mode)
		}
	}
}
