package pitch

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"quaver/internal/wav"
)

func writeTone(t *testing.T, freq float64, seconds float64, sampleRate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	frames := int(seconds * float64(sampleRate))
	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	if err := wav.Encode(path, wav.Buffer{Samples: samples, SampleRate: sampleRate}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestAutocorrelationTracksSine(t *testing.T) {
	path := writeTone(t, 440, 1.0, 44100)

	events, err := NewAutocorrelation().Track(context.Background(), path)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no events for a full second of tone")
	}

	confident := 0
	for _, ev := range events {
		if ev.Confidence < 0.5 {
			continue
		}
		confident++
		// Within a semitone of A4.
		if ev.Frequency < 415 || ev.Frequency > 470 {
			t.Fatalf("frequency %g too far from 440", ev.Frequency)
		}
	}
	if confident < len(events)/2 {
		t.Fatalf("only %d of %d frames confident on a clean sine", confident, len(events))
	}

	for i := 1; i < len(events); i++ {
		if events[i].Time <= events[i-1].Time {
			t.Fatal("event times must be strictly increasing")
		}
	}
}

func TestAutocorrelationSilence(t *testing.T) {
	path := writeTone(t, 440, 0.0, 44100)
	// Zero-length recording: no frames, no events.
	events, err := NewAutocorrelation().Track(context.Background(), path)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %d, want 0", len(events))
	}
}

func TestAutocorrelationSilentFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	samples := make([]float64, 44100/2)
	if err := wav.Encode(path, wav.Buffer{Samples: samples, SampleRate: 44100}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	events, err := NewAutocorrelation().Track(context.Background(), path)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	for _, ev := range events {
		if ev.Confidence != 0 || ev.Frequency != 0 {
			t.Fatalf("silent frame reported pitch: %+v", ev)
		}
	}
}

func TestMIDINote(t *testing.T) {
	cases := []struct {
		freq float64
		want int
	}{
		{440, 69},
		{261.63, 60},
		{523.25, 72},
		{0, 0},
		{-5, 0},
	}
	for _, tc := range cases {
		if got := (Event{Frequency: tc.freq}).MIDINote(); got != tc.want {
			t.Errorf("MIDINote(%g) = %d, want %d", tc.freq, got, tc.want)
		}
	}
}
