package pitch

import (
	"context"

	"quaver/internal/services"
	"quaver/internal/wav"
)

const (
	frameSize = 2048
	hopSize   = 512
	minFreq   = 60.0
	maxFreq   = 1200.0
)

// Autocorrelation is the built-in tracker. It runs a windowed normalized
// autocorrelation over fixed-size frames, which is plenty for monophonic
// recordings and keeps the pipeline usable without any external model.
type Autocorrelation struct{}

func NewAutocorrelation() *Autocorrelation {
	return &Autocorrelation{}
}

func (a *Autocorrelation) Track(ctx context.Context, audioPath string) ([]Event, error) {
	buf, _, err := wav.Decode(audioPath)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "extracting-pitch", "decode", "decode separated audio", err)
	}
	samples := buf.Samples
	sr := float64(buf.SampleRate)
	minLag := int(sr / maxFreq)
	maxLag := int(sr / minFreq)
	if maxLag >= frameSize {
		maxLag = frameSize - 1
	}
	if minLag < 2 {
		minLag = 2
	}

	events := make([]Event, 0, len(samples)/hopSize+1)
	for start := 0; start+frameSize <= len(samples); start += hopSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame := samples[start : start+frameSize]
		freq, conf := estimatePitch(frame, sr, minLag, maxLag)
		events = append(events, Event{
			Time:       float64(start) / sr,
			Frequency:  freq,
			Confidence: conf,
		})
	}
	return events, nil
}

// estimatePitch returns the dominant frequency of one frame and a confidence
// in [0, 1]. Silent frames report zero frequency with zero confidence.
func estimatePitch(frame []float64, sampleRate float64, minLag, maxLag int) (float64, float64) {
	var energy float64
	for _, s := range frame {
		energy += s * s
	}
	if energy < 1e-6 {
		return 0, 0
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(frame); i++ {
			corr += frame[i] * frame[i+lag]
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 {
		return 0, 0
	}
	conf := bestCorr / energy
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return sampleRate / float64(bestLag), conf
}
