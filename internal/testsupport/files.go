package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"quaver/internal/config"
	"quaver/internal/wav"
)

// WriteSineWAV writes a mono sine recording into the config uploads
// directory and returns its path.
func WriteSineWAV(t testing.TB, cfg *config.Config, name string, freq, durationSec float64, sampleRate int) string {
	t.Helper()

	path := filepath.Join(cfg.UploadsDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir uploads: %v", err)
	}
	WriteSineWAVAt(t, path, freq, durationSec, sampleRate)
	return path
}

// WriteSineWAVAt writes a mono sine recording to an explicit path.
func WriteSineWAVAt(t testing.TB, path string, freq, durationSec float64, sampleRate int) {
	t.Helper()

	frames := int(durationSec * float64(sampleRate))
	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	if err := wav.Encode(path, wav.Buffer{Samples: samples, SampleRate: sampleRate}); err != nil {
		t.Fatalf("encode wav %s: %v", path, err)
	}
}
