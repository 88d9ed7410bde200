package queue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Separation modes a job may request.
const (
	SeparationPassthrough = "passthrough"
	SeparationNeural      = "neural"
)

// Renderer selections a job may request.
const (
	RendererNone      = "none"
	RendererMuseScore = "musescore"
	RendererVerovio   = "verovio"
)

var gridDenominators = map[int]struct{}{4: {}, 8: {}, 16: {}, 32: {}}

// Params is the closed pipeline configuration attached to a job.
// Unrecognized or out-of-range options are rejected at job creation, not
// deep inside a stage.
type Params struct {
	// Separation selects the source-separation mode.
	Separation string `json:"separation"`
	// Sensitivity is the pitch confidence threshold in (0, 1].
	Sensitivity float64 `json:"sensitivity"`
	// Grid is the quantization denominator (16 means sixteenth notes).
	Grid int `json:"grid"`
	// TempoQPM overrides tempo estimation when positive.
	TempoQPM float64 `json:"tempo_qpm,omitempty"`
	// Key is an optional key hint such as "C", "F#", or "Am".
	Key string `json:"key,omitempty"`
	// TimeSignature is an optional hint such as "3/4". Defaults to 4/4.
	TimeSignature string `json:"time_signature,omitempty"`
	// Renderer selects the fixed-layout output renderer.
	Renderer string `json:"renderer"`
}

// DefaultParams returns the parameter set used when a submitter specifies
// nothing.
func DefaultParams() Params {
	return Params{
		Separation:  SeparationPassthrough,
		Sensitivity: 0.5,
		Grid:        16,
		Renderer:    RendererNone,
	}
}

// Validate rejects unknown options and out-of-range values.
func (p *Params) Validate() error {
	switch p.Separation {
	case SeparationPassthrough, SeparationNeural:
	default:
		return fmt.Errorf("separation: unknown mode %q", p.Separation)
	}
	if p.Sensitivity <= 0 || p.Sensitivity > 1 {
		return fmt.Errorf("sensitivity: %g outside (0, 1]", p.Sensitivity)
	}
	if _, ok := gridDenominators[p.Grid]; !ok {
		return fmt.Errorf("grid: unsupported denominator %d", p.Grid)
	}
	if p.TempoQPM < 0 || p.TempoQPM > 400 {
		return fmt.Errorf("tempo_qpm: %g outside [0, 400]", p.TempoQPM)
	}
	if p.Key != "" {
		if !validKeyHint(p.Key) {
			return fmt.Errorf("key: unrecognized hint %q", p.Key)
		}
	}
	if p.TimeSignature != "" {
		_, den, err := ParseTimeSignature(p.TimeSignature)
		if err != nil {
			return fmt.Errorf("time_signature: %w", err)
		}
		if p.Grid < den {
			return fmt.Errorf("grid: 1/%d cannot subdivide %s measures, use at least 1/%d", p.Grid, p.TimeSignature, den)
		}
	}
	switch p.Renderer {
	case RendererNone, RendererMuseScore, RendererVerovio:
	default:
		return fmt.Errorf("renderer: unknown choice %q", p.Renderer)
	}
	return nil
}

// Marshal serializes params for persistence.
func (p Params) Marshal() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(raw), nil
}

// ParseParams deserializes a persisted parameter set.
func ParseParams(raw string) (Params, error) {
	params := DefaultParams()
	if strings.TrimSpace(raw) == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return Params{}, fmt.Errorf("parse params: %w", err)
	}
	return params, nil
}

// ParseTimeSignature splits "N/D" into numerator and denominator.
func ParseTimeSignature(value string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected N/D, got %q", value)
	}
	num, err := strconv.Atoi(parts[0])
	if err != nil || num < 1 || num > 32 {
		return 0, 0, fmt.Errorf("invalid numerator %q", parts[0])
	}
	den, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid denominator %q", parts[1])
	}
	switch den {
	case 1, 2, 4, 8, 16:
	default:
		return 0, 0, fmt.Errorf("unsupported denominator %d", den)
	}
	return num, den, nil
}

// Key spellings with a standard signature on the circle of fifths. These
// must stay in sync with the notation encoder's fifths tables: a hint
// accepted here is guaranteed to encode.
var majorKeyHints = map[string]struct{}{
	"C": {}, "G": {}, "D": {}, "A": {}, "E": {}, "B": {}, "F#": {}, "C#": {},
	"F": {}, "Bb": {}, "Eb": {}, "Ab": {}, "Db": {}, "Gb": {}, "Cb": {},
}

var minorKeyHints = map[string]struct{}{
	"A": {}, "E": {}, "B": {}, "F#": {}, "C#": {}, "G#": {}, "D#": {}, "A#": {},
	"D": {}, "G": {}, "C": {}, "F": {}, "Bb": {}, "Eb": {}, "Ab": {},
}

// validKeyHint accepts key names with a standard signature, optionally
// suffixed with "m" for minor (e.g. "C", "F#", "Eb", "Am"). Spellings
// without a signature, such as "G#" major, are rejected here so a job
// never fails over its key hint after it has been accepted.
func validKeyHint(value string) bool {
	key := strings.TrimSpace(value)
	if key == "" {
		return false
	}
	if tonic, ok := strings.CutSuffix(key, "m"); ok && tonic != "" {
		_, known := minorKeyHints[tonic]
		return known
	}
	_, known := majorKeyHints[key]
	return known
}
