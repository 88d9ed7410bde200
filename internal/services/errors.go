package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the failure taxonomy. Stage handlers tag errors with
// one of these via Wrap; the workflow manager uses Kind to persist the
// classification alongside the failure.
var (
	// ErrInvalidInput marks unsupported format, sample rate, duration, or size.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModelInvocation marks a separation or pitch adapter failure.
	ErrModelInvocation = errors.New("model invocation error")
	// ErrStageTimeout marks a stage that exceeded its execution bound.
	ErrStageTimeout = errors.New("stage timeout")
	// ErrEncoding marks an event sequence that cannot be encoded to notation.
	ErrEncoding = errors.New("encoding error")
	// ErrRendererUnavailable marks a best-effort renderer failure. It is the
	// only non-fatal marker: the job still completes without the rendered
	// artifact.
	ErrRendererUnavailable = errors.New("renderer unavailable")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrModelInvocation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the taxonomy label for a stage error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrStageTimeout):
		return "stage_timeout"
	case errors.Is(err, ErrEncoding):
		return "encoding_error"
	case errors.Is(err, ErrRendererUnavailable):
		return "renderer_unavailable"
	default:
		return "model_invocation_error"
	}
}

// Fatal reports whether an error must fail the owning job. Renderer failures
// are recovered locally; everything else is terminal.
func Fatal(err error) bool {
	return err != nil && !errors.Is(err, ErrRendererUnavailable)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
