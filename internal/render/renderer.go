package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"quaver/internal/queue"
	"quaver/internal/services"
)

var commandContext = exec.CommandContext

// Renderer turns a MusicXML document into a fixed-layout file. Rendering is
// best effort: every failure resolves to services.ErrRendererUnavailable so
// callers can degrade instead of failing the job.
type Renderer interface {
	// Render writes the rendered form of musicxmlPath to outputPath.
	Render(ctx context.Context, musicxmlPath, outputPath string) error
	// OutputKind reports the artifact kind the renderer produces.
	OutputKind() queue.ArtifactKind
	// OutputName is the file name for the rendered output.
	OutputName() string
}

// MuseScore renders engraved PDF documents through the mscore command line.
type MuseScore struct {
	binary string
}

func NewMuseScore(binary string) *MuseScore {
	return &MuseScore{binary: binary}
}

func (m *MuseScore) OutputKind() queue.ArtifactKind { return queue.ArtifactRenderedDocument }

func (m *MuseScore) OutputName() string { return "score.pdf" }

func (m *MuseScore) Render(ctx context.Context, musicxmlPath, outputPath string) error {
	return runRenderer(ctx, m.binary, []string{"-o", outputPath, musicxmlPath}, outputPath)
}

// Verovio renders SVG images through the verovio command line.
type Verovio struct {
	binary string
}

func NewVerovio(binary string) *Verovio {
	return &Verovio{binary: binary}
}

func (v *Verovio) OutputKind() queue.ArtifactKind { return queue.ArtifactRenderedImage }

func (v *Verovio) OutputName() string { return "score.svg" }

func (v *Verovio) Render(ctx context.Context, musicxmlPath, outputPath string) error {
	return runRenderer(ctx, v.binary, []string{"--output", outputPath, musicxmlPath}, outputPath)
}

// ForParams maps a job's renderer selection to a renderer, or nil when
// rendering is disabled.
func ForParams(params queue.Params, musescoreBinary, verovioBinary string) Renderer {
	switch params.Renderer {
	case queue.RendererMuseScore:
		return NewMuseScore(musescoreBinary)
	case queue.RendererVerovio:
		return NewVerovio(verovioBinary)
	default:
		return nil
	}
}

func runRenderer(ctx context.Context, binary string, args []string, outputPath string) error {
	if binary == "" {
		return services.Wrap(services.ErrRendererUnavailable, "rendering", "configure", "no renderer binary configured", nil)
	}
	name := filepath.Base(binary)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrRendererUnavailable, "rendering", "mkdir", "create output directory", err)
	}

	cmd := commandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return services.Wrap(services.ErrRendererUnavailable, "rendering", "run", fmt.Sprintf("%s failed: %s", name, detail), err)
	}
	if _, err := os.Stat(outputPath); err != nil {
		return services.Wrap(services.ErrRendererUnavailable, "rendering", "verify", fmt.Sprintf("%s exited cleanly but produced no output", name), err)
	}
	return nil
}
