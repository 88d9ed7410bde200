package separation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"quaver/internal/services"
)

// commandContext is swapped in tests to stub the external binary.
var commandContext = exec.CommandContext

// NeuralCLI drives an external source-separation tool. The tool receives the
// recording path and an output path and is expected to write the isolated
// melody stem to the output path, exiting non-zero on failure.
type NeuralCLI struct {
	binary    string
	extraArgs []string
}

func NewNeuralCLI(binary string, extraArgs []string) *NeuralCLI {
	return &NeuralCLI{binary: binary, extraArgs: extraArgs}
}

func (n *NeuralCLI) Separate(ctx context.Context, inputPath, outputPath string) error {
	if n.binary == "" {
		return services.Wrap(services.ErrModelInvocation, "separating", "configure", "no separation binary configured", nil)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrModelInvocation, "separating", "mkdir", "create output directory", err)
	}

	args := make([]string, 0, len(n.extraArgs)+4)
	args = append(args, n.extraArgs...)
	args = append(args, "--input", inputPath, "--output", outputPath)

	cmd := commandContext(ctx, n.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return services.Wrap(services.ErrModelInvocation, "separating", "run", fmt.Sprintf("%s failed: %s", filepath.Base(n.binary), detail), err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrModelInvocation, "separating", "verify", fmt.Sprintf("%s exited cleanly but produced no output", filepath.Base(n.binary)), nil)
		}
		return services.Wrap(services.ErrModelInvocation, "separating", "verify", "stat separated output", err)
	}
	return nil
}
