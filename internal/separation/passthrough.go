package separation

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"quaver/internal/services"
)

// Passthrough copies the recording unchanged. Used when the caller asks for
// the "passthrough" separation mode or when no neural backend is configured.
type Passthrough struct{}

func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

func (p *Passthrough) Separate(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(inputPath)
	if err != nil {
		return services.Wrap(services.ErrInvalidInput, "separating", "open", fmt.Sprintf("open recording %s", inputPath), err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrModelInvocation, "separating", "mkdir", "create output directory", err)
	}
	dst, err := os.Create(outputPath)
	if err != nil {
		return services.Wrap(services.ErrModelInvocation, "separating", "create", fmt.Sprintf("create output %s", outputPath), err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return services.Wrap(services.ErrModelInvocation, "separating", "copy", "copy recording", err)
	}
	return dst.Sync()
}
