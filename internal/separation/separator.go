package separation

import "context"

// Separator isolates the dominant melodic line of a recording. Implementations
// are stateless: the same input always yields the same output file contents.
type Separator interface {
	// Separate writes the isolated melody of inputPath to outputPath.
	Separate(ctx context.Context, inputPath, outputPath string) error
}
