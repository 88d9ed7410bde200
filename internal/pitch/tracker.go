package pitch

import "context"

// Tracker extracts a fundamental-frequency contour from a mono recording.
// Events are returned in strictly increasing time order. An empty slice is a
// valid result for silent or unpitched input.
type Tracker interface {
	Track(ctx context.Context, audioPath string) ([]Event, error)
}
