package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether a status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// ArtifactKind enumerates the outputs a job can produce.
type ArtifactKind string

const (
	ArtifactSeparatedAudio   ArtifactKind = "separated-audio"
	ArtifactPitchEvents      ArtifactKind = "pitch-events"
	ArtifactQuantizedEvents  ArtifactKind = "quantized-events"
	ArtifactNotationDocument ArtifactKind = "notation-document"
	ArtifactRenderedImage    ArtifactKind = "rendered-image"
	ArtifactRenderedDocument ArtifactKind = "rendered-document"
)

var artifactKindSet = map[ArtifactKind]struct{}{
	ArtifactSeparatedAudio:   {},
	ArtifactPitchEvents:      {},
	ArtifactQuantizedEvents:  {},
	ArtifactNotationDocument: {},
	ArtifactRenderedImage:    {},
	ArtifactRenderedDocument: {},
}

// ParseArtifactKind converts a string into a known ArtifactKind.
func ParseArtifactKind(value string) (ArtifactKind, bool) {
	normalized := ArtifactKind(strings.ToLower(strings.TrimSpace(value)))
	_, ok := artifactKindSet[normalized]
	return normalized, ok
}

// LogLevel enumerates diagnostic record severities.
type LogLevel string

const (
	LogDebug   LogLevel = "debug"
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// Upload represents an accepted input recording. Immutable once created.
type Upload struct {
	ID          int64
	Filename    string
	Ext         string
	SampleRate  int
	DurationSec float64
	SizeBytes   int64
	Path        string
	CreatedAt   time.Time
}

// Job represents one transcription run over one upload.
type Job struct {
	ID            int64
	UploadID      int64
	Params        Params
	Status        Status
	Progress      int
	ErrorMessage  string
	CreatedAt     time.Time
	FinishedAt    *time.Time
	LastHeartbeat *time.Time
}

// Running reports whether the job is currently owned by a worker.
func (j Job) Running() bool {
	return j.Status == StatusRunning
}

// Finished reports whether the job reached a terminal state.
func (j Job) Finished() bool {
	return j.Status.Terminal()
}

// Artifact represents one persisted output of a job. Append-only.
type Artifact struct {
	ID        int64
	JobID     int64
	Kind      ArtifactKind
	Path      string
	CreatedAt time.Time
}

// LogEntry represents one diagnostic record tied to a job. Append-only.
type LogEntry struct {
	ID        int64
	JobID     int64
	Level     LogLevel
	Message   string
	CreatedAt time.Time
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total   int
	Queued  int
	Running int
	Done    int
	Failed  int
}
