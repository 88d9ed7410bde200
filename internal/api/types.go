package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a transcription job in a transport-friendly format.
type Job struct {
	ID            int64     `json:"id"`
	UploadID      int64     `json:"uploadId"`
	Status        string    `json:"status"`
	Progress      int       `json:"progress"`
	Params        JobParams `json:"params"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	CreatedAt     string    `json:"createdAt,omitempty"`
	FinishedAt    string    `json:"finishedAt,omitempty"`
	LastHeartbeat string    `json:"lastHeartbeat,omitempty"`
}

// JobParams mirrors the pipeline parameters a job was submitted with.
type JobParams struct {
	Separation    string  `json:"separation"`
	Sensitivity   float64 `json:"sensitivity"`
	Grid          int     `json:"grid"`
	TempoQPM      float64 `json:"tempoQpm,omitempty"`
	Key           string  `json:"key,omitempty"`
	TimeSignature string  `json:"timeSignature,omitempty"`
	Renderer      string  `json:"renderer"`
}

// Upload describes an accepted recording.
type Upload struct {
	ID          int64   `json:"id"`
	Filename    string  `json:"filename"`
	Ext         string  `json:"ext"`
	SampleRate  int     `json:"sampleRate"`
	DurationSec float64 `json:"durationSec"`
	SizeBytes   int64   `json:"sizeBytes"`
	Path        string  `json:"path"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// Artifact describes one persisted job output.
type Artifact struct {
	ID        int64  `json:"id"`
	JobID     int64  `json:"jobId"`
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// LogEntry describes one job diagnostic record.
type LogEntry struct {
	ID        int64  `json:"id"`
	JobID     int64  `json:"jobId"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// WorkflowStatus summarizes daemon execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJobID   int64          `json:"lastJobId,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}
