package api

import (
	"time"

	"quaver/internal/queue"
	"quaver/internal/stage"
	"quaver/internal/workflow"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// FromJob converts a queue job into its API shape.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	return Job{
		ID:       job.ID,
		UploadID: job.UploadID,
		Status:   string(job.Status),
		Progress: job.Progress,
		Params: JobParams{
			Separation:    job.Params.Separation,
			Sensitivity:   job.Params.Sensitivity,
			Grid:          job.Params.Grid,
			TempoQPM:      job.Params.TempoQPM,
			Key:           job.Params.Key,
			TimeSignature: job.Params.TimeSignature,
			Renderer:      job.Params.Renderer,
		},
		ErrorMessage:  job.ErrorMessage,
		CreatedAt:     formatTime(job.CreatedAt),
		FinishedAt:    formatTimePtr(job.FinishedAt),
		LastHeartbeat: formatTimePtr(job.LastHeartbeat),
	}
}

// FromJobs converts a slice of queue jobs.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromUpload converts an upload record into its API shape.
func FromUpload(upload *queue.Upload) Upload {
	if upload == nil {
		return Upload{}
	}
	return Upload{
		ID:          upload.ID,
		Filename:    upload.Filename,
		Ext:         upload.Ext,
		SampleRate:  upload.SampleRate,
		DurationSec: upload.DurationSec,
		SizeBytes:   upload.SizeBytes,
		Path:        upload.Path,
		CreatedAt:   formatTime(upload.CreatedAt),
	}
}

// FromUploads converts a slice of upload records.
func FromUploads(uploads []*queue.Upload) []Upload {
	out := make([]Upload, 0, len(uploads))
	for _, upload := range uploads {
		out = append(out, FromUpload(upload))
	}
	return out
}

// FromArtifacts converts a slice of artifact records.
func FromArtifacts(artifacts []*queue.Artifact) []Artifact {
	out := make([]Artifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		out = append(out, Artifact{
			ID:        artifact.ID,
			JobID:     artifact.JobID,
			Kind:      string(artifact.Kind),
			Path:      artifact.Path,
			CreatedAt: formatTime(artifact.CreatedAt),
		})
	}
	return out
}

// FromLogs converts a slice of log records.
func FromLogs(entries []*queue.LogEntry) []LogEntry {
	out := make([]LogEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, LogEntry{
			ID:        entry.ID,
			JobID:     entry.JobID,
			Level:     string(entry.Level),
			Message:   entry.Message,
			CreatedAt: formatTime(entry.CreatedAt),
		})
	}
	return out
}

// FromStatus converts a workflow summary and stage health probes.
func FromStatus(summary workflow.StatusSummary, health []stage.Health) WorkflowStatus {
	status := WorkflowStatus{
		Running:   summary.Running,
		LastError: summary.LastError,
		LastJobID: summary.LastJobID,
		QueueStats: map[string]int{
			"queued":  summary.Queue.Queued,
			"running": summary.Queue.Running,
			"done":    summary.Queue.Done,
			"failed":  summary.Queue.Failed,
			"total":   summary.Queue.Total,
		},
		StageHealth: make([]StageHealth, 0, len(health)),
	}
	for _, h := range health {
		status.StageHealth = append(status.StageHealth, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return status
}
