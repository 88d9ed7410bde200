package api

import (
	"context"

	"quaver/internal/queue"
)

// JobReader abstracts the queue persistence the API queries.
type JobReader interface {
	ListJobs(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	GetJob(ctx context.Context, id int64) (*queue.Job, error)
	ListUploads(ctx context.Context) ([]*queue.Upload, error)
	ArtifactsForJob(ctx context.Context, jobID int64) ([]*queue.Artifact, error)
	LogsForJob(ctx context.Context, jobID int64) ([]*queue.LogEntry, error)
}

// JobService exposes read-only job queries returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// List returns jobs filtered by status.
func (s *JobService) List(ctx context.Context, statuses ...queue.Status) ([]Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	jobs, err := s.store.ListJobs(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Describe fetches a single job, or nil when it does not exist.
func (s *JobService) Describe(ctx context.Context, id int64) (*Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.GetJob(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// Uploads returns every accepted recording.
func (s *JobService) Uploads(ctx context.Context) ([]Upload, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	uploads, err := s.store.ListUploads(ctx)
	if err != nil {
		return nil, err
	}
	return FromUploads(uploads), nil
}

// Artifacts returns the persisted outputs of a job.
func (s *JobService) Artifacts(ctx context.Context, jobID int64) ([]Artifact, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	artifacts, err := s.store.ArtifactsForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return FromArtifacts(artifacts), nil
}

// Logs returns the diagnostic records of a job.
func (s *JobService) Logs(ctx context.Context, jobID int64) ([]LogEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entries, err := s.store.LogsForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return FromLogs(entries), nil
}
