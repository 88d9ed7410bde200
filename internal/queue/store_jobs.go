package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const jobColumns = "id, upload_id, params_json, status, progress, error_message, created_at, finished_at, last_heartbeat"

// ErrUploadMissing indicates a job referenced an upload that does not exist.
var ErrUploadMissing = errors.New("upload does not exist")

// NewJob enqueues a transcription run for an upload. Params are validated
// here so malformed configurations never reach a worker.
func (s *Store) NewJob(ctx context.Context, uploadID int64, params Params) (*Job, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("job params: %w", err)
	}

	upload, err := s.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUploadMissing, uploadID)
	}

	paramsJSON, err := params.Marshal()
	if err != nil {
		return nil, err
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (upload_id, params_json, status, progress, created_at)
         VALUES (?, ?, ?, 0, ?)`,
		uploadID,
		paramsJSON,
		StatusQueued,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a job by identifier. Returns nil when absent.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs filtered by status set (or all jobs when no status
// is provided), ordered by creation time.
func (s *Store) ListJobs(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// JobsForUpload returns the jobs referencing an upload, oldest first.
func (s *Store) JobsForUpload(ctx context.Context, uploadID int64) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE upload_id = ? ORDER BY created_at, id`,
		uploadID,
	)
	if err != nil {
		return nil, fmt.Errorf("jobs for upload: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// NextQueued returns the oldest queued job, or nil when the queue is empty.
func (s *Store) NextQueued(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		StatusQueued,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Claim attempts the queued-to-running transition for a specific job. The
// UPDATE's status guard makes this a compare-and-swap: when two workers race,
// exactly one sees a row affected. The loser gets (nil, nil) and must not
// touch the job.
func (s *Store) Claim(ctx context.Context, id int64) (*Job, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, last_heartbeat = ? WHERE id = ? AND status = ?`,
		StatusRunning,
		now,
		id,
		StatusQueued,
	)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetJob(ctx, id)
}

// ClaimNextQueued finds the oldest queued job and claims it. Returns nil when
// nothing is eligible or another worker won the race.
func (s *Store) ClaimNextQueued(ctx context.Context) (*Job, error) {
	next, err := s.NextQueued(ctx)
	if err != nil || next == nil {
		return nil, err
	}
	return s.Claim(ctx, next.ID)
}

// SetProgress advances a running job's progress. The MAX guard keeps the
// persisted value monotone even if updates arrive out of order.
func (s *Store) SetProgress(ctx context.Context, id int64, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET progress = MAX(progress, ?) WHERE id = ? AND status = ?`,
		progress,
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

// MarkDone finalizes a successful job: status done, progress 100, finish
// timestamp. Only a running job can be finalized.
func (s *Store) MarkDone(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, progress = 100, finished_at = ?, last_heartbeat = NULL
         WHERE id = ? AND status = ?`,
		StatusDone,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %d not running", id)
	}
	return nil
}

// MarkFailed finalizes a failed job, preserving partial progress and
// recording the cause.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, finished_at = ?, last_heartbeat = NULL
         WHERE id = ? AND status = ?`,
		StatusFailed,
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %d not running", id)
	}
	return nil
}

// UpdateHeartbeat refreshes the last heartbeat timestamp for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET last_heartbeat = ? WHERE id = ? AND status = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusQueued:
			health.Queued += count
		case StatusRunning:
			health.Running += count
		case StatusDone:
			health.Done += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		paramsJSON   string
		statusStr    string
		errorMessage sql.NullString
		createdRaw   string
		finishedRaw  sql.NullString
		heartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&job.ID,
		&job.UploadID,
		&paramsJSON,
		&statusStr,
		&job.Progress,
		&errorMessage,
		&createdRaw,
		&finishedRaw,
		&heartbeatRaw,
	); err != nil {
		return nil, err
	}

	job.Status = Status(statusStr)
	job.ErrorMessage = errorMessage.String

	params, err := ParseParams(paramsJSON)
	if err != nil {
		return nil, err
	}
	job.Params = params

	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			job.FinishedAt = &finished
		}
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	return &job, nil
}
