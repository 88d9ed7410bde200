package queue

import (
	"context"
	"fmt"
	"time"
)

const logColumns = "id, job_id, level, message, created_at"

// AppendLog records a diagnostic entry for a job. Entries are never mutated
// after insertion.
func (s *Store) AppendLog(ctx context.Context, jobID int64, level LogLevel, message string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO logs (job_id, level, message, created_at) VALUES (?, ?, ?, ?)`,
		jobID,
		level,
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// LogsForJob returns a job's diagnostic records in insertion order.
func (s *Store) LogsForJob(ctx context.Context, jobID int64) ([]*LogEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+logColumns+` FROM logs WHERE job_id = ? ORDER BY created_at, id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("logs for job: %w", err)
	}
	defer rows.Close()

	var entries []*LogEntry
	for rows.Next() {
		var (
			entry      LogEntry
			levelStr   string
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.JobID, &levelStr, &entry.Message, &createdRaw); err != nil {
			return nil, err
		}
		entry.Level = LogLevel(levelStr)
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// CountLogs returns the number of log rows for a job. Used by cascade
// delete verification and diagnostics.
func (s *Store) CountLogs(ctx context.Context, jobID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM logs WHERE job_id = ?`, jobID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return count, nil
}
