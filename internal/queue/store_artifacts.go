package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const artifactColumns = "id, job_id, kind, path, created_at"

// AddArtifact records a new job output. The artifact table is insert-only:
// nothing in the store API mutates or overwrites an existing row, so a
// re-run must go through a new job.
func (s *Store) AddArtifact(ctx context.Context, jobID int64, kind ArtifactKind, path string) (*Artifact, error) {
	if _, ok := artifactKindSet[kind]; !ok {
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO artifacts (job_id, kind, path, created_at) VALUES (?, ?, ?, ?)`,
		jobID,
		kind,
		path,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert artifact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id)
	return scanArtifact(row)
}

// ArtifactsForJob returns a job's artifacts ordered by creation.
func (s *Store) ArtifactsForJob(ctx context.Context, jobID int64) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE job_id = ? ORDER BY created_at, id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("artifacts for job: %w", err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

// ArtifactByKind returns the newest artifact of a kind for a job, or nil.
func (s *Store) ArtifactByKind(ctx context.Context, jobID int64, kind ArtifactKind) (*Artifact, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE job_id = ? AND kind = ? ORDER BY id DESC LIMIT 1`,
		jobID,
		kind,
	)
	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact by kind: %w", err)
	}
	return artifact, nil
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*Artifact, error) {
	var (
		artifact   Artifact
		kindStr    string
		createdRaw string
	)
	if err := scanner.Scan(&artifact.ID, &artifact.JobID, &kindStr, &artifact.Path, &createdRaw); err != nil {
		return nil, err
	}
	artifact.Kind = ArtifactKind(kindStr)
	if created, err := parseTimeString(createdRaw); err == nil {
		artifact.CreatedAt = created
	}
	return &artifact, nil
}
