package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const uploadColumns = "id, filename, ext, sample_rate, duration_sec, size_bytes, path, created_at"

// AddUpload registers an accepted recording.
func (s *Store) AddUpload(ctx context.Context, upload *Upload) (*Upload, error) {
	if upload == nil {
		return nil, errors.New("upload is nil")
	}
	now := time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO uploads (filename, ext, sample_rate, duration_sec, size_bytes, path, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		upload.Filename,
		upload.Ext,
		upload.SampleRate,
		upload.DurationSec,
		upload.SizeBytes,
		upload.Path,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetUpload(ctx, id)
}

// GetUpload fetches an upload by identifier. Returns nil when absent.
func (s *Store) GetUpload(ctx context.Context, id int64) (*Upload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = ?`, id)
	upload, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return upload, nil
}

// ListUploads returns all uploads ordered by creation time.
func (s *Store) ListUploads(ctx context.Context) ([]*Upload, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+uploadColumns+` FROM uploads ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, rows.Err()
}

// RemoveUpload deletes an upload. Foreign keys cascade the delete through
// the upload's jobs to their artifacts and logs.
func (s *Store) RemoveUpload(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete upload: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanUpload(scanner interface{ Scan(dest ...any) error }) (*Upload, error) {
	var (
		upload     Upload
		createdRaw string
	)
	if err := scanner.Scan(
		&upload.ID,
		&upload.Filename,
		&upload.Ext,
		&upload.SampleRate,
		&upload.DurationSec,
		&upload.SizeBytes,
		&upload.Path,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		upload.CreatedAt = created
	}
	return &upload, nil
}
