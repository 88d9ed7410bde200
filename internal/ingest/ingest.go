// Package ingest validates and registers input recordings. It is the only
// path by which an Upload row comes into existence, so every job can assume
// its referenced recording already passed these checks.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"quaver/internal/config"
	"quaver/internal/logging"
	"quaver/internal/queue"
	"quaver/internal/services"
	"quaver/internal/wav"
)

// Ingestor validates recordings against configured limits and registers them.
type Ingestor struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

// New constructs an Ingestor.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "ingest"),
	}
}

// Accept validates the recording at sourcePath, copies it into managed
// storage, and registers the Upload. Validation failures carry the
// invalid-input marker.
func (i *Ingestor) Accept(ctx context.Context, sourcePath string) (*queue.Upload, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(sourcePath), "."))
	if !i.extensionAllowed(ext) {
		return nil, services.Wrap(services.ErrInvalidInput, "ingest", "validate",
			fmt.Sprintf("extension %q not accepted", ext), nil)
	}

	fileInfo, err := os.Stat(sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "ingest", "stat", "recording unreadable", err)
	}
	if maxBytes := int64(i.cfg.Ingest.MaxFileMB) * 1024 * 1024; fileInfo.Size() > maxBytes {
		return nil, services.Wrap(services.ErrInvalidInput, "ingest", "validate",
			fmt.Sprintf("file size %d exceeds %d MB limit", fileInfo.Size(), i.cfg.Ingest.MaxFileMB), nil)
	}

	probe, err := wav.Probe(sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "ingest", "probe", "not a decodable wav file", err)
	}
	if probe.SampleRate < i.cfg.Ingest.MinSampleRate || probe.SampleRate > i.cfg.Ingest.MaxSampleRate {
		return nil, services.Wrap(services.ErrInvalidInput, "ingest", "validate",
			fmt.Sprintf("sample rate %d outside [%d, %d]", probe.SampleRate, i.cfg.Ingest.MinSampleRate, i.cfg.Ingest.MaxSampleRate), nil)
	}
	if probe.DurationSec <= 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "ingest", "validate", "recording has no audio frames", nil)
	}
	if probe.DurationSec > float64(i.cfg.Ingest.MaxDurationSec) {
		return nil, services.Wrap(services.ErrInvalidInput, "ingest", "validate",
			fmt.Sprintf("duration %.1fs exceeds %ds limit", probe.DurationSec, i.cfg.Ingest.MaxDurationSec), nil)
	}

	storedPath, err := i.copyIntoStorage(sourcePath, ext)
	if err != nil {
		return nil, fmt.Errorf("store recording: %w", err)
	}

	upload, err := i.store.AddUpload(ctx, &queue.Upload{
		Filename:    filepath.Base(sourcePath),
		Ext:         ext,
		SampleRate:  probe.SampleRate,
		DurationSec: probe.DurationSec,
		SizeBytes:   fileInfo.Size(),
		Path:        storedPath,
	})
	if err != nil {
		_ = os.Remove(storedPath)
		return nil, err
	}

	i.logger.Info("recording accepted",
		logging.Int64(logging.FieldUploadID, upload.ID),
		logging.String("filename", upload.Filename),
		logging.Int("sample_rate", upload.SampleRate),
		logging.Float64("duration_sec", upload.DurationSec),
		logging.Int64("size_bytes", upload.SizeBytes),
	)
	return upload, nil
}

func (i *Ingestor) extensionAllowed(ext string) bool {
	for _, allowed := range i.cfg.Ingest.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (i *Ingestor) copyIntoStorage(sourcePath, ext string) (string, error) {
	uploadsDir := i.cfg.UploadsDir()
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return "", err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	target := filepath.Join(uploadsDir, base+"."+ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		}
		target = filepath.Join(uploadsDir, fmt.Sprintf("%s-%d.%s", base, n, ext))
	}

	dst, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return target, nil
}
