package testsupport

import (
	"context"
	"testing"

	"quaver/internal/config"
	"quaver/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewUpload registers an upload row backed by a generated sine recording.
func NewUpload(t testing.TB, cfg *config.Config, store *queue.Store) *queue.Upload {
	t.Helper()

	path := WriteSineWAV(t, cfg, "upload.wav", 440, 2.0, 44100)
	upload, err := store.AddUpload(context.Background(), &queue.Upload{
		Filename:    "upload.wav",
		Ext:         "wav",
		SampleRate:  44100,
		DurationSec: 2.0,
		SizeBytes:   44100 * 2 * 2,
		Path:        path,
	})
	if err != nil {
		t.Fatalf("store.AddUpload: %v", err)
	}
	return upload
}

// NewJob creates a queued job over an upload with the given params.
func NewJob(t testing.TB, store *queue.Store, uploadID int64, params queue.Params) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), uploadID, params)
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
