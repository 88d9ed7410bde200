package queue_test

import (
	"context"
	"sync"
	"testing"

	"quaver/internal/queue"
	"quaver/internal/testsupport"
)

func TestNewJobRequiresUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.NewJob(context.Background(), 999, queue.DefaultParams()); err == nil {
		t.Fatal("expected error for missing upload")
	}
}

func TestNewJobRejectsInvalidParams(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)

	params := queue.DefaultParams()
	params.Grid = 5
	if _, err := store.NewJob(context.Background(), upload.ID, params); err == nil {
		t.Fatal("expected error for invalid grid")
	}
}

func TestClaimTransitionsQueuedToRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)
	job := testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())

	claimed, err := store.Claim(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed == nil || claimed.Status != queue.StatusRunning {
		t.Fatalf("claimed job = %+v, want running", claimed)
	}
	if claimed.LastHeartbeat == nil {
		t.Fatal("claim should set a heartbeat")
	}

	// A second claim must lose: the job is no longer queued.
	again, err := store.Claim(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if again != nil {
		t.Fatalf("second claim won unexpectedly: %+v", again)
	}
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)
	job := testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())

	const workers = 8
	var wg sync.WaitGroup
	wins := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.Claim(context.Background(), job.ID)
			if err != nil {
				t.Errorf("Claim: %v", err)
				return
			}
			if claimed != nil {
				wins <- claimed.ID
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for range wins {
		winners++
	}
	if winners != 1 {
		t.Fatalf("got %d claim winners, want exactly 1", winners)
	}
}

func TestSetProgressIsMonotone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)
	job := testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())
	ctx := context.Background()

	if _, err := store.Claim(ctx, job.ID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.SetProgress(ctx, job.ID, 60); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}
	if err := store.SetProgress(ctx, job.ID, 30); err != nil {
		t.Fatalf("SetProgress regression: %v", err)
	}

	got, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Progress != 60 {
		t.Fatalf("progress = %d, want 60 (regressions ignored)", got.Progress)
	}
}

func TestTerminalJobsAreFrozen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)
	ctx := context.Background()

	done := testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())
	if _, err := store.Claim(ctx, done.ID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.MarkDone(ctx, done.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	// No transition or progress write may touch a terminal job.
	if err := store.MarkDone(ctx, done.ID); err == nil {
		t.Fatal("second MarkDone should fail")
	}
	if err := store.MarkFailed(ctx, done.ID, "late failure"); err == nil {
		t.Fatal("MarkFailed on done job should fail")
	}
	if err := store.SetProgress(ctx, done.ID, 10); err != nil {
		t.Fatalf("SetProgress on terminal job: %v", err)
	}

	got, err := store.GetJob(ctx, done.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != queue.StatusDone || got.Progress != 100 || got.ErrorMessage != "" {
		t.Fatalf("terminal job mutated: %+v", got)
	}
	if got.FinishedAt == nil {
		t.Fatal("done job missing finished timestamp")
	}
	if got.LastHeartbeat != nil {
		t.Fatal("done job should clear heartbeat")
	}
}

func TestMarkFailedPreservesProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)
	job := testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())
	ctx := context.Background()

	if _, err := store.Claim(ctx, job.ID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.SetProgress(ctx, job.ID, 33); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}
	if err := store.MarkFailed(ctx, job.ID, "pitch model crashed"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	got, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.Progress != 33 {
		t.Fatalf("progress = %d, want 33 preserved", got.Progress)
	}
	if got.ErrorMessage != "pitch model crashed" {
		t.Fatalf("error message = %q", got.ErrorMessage)
	}
}

func TestRemoveUploadCascades(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)
	job := testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())
	ctx := context.Background()

	if _, err := store.Claim(ctx, job.ID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := store.AddArtifact(ctx, job.ID, queue.ArtifactPitchEvents, "/tmp/p.json"); err != nil {
		t.Fatalf("AddArtifact: %v", err)
	}
	if err := store.AppendLog(ctx, job.ID, queue.LogInfo, "job started"); err != nil {
		t.Fatalf("AppendLog: %v", err)
	}

	removed, err := store.RemoveUpload(ctx, upload.ID)
	if err != nil {
		t.Fatalf("RemoveUpload: %v", err)
	}
	if !removed {
		t.Fatal("upload not removed")
	}

	if got, err := store.GetJob(ctx, job.ID); err != nil || got != nil {
		t.Fatalf("job survived cascade: %+v, %v", got, err)
	}
	artifacts, err := store.ArtifactsForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("ArtifactsForJob: %v", err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("artifacts survived cascade: %d", len(artifacts))
	}
	count, err := store.CountLogs(ctx, job.ID)
	if err != nil {
		t.Fatalf("CountLogs: %v", err)
	}
	if count != 0 {
		t.Fatalf("logs survived cascade: %d", count)
	}
}

func TestClaimNextQueuedOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)
	first := testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())
	testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())

	claimed, err := store.ClaimNextQueued(context.Background())
	if err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("claimed %+v, want oldest job %d", claimed, first.ID)
	}
}

func TestArtifactByKindReturnsNewest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)
	job := testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())
	ctx := context.Background()

	if _, err := store.AddArtifact(ctx, job.ID, queue.ArtifactSeparatedAudio, "/tmp/a.wav"); err != nil {
		t.Fatalf("AddArtifact: %v", err)
	}
	if _, err := store.AddArtifact(ctx, job.ID, queue.ArtifactSeparatedAudio, "/tmp/b.wav"); err != nil {
		t.Fatalf("AddArtifact: %v", err)
	}

	artifact, err := store.ArtifactByKind(ctx, job.ID, queue.ArtifactSeparatedAudio)
	if err != nil {
		t.Fatalf("ArtifactByKind: %v", err)
	}
	if artifact == nil || artifact.Path != "/tmp/b.wav" {
		t.Fatalf("artifact = %+v, want newest /tmp/b.wav", artifact)
	}
}
