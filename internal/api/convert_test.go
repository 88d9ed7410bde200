package api

import (
	"testing"
	"time"

	"quaver/internal/queue"
	"quaver/internal/stage"
	"quaver/internal/workflow"
)

func TestFromJobMapsFields(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	finished := created.Add(42 * time.Second)
	job := &queue.Job{
		ID:           5,
		UploadID:     2,
		Status:       queue.StatusDone,
		Progress:     100,
		Params:       queue.DefaultParams(),
		CreatedAt:    created,
		FinishedAt:   &finished,
		ErrorMessage: "",
	}

	got := FromJob(job)
	if got.ID != 5 || got.UploadID != 2 {
		t.Errorf("ids = %d/%d", got.ID, got.UploadID)
	}
	if got.Status != "done" || got.Progress != 100 {
		t.Errorf("status/progress = %s/%d", got.Status, got.Progress)
	}
	if got.CreatedAt != "2026-03-14T09:26:53.000Z" {
		t.Errorf("createdAt = %q", got.CreatedAt)
	}
	if got.FinishedAt == "" {
		t.Error("finishedAt empty for a finished job")
	}
	if got.LastHeartbeat != "" {
		t.Errorf("lastHeartbeat = %q, want empty for nil", got.LastHeartbeat)
	}
	if got.Params.Separation != queue.SeparationPassthrough || got.Params.Renderer != queue.RendererNone {
		t.Errorf("params = %+v", got.Params)
	}
}

func TestFromJobNil(t *testing.T) {
	if got := FromJob(nil); got.ID != 0 || got.Status != "" {
		t.Errorf("FromJob(nil) = %+v", got)
	}
}

func TestFromStatusBuildsQueueStats(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:   true,
		LastJobID: 8,
		Queue:     queue.HealthSummary{Queued: 1, Running: 1, Done: 3, Failed: 2, Total: 7},
	}
	health := []stage.Health{
		stage.Healthy("separating"),
		stage.Unhealthy("rendering", "mscore not found"),
	}

	got := FromStatus(summary, health)
	if !got.Running || got.LastJobID != 8 {
		t.Errorf("summary fields = %+v", got)
	}
	want := map[string]int{"queued": 1, "running": 1, "done": 3, "failed": 2, "total": 7}
	for key, expected := range want {
		if got.QueueStats[key] != expected {
			t.Errorf("queueStats[%s] = %d, want %d", key, got.QueueStats[key], expected)
		}
	}
	if len(got.StageHealth) != 2 {
		t.Fatalf("stage health entries = %d", len(got.StageHealth))
	}
	if got.StageHealth[0].Name != "separating" || !got.StageHealth[0].Ready {
		t.Errorf("first probe = %+v", got.StageHealth[0])
	}
	if got.StageHealth[1].Ready || got.StageHealth[1].Detail == "" {
		t.Errorf("second probe = %+v", got.StageHealth[1])
	}
}

func TestConvertSlicesNeverNil(t *testing.T) {
	if FromJobs(nil) == nil {
		t.Error("FromJobs(nil) returned nil slice")
	}
	if FromUploads(nil) == nil {
		t.Error("FromUploads(nil) returned nil slice")
	}
	if FromArtifacts(nil) == nil {
		t.Error("FromArtifacts(nil) returned nil slice")
	}
	if FromLogs(nil) == nil {
		t.Error("FromLogs(nil) returned nil slice")
	}
}
