package daemon

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"quaver/internal/api"
	"quaver/internal/config"
	"quaver/internal/logging"
	"quaver/internal/pipeline"
	"quaver/internal/queue"
	"quaver/internal/testsupport"
	"quaver/internal/workflow"
)

func newTestDaemon(t *testing.T, cfg *config.Config, store *queue.Store) *Daemon {
	t.Helper()
	logger := logging.NewNop()
	manager := workflow.NewManager(cfg, store, logger, workflow.StageSet{
		Separation: pipeline.NewSeparationStage(cfg, store, logger),
		Pitch:      pipeline.NewPitchStage(cfg, store, logger),
		Quantize:   pipeline.NewQuantizeStage(cfg, store, logger),
		Encode:     pipeline.NewEncodeStage(cfg, store, logger),
		Render:     pipeline.NewRenderStage(cfg, store, logger),
	})
	d, err := New(cfg, store, logger, manager)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first := newTestDaemon(t, cfg, store)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	second := newTestDaemon(t, cfg, store)
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon acquired the lock while the first was running")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
	second.Stop()
}

func TestStatusReflectsLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d := newTestDaemon(t, cfg, store)
	if got := d.Status(context.Background()); got.Running {
		t.Error("daemon reports running before Start")
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status(context.Background())
	if !status.Running || !status.Workflow.Running {
		t.Errorf("status = %+v, want running daemon and workflow", status)
	}
	if len(status.StageHealth) == 0 {
		t.Error("status missing stage health probes")
	}
	if status.QueueDBPath != cfg.QueueDBPath() {
		t.Errorf("queue db path = %q", status.QueueDBPath)
	}

	d.Stop()
	if got := d.Status(context.Background()); got.Running {
		t.Error("daemon still reports running after Stop")
	}
}

func TestAPIDisabledWithoutBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)

	d := newTestDaemon(t, cfg, store)
	if d.api != nil {
		t.Fatal("api server constructed without a bind address")
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start without api: %v", err)
	}
	d.Stop()
}

func TestStatusHandler(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d := newTestDaemon(t, cfg, store)
	rec := httptest.NewRecorder()
	d.api.handleStatus(rec, httptest.NewRequest("GET", "/api/status", nil))

	if rec.Code != 200 {
		t.Fatalf("status code = %d", rec.Code)
	}
	var payload api.WorkflowStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Running {
		t.Error("workflow reported running before Start")
	}
	if payload.QueueStats["total"] != 0 {
		t.Errorf("total = %d, want 0", payload.QueueStats["total"])
	}
}

func TestJobHandlerRoutes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	upload := testsupport.NewUpload(t, cfg, store)
	job := testsupport.NewJob(t, store, upload.ID, queue.DefaultParams())

	d := newTestDaemon(t, cfg, store)

	rec := httptest.NewRecorder()
	d.api.handleJob(rec, httptest.NewRequest("GET", "/api/jobs/1", nil))
	if rec.Code != 200 {
		t.Fatalf("job detail code = %d", rec.Code)
	}
	var got api.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != job.ID || got.Status != "queued" {
		t.Errorf("job = %+v", got)
	}

	rec = httptest.NewRecorder()
	d.api.handleJob(rec, httptest.NewRequest("GET", "/api/jobs/999", nil))
	if rec.Code != 404 {
		t.Errorf("missing job code = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	d.api.handleJob(rec, httptest.NewRequest("GET", "/api/jobs/banana", nil))
	if rec.Code != 400 {
		t.Errorf("invalid id code = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	d.api.handleJob(rec, httptest.NewRequest("GET", "/api/jobs/1/artifacts", nil))
	if rec.Code != 200 {
		t.Errorf("artifacts code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	d.api.handleJob(rec, httptest.NewRequest("GET", "/api/jobs/1/bogus", nil))
	if rec.Code != 404 {
		t.Errorf("unknown subresource code = %d, want 404", rec.Code)
	}
}
