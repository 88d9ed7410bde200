package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"quaver/internal/config"
	"quaver/internal/logging"
	"quaver/internal/queue"
	"quaver/internal/stage"
)

// slot pins a stage handler to its pipeline position and progress weight.
type slot struct {
	name    string
	handler stage.Handler
	weight  int
}

// StageSet carries the five pipeline handlers in execution order. Render may
// be nil only in tests; jobs that select no renderer skip the slot at run
// time.
type StageSet struct {
	Separation stage.Handler
	Pitch      stage.Handler
	Quantize   stage.Handler
	Encode     stage.Handler
	Render     stage.Handler
}

// Manager claims queued jobs and drives them through the pipeline one at a
// time. Claiming is a compare-and-swap on job status, so multiple managers
// sharing one store never run the same job twice.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	logger        *slog.Logger
	slots         []slot
	pollInterval  time.Duration
	retryInterval time.Duration

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastJobID int64
}

// NewManager constructs a workflow manager over a configured stage set.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, stages StageSet) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	slots := []slot{
		{name: "separating", handler: stages.Separation, weight: stageWeights["separating"]},
		{name: "extracting-pitch", handler: stages.Pitch, weight: stageWeights["extracting-pitch"]},
		{name: "quantizing", handler: stages.Quantize, weight: stageWeights["quantizing"]},
		{name: "encoding-notation", handler: stages.Encode, weight: stageWeights["encoding-notation"]},
		{name: "rendering", handler: stages.Render, weight: stageWeights["rendering"]},
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		slots:         slots,
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	for _, s := range m.slots {
		if s.handler == nil && s.name != "rendering" {
			m.mu.Unlock()
			return errors.New("workflow stages not configured")
		}
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the active job to
// yield.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(id int64) {
	m.mu.Lock()
	m.lastJobID = id
	m.mu.Unlock()
}
