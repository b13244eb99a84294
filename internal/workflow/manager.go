package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/queue"
	"redub/internal/stage"
)

// StageSet bundles the concrete pipeline handlers the manager orchestrates,
// in processing order.
type StageSet struct {
	Downloader  stage.Handler
	Extractor   stage.Handler
	Separator   stage.Handler
	Transcriber stage.Handler
	Translator  stage.Handler
	Synthesizer stage.Handler
	Muxer       stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	heartbeat    *HeartbeatMonitor

	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage
	statusOrder  []queue.Status

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item
}

// NewManager constructs a workflow manager without stages configured.
// Call ConfigureStages before Start.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		stageByStart: make(map[queue.Status]pipelineStage),
	}
}

// ConfigureStages registers the pipeline handlers. Nil handlers are skipped,
// which lets tests exercise a partial pipeline.
func (m *Manager) ConfigureStages(set StageSet) {
	ordered := []pipelineStage{
		{name: "download", handler: set.Downloader, startStatus: queue.StatusPending, processingStatus: queue.StatusDownloading, doneStatus: queue.StatusDownloaded},
		{name: "extract", handler: set.Extractor, startStatus: queue.StatusDownloaded, processingStatus: queue.StatusExtracting, doneStatus: queue.StatusExtracted},
		{name: "separate", handler: set.Separator, startStatus: queue.StatusExtracted, processingStatus: queue.StatusSeparating, doneStatus: queue.StatusSeparated},
		{name: "transcribe", handler: set.Transcriber, startStatus: queue.StatusSeparated, processingStatus: queue.StatusTranscribing, doneStatus: queue.StatusTranscribed},
		{name: "translate", handler: set.Translator, startStatus: queue.StatusTranscribed, processingStatus: queue.StatusTranslating, doneStatus: queue.StatusTranslated},
		{name: "synthesize", handler: set.Synthesizer, startStatus: queue.StatusTranslated, processingStatus: queue.StatusSynthesizing, doneStatus: queue.StatusSynthesized},
		{name: "mux", handler: set.Muxer, startStatus: queue.StatusSynthesized, processingStatus: queue.StatusMuxing, doneStatus: queue.StatusCompleted},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = m.stages[:0]
	m.stageByStart = make(map[queue.Status]pipelineStage, len(ordered))
	m.statusOrder = m.statusOrder[:0]
	for _, stg := range ordered {
		if stg.handler == nil {
			continue
		}
		m.stages = append(m.stages, stg)
		m.stageByStart[stg.startStatus] = stg
		m.statusOrder = append(m.statusOrder, stg.startStatus)
	}
}

func (m *Manager) stageForStatus(status queue.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}

// LastError returns the most recent stage or queue error.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// LastItem returns a copy of the most recently processed item.
func (m *Manager) LastItem() *queue.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastItem == nil {
		return nil
	}
	cp := *m.lastItem
	return &cp
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	if item == nil {
		m.lastItem = nil
	} else {
		cp := *item
		m.lastItem = &cp
	}
	m.mu.Unlock()
}

// Running reports whether the processing loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}
