package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"streamwatch/internal/capture"
	"streamwatch/internal/config"
	"streamwatch/internal/enforce"
	"streamwatch/internal/logging"
	"streamwatch/internal/match"
	"streamwatch/internal/notifications"
	"streamwatch/internal/stage"
	"streamwatch/internal/store"
)

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Capture stage.Handler
	Match   stage.Handler
	Enforce stage.Handler
}

// Manager coordinates detection processing across the lifecycle stages.
type Manager struct {
	cfg          *config.Config
	store        *store.Store
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration
	heartbeat    *HeartbeatMonitor
	stages       []stageDef

	mu            sync.RWMutex
	running       bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	lastErr       error
	lastDetection *store.Detection
}

// NewManager constructs a pipeline manager with default stage handlers.
func NewManager(cfg *config.Config, st *store.Store, logger *slog.Logger) *Manager {
	stages := StageSet{
		Capture: capture.NewOrchestrator(cfg, st, logger),
		Match:   match.NewHandler(cfg, st, logger),
		Enforce: enforce.NewGate(cfg, st, logger),
	}
	return NewManagerWithStages(cfg, st, logger, notifications.NewService(cfg), stages)
}

// NewManagerWithStages constructs a pipeline manager with injected handlers
// (used in tests).
func NewManagerWithStages(cfg *config.Config, st *store.Store, logger *slog.Logger, notifier notifications.Service, stages StageSet) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:          cfg,
		store:        st,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			st,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
	m.stages = buildStages(stages)
	return m
}

// Start resets orphaned in-flight work and begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("pipeline already running")
	}

	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if reset > 0 {
		m.logger.Info("reset stuck detections from previous run", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
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

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStale(ctx, m.logger); err != nil {
			m.logger.Warn("reclaim stale detections failed", logging.Error(err))
		}

		detection, def, err := m.nextWork(ctx)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to fetch next detection", logging.Error(err))
			m.waitOrShutdown(ctx, time.Duration(m.cfg.Workflow.ErrorRetryInterval)*time.Second)
			continue
		}
		if detection == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		if err := m.processDetection(ctx, def, detection); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// nextWork returns the oldest detection eligible for any stage, capture first
// so new candidates keep flowing while older ones wait on matching.
func (m *Manager) nextWork(ctx context.Context) (*store.Detection, stageDef, error) {
	for _, def := range m.stages {
		if def.autoOnly && !m.cfg.Enforcement.AutoEnforce {
			continue
		}
		detection, err := def.next(ctx, m.store)
		if err != nil {
			return nil, stageDef{}, err
		}
		if detection != nil {
			return detection, def, nil
		}
	}
	return nil, stageDef{}, nil
}

func (m *Manager) waitOrShutdown(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastDetection(detection *store.Detection) {
	m.mu.Lock()
	if detection != nil {
		snapshot := *detection
		m.lastDetection = &snapshot
	} else {
		m.lastDetection = nil
	}
	m.mu.Unlock()
}
