package pipeline

import (
	"context"

	"streamwatch/internal/logging"
	"streamwatch/internal/stage"
	"streamwatch/internal/store"
)

// Summary represents lightweight pipeline diagnostics.
type Summary struct {
	Running       bool
	LastError     string
	LastDetection *store.Detection
	Stats         map[store.Status]int
	StageHealth   map[string]stage.Health
}

// Status returns the latest pipeline information.
func (m *Manager) Status(ctx context.Context) Summary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastDetection := m.lastDetection
	defs := make([]stageDef, len(m.stages))
	copy(defs, m.stages)
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read detection stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(defs))
	for _, def := range defs {
		if def.handler == nil {
			continue
		}
		health[def.name] = def.handler.HealthCheck(ctx)
	}

	summary := Summary{Running: running, Stats: stats, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastDetection != nil {
		snapshot := *lastDetection
		summary.LastDetection = &snapshot
	}
	return summary
}
