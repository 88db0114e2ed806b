package pipeline

import (
	"context"
	"fmt"

	"streamwatch/internal/services"
	"streamwatch/internal/store"
)

// RunCapture processes one detection through the capture stage synchronously.
// Re-driving a detection whose evidence is already stored is a no-op; the
// original evidence row stands.
func (m *Manager) RunCapture(ctx context.Context, id int64) error {
	detection, err := m.store.GetByID(ctx, id)
	if err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "load detection", "", err)
	}
	if detection != nil && store.IsCapturedStatus(detection.Status) {
		evidence, err := m.store.EvidenceForDetection(ctx, id)
		if err != nil {
			return services.Wrap(services.ErrTransient, "pipeline", "load evidence", "", err)
		}
		if evidence != nil {
			return nil
		}
	}
	return m.runStage(ctx, "capture", id, nil)
}

// RunMatch processes one detection through the match stage synchronously.
// Any previously persisted decision is cleared first so the pass re-scores
// the detection from scratch.
func (m *Manager) RunMatch(ctx context.Context, id int64) error {
	return m.runStage(ctx, "match", id, func(ctx context.Context, detection *store.Detection) error {
		if detection.Decision == "" {
			return nil
		}
		detection.Decision = ""
		return m.store.Update(ctx, detection)
	})
}

// RunEnforce processes one detection through the enforcement stage
// synchronously. The gate still refuses detections whose decision is not
// approve.
func (m *Manager) RunEnforce(ctx context.Context, id int64) error {
	return m.runStage(ctx, "enforce", id, nil)
}

func (m *Manager) runStage(ctx context.Context, name string, id int64, before func(context.Context, *store.Detection) error) error {
	def, ok := m.stageByName(name)
	if !ok {
		return services.Wrap(services.ErrConfiguration, "pipeline", "trigger stage", fmt.Sprintf("unknown stage %q", name), nil)
	}

	detection, err := m.store.GetByID(ctx, id)
	if err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "load detection", "", err)
	}
	if detection == nil {
		return services.Wrap(services.ErrNotFound, "pipeline", "trigger stage", fmt.Sprintf("detection %d not found", id), nil)
	}
	if detection.Status != def.start {
		return services.Wrap(
			services.ErrValidation, "pipeline", "trigger stage",
			fmt.Sprintf("stage %s requires status %s, detection %d is %s", name, def.start, id, detection.Status), nil)
	}
	if before != nil {
		if err := before(ctx, detection); err != nil {
			return services.Wrap(services.ErrTransient, "pipeline", "trigger stage", "", err)
		}
	}
	return m.processDetection(ctx, def, detection)
}
