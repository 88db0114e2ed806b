package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"log/slog"

	"github.com/google/uuid"

	"streamwatch/internal/logging"
	"streamwatch/internal/services"
	"streamwatch/internal/stage"
	"streamwatch/internal/store"
)

type stageDef struct {
	name       string
	handler    stage.Handler
	start      store.Status
	processing store.Status
	autoOnly   bool
	next       func(context.Context, *store.Store) (*store.Detection, error)
	finalize   func(context.Context, *Manager, *store.Detection) error
}

func buildStages(set StageSet) []stageDef {
	return []stageDef{
		{
			name:       "capture",
			handler:    set.Capture,
			start:      store.StatusFound,
			processing: store.StatusCapturing,
			next: func(ctx context.Context, st *store.Store) (*store.Detection, error) {
				return st.NextForStatuses(ctx, store.StatusFound)
			},
			finalize: finalizeCapture,
		},
		{
			name:       "match",
			handler:    set.Match,
			start:      store.StatusFingerprinted,
			processing: store.StatusMatching,
			next: func(ctx context.Context, st *store.Store) (*store.Detection, error) {
				return st.NextForMatching(ctx)
			},
			finalize: finalizeMatch,
		},
		{
			name:       "enforce",
			handler:    set.Enforce,
			start:      store.StatusMatched,
			processing: store.StatusEnforcing,
			autoOnly:   true,
			next: func(ctx context.Context, st *store.Store) (*store.Detection, error) {
				return st.NextForEnforcement(ctx)
			},
			finalize: finalizeEnforce,
		},
	}
}

func (m *Manager) stageByName(name string) (stageDef, bool) {
	for _, def := range m.stages {
		if def.name == name {
			return def, true
		}
	}
	return stageDef{}, false
}

// processDetection claims a detection for a stage and runs it end to end.
// Losing the claim race is not an error; another worker owns the detection.
func (m *Manager) processDetection(ctx context.Context, def stageDef, detection *store.Detection) error {
	requestID := uuid.NewString()
	logger := logging.WithContext(ctx, m.logger).With(
		logging.String(logging.FieldStage, def.name),
		logging.Int64(logging.FieldDetectionID, detection.ID),
		logging.String(logging.FieldCorrelationID, requestID),
	)

	if err := m.store.TransitionStatus(ctx, detection.ID, def.start, def.processing); err != nil {
		if errors.Is(err, store.ErrTransitionLost) {
			logger.Debug("lost claim race, skipping detection")
			return nil
		}
		m.setLastError(err)
		logger.Error("failed to claim detection", logging.Error(err))
		return err
	}
	detection.Status = def.processing
	if err := m.store.UpdateHeartbeat(ctx, detection.ID); err != nil {
		logger.Warn("failed to set initial heartbeat", logging.Error(err))
	}
	m.setLastDetection(detection)

	if def.handler == nil {
		err := fmt.Errorf("stage %s has no handler", def.name)
		m.failDetection(ctx, logger, def.name, detection, services.Wrap(services.ErrConfiguration, def.name, "dispatch", "stage handler unavailable", nil))
		return err
	}

	if err := def.handler.Prepare(ctx, detection); err != nil {
		m.failDetection(ctx, logger, def.name, detection, err)
		return err
	}
	if err := m.store.Update(ctx, detection); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		m.setLastError(wrapped)
		logger.Error("failed to persist stage preparation", logging.Error(wrapped))
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, def.handler, detection)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			logger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.failDetection(ctx, logger, def.name, detection, execErr)
		return execErr
	}

	if err := def.finalize(ctx, m, detection); err != nil {
		if errors.Is(err, store.ErrTransitionLost) {
			logger.Warn("finalize lost status race", logging.Error(err))
			return nil
		}
		m.failDetection(ctx, logger, def.name, detection, err)
		return err
	}
	if err := m.store.ClearHeartbeat(ctx, detection.ID); err != nil {
		logger.Warn("failed to clear heartbeat", logging.Error(err))
	}

	refreshed, err := m.store.GetByID(ctx, detection.ID)
	if err == nil && refreshed != nil {
		*detection = *refreshed
	}
	m.setLastDetection(detection)
	logger.Info(
		"stage completed",
		logging.String("next_status", string(detection.Status)),
	)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, detection *store.Detection) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, detection.ID)

	execErr := handler.Execute(ctx, detection)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) failDetection(ctx context.Context, logger *slog.Logger, stageName string, detection *store.Detection, stageErr error) {
	status := services.FailureStatus(stageErr)
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = fmt.Sprintf("%s failed", stageName)
	}

	logger.Error(
		"stage failed",
		logging.String("resolved_status", string(status)),
		logging.Error(stageErr),
	)
	if err := m.store.MarkFailure(ctx, detection.ID, status, message); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	detection.Status = status
	detection.ErrorMessage = message
	m.setLastError(stageErr)
	m.setLastDetection(detection)

	if m.notifier != nil {
		if err := m.notifier.NotifyError(ctx, stageErr, stageName); err != nil {
			logger.Warn("failed to send error notification", logging.Error(err))
		}
	}
}

// finalizeCapture requires usable fingerprints before the detection may be
// offered to matching.
func finalizeCapture(ctx context.Context, m *Manager, detection *store.Detection) error {
	evidence, err := m.store.EvidenceForDetection(ctx, detection.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "capture", "load evidence", "", err)
	}
	if evidence == nil || !evidence.FingerprintsReady() {
		return services.Wrap(
			services.ErrValidation, "capture", "verify evidence",
			"capture produced no usable fingerprints", nil)
	}
	if err := m.store.TransitionStatus(ctx, detection.ID, store.StatusCapturing, store.StatusCaptured); err != nil {
		return err
	}
	if err := m.store.TransitionStatus(ctx, detection.ID, store.StatusCaptured, store.StatusFingerprinted); err != nil {
		return err
	}
	detection.Status = store.StatusFingerprinted
	return nil
}

// finalizeMatch promotes a detection to matched only when at least one
// comparison was stored. Otherwise it rolls back to fingerprinted; the
// persisted decision keeps it from being re-polled until re-driven.
func finalizeMatch(ctx context.Context, m *Manager, detection *store.Detection) error {
	matches, err := m.store.MatchesForDetection(ctx, detection.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "match", "load matches", "", err)
	}
	target := store.StatusFingerprinted
	if len(matches) > 0 {
		target = store.StatusMatched
	}
	if err := m.store.TransitionStatus(ctx, detection.ID, store.StatusMatching, target); err != nil {
		return err
	}
	detection.Status = target
	return nil
}

func finalizeEnforce(ctx context.Context, m *Manager, detection *store.Detection) error {
	if err := m.store.TransitionStatus(ctx, detection.ID, store.StatusEnforcing, store.StatusEnforced); err != nil {
		return err
	}
	detection.Status = store.StatusEnforced
	return nil
}
