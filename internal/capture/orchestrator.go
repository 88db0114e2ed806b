package capture

import (
	"context"
	"time"

	"log/slog"

	"streamwatch/internal/config"
	"streamwatch/internal/fingerprint"
	"streamwatch/internal/logging"
	"streamwatch/internal/notifications"
	"streamwatch/internal/services"
	"streamwatch/internal/stage"
	"streamwatch/internal/store"
)

// Orchestrator manages the evidence acquisition stage.
type Orchestrator struct {
	store    *store.Store
	cfg      *config.Config
	logger   *slog.Logger
	fetcher  Fetcher
	notifier notifications.Service
	sleep    func(context.Context, time.Duration) error
	now      func() time.Time
}

// NewOrchestrator constructs the capture handler using default dependencies.
func NewOrchestrator(cfg *config.Config, st *store.Store, logger *slog.Logger) *Orchestrator {
	fetcher := NewCommandFetcher(cfg.Capture.ExtractorCommand)
	return NewOrchestratorWithDependencies(cfg, st, logger, fetcher, notifications.NewService(cfg))
}

// NewOrchestratorWithDependencies allows injecting all collaborators (used in tests).
func NewOrchestratorWithDependencies(cfg *config.Config, st *store.Store, logger *slog.Logger, fetcher Fetcher, notifier notifications.Service) *Orchestrator {
	return &Orchestrator{
		store:    st,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "capture"),
		fetcher:  fetcher,
		notifier: notifier,
		sleep:    sleepContext,
		now:      time.Now,
	}
}

func (o *Orchestrator) Prepare(ctx context.Context, detection *store.Detection) error {
	logger := logging.WithContext(ctx, o.logger)
	detection.ErrorMessage = ""
	logger.Info(
		"starting capture",
		logging.Int64(logging.FieldDetectionID, detection.ID),
		logging.String(logging.FieldPlatform, detection.Platform),
		logging.String("url", detection.URL),
	)
	return nil
}

func (o *Orchestrator) Execute(ctx context.Context, detection *store.Detection) error {
	logger := logging.WithContext(ctx, o.logger).With(
		logging.Int64(logging.FieldDetectionID, detection.ID))

	sample, fetchErr := o.acquire(ctx, detection, logger)
	if fetchErr != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "capture", "acquire sample", "", ctx.Err())
		}
		video, audio := fingerprint.Fallback(detection.URL, o.now())
		logger.Warn("sampling exhausted, using fallback fingerprints", logging.Error(fetchErr))
		sample = Sample{Video: video, Audio: audio}
	}

	evidence, err := o.buildEvidence(detection.ID, sample, fetchErr)
	if err != nil {
		return err
	}

	stored, err := o.store.InsertEvidence(ctx, evidence)
	if err != nil {
		return services.Wrap(services.ErrTransient, "capture", "persist evidence", "", err)
	}

	logger.Info(
		"capture complete",
		logging.String("source", stored.Source),
		logging.Float64("duration_seconds", stored.DurationSeconds),
	)
	if o.notifier != nil {
		if err := o.notifier.NotifyCaptureCompleted(ctx, detection.Platform, detection.Title, stored.Source); err != nil {
			logger.Warn("failed to send capture notification", logging.Error(err))
		}
	}
	return nil
}

// acquire runs the fetch loop with exponential backoff. It returns the last
// fetch error once attempts are exhausted; the caller decides how to degrade.
func (o *Orchestrator) acquire(ctx context.Context, detection *store.Detection, logger *slog.Logger) (Sample, error) {
	if o.fetcher == nil {
		return Sample{}, ErrNoFetcher
	}
	if err := o.fetcher.Available(); err != nil {
		return Sample{}, err
	}

	attempts := o.cfg.Capture.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	timeout := time.Duration(o.cfg.Capture.AttemptTimeout) * time.Second
	baseDelay := time.Duration(o.cfg.Capture.RetryBaseDelay) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		sample, err := o.fetchOnce(ctx, detection.URL, timeout)
		if err == nil {
			return sample, nil
		}
		lastErr = err
		logger.Warn(
			"capture attempt failed",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Error(err),
		)
		if ctx.Err() != nil {
			return Sample{}, ctx.Err()
		}
		if attempt == attempts {
			break
		}
		delay := baseDelay << (attempt - 1)
		if delay > 0 {
			if err := o.sleep(ctx, delay); err != nil {
				return Sample{}, err
			}
		}
	}
	return Sample{}, lastErr
}

func (o *Orchestrator) fetchOnce(ctx context.Context, streamURL string, timeout time.Duration) (Sample, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return o.fetcher.Fetch(ctx, streamURL)
}

func (o *Orchestrator) buildEvidence(detectionID int64, sample Sample, fetchErr error) (*store.Evidence, error) {
	evidence := &store.Evidence{
		DetectionID:     detectionID,
		StorageKey:      sample.StorageKey,
		Source:          store.SourceExtracted,
		DurationSeconds: sample.DurationSeconds,
	}
	if fetchErr != nil {
		evidence.Source = store.SourceFallback
	}

	if sample.Video.IsZero() {
		evidence.VideoNote = "video sampling unavailable"
	} else {
		blob, err := fingerprint.Encode(sample.Video)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "capture", "encode video fingerprint", "", err)
		}
		evidence.VideoFingerprint = blob
	}
	if sample.Audio.IsZero() {
		evidence.AudioNote = "audio sampling unavailable"
	} else {
		blob, err := fingerprint.Encode(sample.Audio)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "capture", "encode audio fingerprint", "", err)
		}
		evidence.AudioFingerprint = blob
	}
	return evidence, nil
}

func (o *Orchestrator) HealthCheck(ctx context.Context) stage.Health {
	if o.fetcher == nil {
		return stage.Health{Name: "capture", Ready: true, Detail: "no fetcher; fallback fingerprints only"}
	}
	if err := o.fetcher.Available(); err != nil {
		return stage.Health{Name: "capture", Ready: true, Detail: "extractor unavailable; fallback fingerprints only"}
	}
	return stage.Healthy("capture")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
