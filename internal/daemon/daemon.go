package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"streamwatch/internal/config"
	"streamwatch/internal/logging"
	"streamwatch/internal/notifications"
	"streamwatch/internal/pipeline"
	"streamwatch/internal/store"
)

// Daemon coordinates the background pipeline and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	pipeline *pipeline.Manager
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	PID             int
	Pipeline        pipeline.Summary
	DetectionDBPath string
	LockFilePath    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, manager *pipeline.Manager) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil || manager == nil {
		return nil, errors.New("daemon requires config, store, logger, and pipeline manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "streamwatchd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		pipeline: manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, launches the pipeline manager, and begins
// serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another streamwatch daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.pipeline.Start(d.ctx); err != nil {
		d.teardown()
		return fmt.Errorf("start pipeline: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.pipeline.Stop()
		d.teardown()
		return fmt.Errorf("start api: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("streamwatch daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) teardown() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("streamwatch daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API listener address, or empty when the API is
// not serving.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:         d.running.Load(),
		PID:             os.Getpid(),
		Pipeline:        d.pipeline.Status(ctx),
		DetectionDBPath: filepath.Join(d.cfg.Paths.DataDir, "streamwatch.db"),
		LockFilePath:    d.lockPath,
	}
}

// Enqueue registers a reported candidate stream. Returns the detection and
// whether a new row was created.
func (d *Daemon) Enqueue(ctx context.Context, platform, url, title string) (*store.Detection, bool, error) {
	if d.store == nil {
		return nil, false, errors.New("detection store unavailable")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	url = strings.TrimSpace(url)
	if platform == "" || url == "" {
		return nil, false, errors.New("platform and url are required")
	}
	return d.store.Enqueue(ctx, platform, url, strings.TrimSpace(title))
}

// ListDetections returns detections filtered by optional statuses.
func (d *Daemon) ListDetections(ctx context.Context, statuses []store.Status) ([]*store.Detection, error) {
	if d.store == nil {
		return nil, errors.New("detection store unavailable")
	}
	return d.store.List(ctx, statuses...)
}

// RemoveDetection deletes a detection and its dependent rows.
func (d *Daemon) RemoveDetection(ctx context.Context, id int64) (bool, error) {
	if d.store == nil {
		return false, errors.New("detection store unavailable")
	}
	return d.store.Remove(ctx, id)
}

// ClearDetections removes all detections.
func (d *Daemon) ClearDetections(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("detection store unavailable")
	}
	return d.store.Clear(ctx)
}

// ClearEnforced removes only enforced detections.
func (d *Daemon) ClearEnforced(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("detection store unavailable")
	}
	return d.store.ClearEnforced(ctx)
}

// ClearErrored removes only errored detections.
func (d *Daemon) ClearErrored(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("detection store unavailable")
	}
	return d.store.ClearErrored(ctx)
}

// ResetStuck rolls in-flight detections back to their stable statuses.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("detection store unavailable")
	}
	return d.store.ResetStuckProcessing(ctx)
}

// RetryErrored resets errored detections (optionally a subset) back to their
// last good status.
func (d *Daemon) RetryErrored(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("detection store unavailable")
	}
	return d.store.RetryErrored(ctx, ids...)
}

// DetectionHealth returns aggregate detection diagnostics.
func (d *Daemon) DetectionHealth(ctx context.Context) (store.HealthSummary, error) {
	if d.store == nil {
		return store.HealthSummary{}, errors.New("detection store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.DatabaseHealth, error) {
	if d.store == nil {
		return store.DatabaseHealth{}, errors.New("detection store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// UpsertReference loads or refreshes a catalog entry.
func (d *Daemon) UpsertReference(ctx context.Context, reference *store.Reference) (*store.Reference, error) {
	if d.store == nil {
		return nil, errors.New("detection store unavailable")
	}
	return d.store.UpsertReference(ctx, reference)
}

// ListReferences returns catalog entries, optionally filtered by platform.
func (d *Daemon) ListReferences(ctx context.Context, platform string) ([]*store.Reference, error) {
	if d.store == nil {
		return nil, errors.New("detection store unavailable")
	}
	return d.store.ListReferences(ctx, platform)
}

// RemoveReference deletes a catalog entry.
func (d *Daemon) RemoveReference(ctx context.Context, id int64) (bool, error) {
	if d.store == nil {
		return false, errors.New("detection store unavailable")
	}
	return d.store.RemoveReference(ctx, id)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
