package daemon_test

import (
	"context"
	"testing"

	"streamwatch/internal/config"
	"streamwatch/internal/daemon"
	"streamwatch/internal/logging"
	"streamwatch/internal/pipeline"
	"streamwatch/internal/stage"
	"streamwatch/internal/store"
	"streamwatch/internal/testsupport"
)

type noopStage struct{ name string }

func (s noopStage) Prepare(context.Context, *store.Detection) error { return nil }
func (s noopStage) Execute(context.Context, *store.Detection) error { return nil }
func (s noopStage) HealthCheck(context.Context) stage.Health        { return stage.Healthy(s.name) }

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()

	st := testsupport.MustOpenStore(t, cfg)
	manager := pipeline.NewManagerWithStages(cfg, st, logging.NewNop(), nil, pipeline.StageSet{
		Capture: noopStage{name: "capture"},
		Match:   noopStage{name: "match"},
		Enforce: noopStage{name: "enforce"},
	})
	d, err := daemon.New(cfg, st, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if !status.Pipeline.Running {
		t.Fatal("expected pipeline to report running")
	}
	if d.APIAddr() == "" {
		t.Fatal("expected bound api address")
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newDaemon(t, cfg)
	second := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		t.Fatal("expected second daemon instance to be rejected")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start after release failed: %v", err)
	}
}

func TestDaemonTestNotificationUnconfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	ok, detail, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if ok {
		t.Fatal("expected notification to be skipped without a topic")
	}
	if detail != "ntfy topic not configured" {
		t.Fatalf("unexpected detail: %q", detail)
	}
}
