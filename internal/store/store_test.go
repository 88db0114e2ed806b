package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"streamwatch/internal/store"
	"streamwatch/internal/testsupport"
)

func TestEnqueueDeduplicatesCandidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, created, err := st.Enqueue(ctx, "YouTube", "https://youtube.com/watch?v=abc123", "Premier League Live")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if !created {
		t.Fatal("expected first enqueue to create a detection")
	}
	if first.Status != store.StatusFound {
		t.Fatalf("expected status found, got %s", first.Status)
	}
	if first.Platform != "youtube" {
		t.Fatalf("expected normalized platform, got %q", first.Platform)
	}

	second, created, err := st.Enqueue(ctx, "youtube", "https://youtube.com/watch?v=abc123", "")
	if err != nil {
		t.Fatalf("re-enqueue failed: %v", err)
	}
	if created {
		t.Fatal("expected duplicate enqueue to return existing detection")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same detection, got %d and %d", first.ID, second.ID)
	}

	all, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one detection, got %d", len(all))
	}
}

func TestEnqueueRequiresPlatformAndURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, _, err := st.Enqueue(context.Background(), "", "https://example.com/stream", ""); err == nil {
		t.Fatal("expected error for missing platform")
	}
	if _, _, err := st.Enqueue(context.Background(), "youtube", "", ""); err == nil {
		t.Fatal("expected error for missing url")
	}
}

func TestTransitionStatusCompareAndSet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	detection := testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=cas")

	if err := st.TransitionStatus(ctx, detection.ID, store.StatusFound, store.StatusCapturing); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	err := st.TransitionStatus(ctx, detection.ID, store.StatusFound, store.StatusCapturing)
	if !errors.Is(err, store.ErrTransitionLost) {
		t.Fatalf("expected ErrTransitionLost, got %v", err)
	}

	fetched, err := st.GetByID(ctx, detection.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != store.StatusCapturing {
		t.Fatalf("expected capturing, got %s", fetched.Status)
	}
}

func TestTransitionStatusSingleWinnerUnderContention(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	detection := testsupport.NewDetection(t, st, "twitch", "https://twitch.tv/suspect")

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.TransitionStatus(ctx, detection.ID, store.StatusFound, store.StatusCapturing)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, store.ErrTransitionLost) {
				t.Errorf("unexpected transition error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestMarkFailureRollsBackInFlightStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	detection := testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=fail")

	if err := st.TransitionStatus(ctx, detection.ID, store.StatusFound, store.StatusCapturing); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if err := st.MarkFailure(ctx, detection.ID, store.StatusError, "capture timed out"); err != nil {
		t.Fatalf("MarkFailure failed: %v", err)
	}

	fetched, err := st.GetByID(ctx, detection.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != store.StatusError {
		t.Fatalf("expected error status, got %s", fetched.Status)
	}
	if fetched.LastGoodStatus != store.StatusFound {
		t.Fatalf("expected last good status found, got %s", fetched.LastGoodStatus)
	}
	if fetched.ErrorMessage != "capture timed out" {
		t.Fatalf("unexpected error message %q", fetched.ErrorMessage)
	}

	retried, err := st.RetryErrored(ctx)
	if err != nil {
		t.Fatalf("RetryErrored failed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected one retried detection, got %d", retried)
	}

	fetched, err = st.GetByID(ctx, detection.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != store.StatusFound {
		t.Fatalf("expected found after retry, got %s", fetched.Status)
	}
	if fetched.ErrorMessage != "" {
		t.Fatalf("expected cleared error message, got %q", fetched.ErrorMessage)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		initial  store.Status
		expected store.Status
	}{
		{store.StatusCapturing, store.StatusFound},
		{store.StatusMatching, store.StatusFingerprinted},
		{store.StatusEnforcing, store.StatusMatched},
	}

	ids := make([]int64, 0, len(cases))
	for i, tc := range cases {
		detection := testsupport.NewDetection(t, st, "youtube", fmt.Sprintf("https://youtube.com/watch?v=stuck%d", i))
		if err := st.TransitionStatus(ctx, detection.ID, store.StatusFound, tc.initial); err != nil {
			t.Fatalf("transition failed: %v", err)
		}
		ids = append(ids, detection.ID)
	}

	reset, err := st.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != int64(len(cases)) {
		t.Fatalf("expected %d reset detections, got %d", len(cases), reset)
	}

	for i, tc := range cases {
		fetched, err := st.GetByID(ctx, ids[i])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if fetched.Status != tc.expected {
			t.Fatalf("case %d: expected %s, got %s", i, tc.expected, fetched.Status)
		}
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale := testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=stale")
	fresh := testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=fresh")

	for _, id := range []int64{stale.ID, fresh.ID} {
		if err := st.TransitionStatus(ctx, id, store.StatusFound, store.StatusCapturing); err != nil {
			t.Fatalf("transition failed: %v", err)
		}
		if err := st.UpdateHeartbeat(ctx, id); err != nil {
			t.Fatalf("UpdateHeartbeat failed: %v", err)
		}
	}

	// Only the stale detection's heartbeat predates the cutoff.
	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now().UTC()
	time.Sleep(10 * time.Millisecond)
	if err := st.UpdateHeartbeat(ctx, fresh.ID); err != nil {
		t.Fatalf("UpdateHeartbeat failed: %v", err)
	}

	reclaimed, err := st.ReclaimStaleProcessing(ctx, cutoff)
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected one reclaimed detection, got %d", reclaimed)
	}

	staleFetched, err := st.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if staleFetched.Status != store.StatusFound {
		t.Fatalf("expected stale detection back at found, got %s", staleFetched.Status)
	}

	freshFetched, err := st.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if freshFetched.Status != store.StatusCapturing {
		t.Fatalf("expected fresh detection untouched, got %s", freshFetched.Status)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=one")
	detection := testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=two")
	if err := st.TransitionStatus(ctx, detection.ID, store.StatusFound, store.StatusCapturing); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[store.StatusFound] != 1 || stats[store.StatusCapturing] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := st.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Found != 1 || health.Processing != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}

func TestCheckHealthReportsDiagnostics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=health")

	health, err := st.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected database health: %#v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("expected no missing columns, got %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if health.TotalDetections != 1 {
		t.Fatalf("expected one detection, got %d", health.TotalDetections)
	}
}
