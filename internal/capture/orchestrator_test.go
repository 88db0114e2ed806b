package capture_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"streamwatch/internal/capture"
	"streamwatch/internal/fingerprint"
	"streamwatch/internal/store"
	"streamwatch/internal/testsupport"
)

type stubFetcher struct {
	mu       sync.Mutex
	sample   capture.Sample
	failures int
	err      error
	calls    int
}

func (f *stubFetcher) Available() error { return nil }

func (f *stubFetcher) Fetch(ctx context.Context, streamURL string) (capture.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil && f.calls <= f.failures {
		return capture.Sample{}, f.err
	}
	if f.err != nil && f.failures == 0 {
		return capture.Sample{}, f.err
	}
	return f.sample, nil
}

type unavailableFetcher struct{}

func (unavailableFetcher) Available() error { return errors.New("tool missing") }
func (unavailableFetcher) Fetch(context.Context, string) (capture.Sample, error) {
	return capture.Sample{}, errors.New("tool missing")
}

func noSleep(context.Context, time.Duration) error { return nil }

func extractedSample() capture.Sample {
	return capture.Sample{
		Video:           fingerprint.Fingerprint{Hash: "a1b2c3d4e5f60718", Method: fingerprint.MethodExtracted},
		Audio:           fingerprint.Fingerprint{Hash: "deadbeefcafebabe", Method: fingerprint.MethodExtracted},
		StorageKey:      "samples/demo.ts",
		DurationSeconds: 30,
	}
}

func TestExecuteStoresExtractedEvidence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	detection := testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=cap")

	fetcher := &stubFetcher{sample: extractedSample()}
	handler := capture.NewOrchestratorWithDependencies(cfg, st, nil, fetcher, nil)
	handler.SetSleepForTests(noSleep)

	if err := handler.Prepare(context.Background(), detection); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), detection); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	evidence, err := st.EvidenceForDetection(context.Background(), detection.ID)
	if err != nil {
		t.Fatalf("EvidenceForDetection: %v", err)
	}
	if evidence == nil {
		t.Fatal("expected evidence row")
	}
	if evidence.Source != store.SourceExtracted {
		t.Fatalf("expected extracted source, got %q", evidence.Source)
	}
	if evidence.StorageKey != "samples/demo.ts" || evidence.DurationSeconds != 30 {
		t.Fatalf("unexpected evidence: %#v", evidence)
	}
	if !evidence.FingerprintsReady() {
		t.Fatalf("expected fingerprints ready, got %#v", evidence)
	}

	video, err := fingerprint.Decode(evidence.VideoFingerprint)
	if err != nil {
		t.Fatalf("decode video fingerprint: %v", err)
	}
	if video.Hash != "a1b2c3d4e5f60718" || video.Method != fingerprint.MethodExtracted {
		t.Fatalf("unexpected video fingerprint: %#v", video)
	}
}

func TestExecuteRetriesBeforeSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Capture.MaxAttempts = 3
	cfg.Capture.RetryBaseDelay = 4
	st := testsupport.MustOpenStore(t, cfg)
	detection := testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=retry")

	fetcher := &stubFetcher{
		sample:   extractedSample(),
		failures: 2,
		err:      errors.New("stream unreachable"),
	}
	var delays []time.Duration
	handler := capture.NewOrchestratorWithDependencies(cfg, st, nil, fetcher, nil)
	handler.SetSleepForTests(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	})

	if err := handler.Execute(context.Background(), detection); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fetcher.calls != 3 {
		t.Fatalf("expected 3 fetch attempts, got %d", fetcher.calls)
	}
	if len(delays) != 2 || delays[0] != 4*time.Second || delays[1] != 8*time.Second {
		t.Fatalf("expected exponential backoff, got %v", delays)
	}

	evidence, err := st.EvidenceForDetection(context.Background(), detection.ID)
	if err != nil {
		t.Fatalf("EvidenceForDetection: %v", err)
	}
	if evidence == nil || evidence.Source != store.SourceExtracted {
		t.Fatalf("expected extracted evidence after retries, got %#v", evidence)
	}
}

func TestExecuteFallsBackAfterExhaustion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Capture.MaxAttempts = 2
	st := testsupport.MustOpenStore(t, cfg)
	detection := testsupport.NewDetection(t, st, "telegram", "https://t.me/pirated/42")

	fetcher := &stubFetcher{err: errors.New("stream unreachable")}
	handler := capture.NewOrchestratorWithDependencies(cfg, st, nil, fetcher, nil)
	handler.SetSleepForTests(noSleep)
	fixed := time.Date(2026, time.March, 7, 15, 30, 0, 0, time.UTC)
	handler.SetNowForTests(func() time.Time { return fixed })

	if err := handler.Execute(context.Background(), detection); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected 2 fetch attempts, got %d", fetcher.calls)
	}

	evidence, err := st.EvidenceForDetection(context.Background(), detection.ID)
	if err != nil {
		t.Fatalf("EvidenceForDetection: %v", err)
	}
	if evidence == nil || evidence.Source != store.SourceFallback {
		t.Fatalf("expected fallback evidence, got %#v", evidence)
	}

	wantVideo, wantAudio := fingerprint.Fallback(detection.URL, fixed)
	video, err := fingerprint.Decode(evidence.VideoFingerprint)
	if err != nil {
		t.Fatalf("decode video fingerprint: %v", err)
	}
	audio, err := fingerprint.Decode(evidence.AudioFingerprint)
	if err != nil {
		t.Fatalf("decode audio fingerprint: %v", err)
	}
	if video.Hash != wantVideo.Hash || audio.Hash != wantAudio.Hash {
		t.Fatalf("fallback fingerprints differ: %#v %#v", video, audio)
	}
	if video.Method != fingerprint.MethodFallback {
		t.Fatalf("expected fallback method, got %q", video.Method)
	}
}

func TestExecuteUsesFallbackWhenFetcherUnavailable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	detection := testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=nofetch")

	handler := capture.NewOrchestratorWithDependencies(cfg, st, nil, unavailableFetcher{}, nil)
	handler.SetSleepForTests(noSleep)

	if err := handler.Execute(context.Background(), detection); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	evidence, err := st.EvidenceForDetection(context.Background(), detection.ID)
	if err != nil {
		t.Fatalf("EvidenceForDetection: %v", err)
	}
	if evidence == nil || evidence.Source != store.SourceFallback {
		t.Fatalf("expected fallback evidence, got %#v", evidence)
	}

	health := handler.HealthCheck(context.Background())
	if !health.Ready || health.Detail == "" {
		t.Fatalf("expected degraded-but-ready health, got %#v", health)
	}
}

func TestExecuteIsIdempotentAcrossRetries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	detection := testsupport.NewDetection(t, st, "youtube", "https://youtube.com/watch?v=twice")

	first := &stubFetcher{sample: extractedSample()}
	handler := capture.NewOrchestratorWithDependencies(cfg, st, nil, first, nil)
	handler.SetSleepForTests(noSleep)
	if err := handler.Execute(context.Background(), detection); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	// A reclaimed detection re-runs capture; the original evidence wins.
	second := &stubFetcher{sample: capture.Sample{
		Video:      fingerprint.Fingerprint{Hash: "ffffffffffffffff", Method: fingerprint.MethodExtracted},
		StorageKey: "samples/other.ts",
	}}
	retry := capture.NewOrchestratorWithDependencies(cfg, st, nil, second, nil)
	retry.SetSleepForTests(noSleep)
	if err := retry.Execute(context.Background(), detection); err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	evidence, err := st.EvidenceForDetection(context.Background(), detection.ID)
	if err != nil {
		t.Fatalf("EvidenceForDetection: %v", err)
	}
	if evidence.StorageKey != "samples/demo.ts" {
		t.Fatalf("expected original evidence retained, got %#v", evidence)
	}
}
