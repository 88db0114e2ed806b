package enforce_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"streamwatch/internal/config"
	"streamwatch/internal/enforce"
	"streamwatch/internal/services"
	"streamwatch/internal/store"
	"streamwatch/internal/testsupport"
)

type stubTransport struct {
	messageID string
	err       error
	sent      []enforce.Message
}

func (s *stubTransport) Send(_ context.Context, msg enforce.Message) (string, error) {
	s.sent = append(s.sent, msg)
	if s.err != nil {
		return "", s.err
	}
	return s.messageID, nil
}

func seedApprovedDetection(t *testing.T, cfg *config.Config, st *store.Store) *store.Detection {
	t.Helper()
	ctx := context.Background()

	detection, _, err := st.Enqueue(ctx, "youtube", "https://youtube.com/watch?v=approved", "Cup Final Live")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := st.InsertEvidence(ctx, &store.Evidence{
		DetectionID:      detection.ID,
		VideoFingerprint: `{"hash":"a1b2c3d4e5f60718"}`,
		AudioFingerprint: `{"hash":"deadbeefcafebabe"}`,
		Source:           store.SourceExtracted,
		DurationSeconds:  30,
	}); err != nil {
		t.Fatalf("InsertEvidence: %v", err)
	}

	reference := testsupport.NewReference(t, st, "youtube", "Cup Final",
		`{"hash":"a1b2c3d4e5f60718"}`, `{"hash":"deadbeefcafebabe"}`)
	if err := st.UpsertMatch(ctx, &store.Match{
		DetectionID:    detection.ID,
		ReferenceID:    reference.ID,
		VideoScore:     1,
		AudioScore:     1,
		Confidence:     1,
		Category:       store.CategoryMatch,
		VideoThreshold: cfg.Matching.VideoThreshold,
		AudioThreshold: cfg.Matching.AudioThreshold,
	}); err != nil {
		t.Fatalf("UpsertMatch: %v", err)
	}

	detection.Decision = store.DecisionApprove
	detection.Confidence = 1
	detection.RiskScore = 0.9
	if err := st.Update(ctx, detection); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return detection
}

func TestGateDryRunRecordsWithoutSending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	detection := seedApprovedDetection(t, cfg, st)

	transport := &stubTransport{messageID: "never"}
	gate := enforce.NewGateWithDependencies(cfg, st, nil, transport, nil)

	if err := gate.Prepare(context.Background(), detection); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := gate.Execute(context.Background(), detection); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(transport.sent) != 0 {
		t.Fatalf("dry-run must not touch the transport, sent %d", len(transport.sent))
	}

	history, err := st.EnforcementsForDetection(context.Background(), detection.ID)
	if err != nil {
		t.Fatalf("EnforcementsForDetection: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one enforcement record, got %d", len(history))
	}
	record := history[0]
	if record.Sent || !record.DryRun {
		t.Fatalf("expected unsent dry-run record, got %#v", record)
	}
	if !strings.HasPrefix(record.MessageID, "dry-run-") {
		t.Fatalf("unexpected message id: %q", record.MessageID)
	}
	if record.Action != enforce.ActionNotice {
		t.Fatalf("unexpected action: %q", record.Action)
	}
	if !strings.Contains(record.Recipients, "copyright@youtube.com") {
		t.Fatalf("unexpected recipients: %q", record.Recipients)
	}
	if !strings.Contains(record.NoticeBody, detection.URL) {
		t.Fatal("notice body missing detection URL")
	}
}

func TestGateLiveDeliveryRecordsMessageID(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLiveEnforcement())
	st := testsupport.MustOpenStore(t, cfg)
	detection := seedApprovedDetection(t, cfg, st)

	transport := &stubTransport{messageID: "smtp-msg-1"}
	gate := enforce.NewGateWithDependencies(cfg, st, nil, transport, nil)

	if err := gate.Execute(context.Background(), detection); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(transport.sent))
	}
	if got := transport.sent[0].Recipients; len(got) != 2 {
		t.Fatalf("unexpected recipients: %v", got)
	}

	history, err := st.EnforcementsForDetection(context.Background(), detection.ID)
	if err != nil {
		t.Fatalf("EnforcementsForDetection: %v", err)
	}
	if len(history) != 1 || !history[0].Sent || history[0].MessageID != "smtp-msg-1" {
		t.Fatalf("unexpected history: %#v", history)
	}
}

func TestGateRecordsFailedDelivery(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLiveEnforcement())
	st := testsupport.MustOpenStore(t, cfg)
	detection := seedApprovedDetection(t, cfg, st)

	transport := &stubTransport{err: errors.New("relay refused")}
	gate := enforce.NewGateWithDependencies(cfg, st, nil, transport, nil)

	err := gate.Execute(context.Background(), detection)
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if services.FailureStatus(err) != store.StatusError {
		t.Fatalf("expected retryable failure, got %v", err)
	}

	history, histErr := st.EnforcementsForDetection(context.Background(), detection.ID)
	if histErr != nil {
		t.Fatalf("EnforcementsForDetection: %v", histErr)
	}
	if len(history) != 1 || history[0].Sent {
		t.Fatalf("expected one unsent record, got %#v", history)
	}
}

func TestGateBlocksNonApprovedDecisions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	detection := seedApprovedDetection(t, cfg, st)
	detection.Decision = store.DecisionReview
	if err := st.Update(context.Background(), detection); err != nil {
		t.Fatalf("Update: %v", err)
	}

	gate := enforce.NewGateWithDependencies(cfg, st, nil, nil, nil)
	err := gate.Execute(context.Background(), detection)
	if err == nil {
		t.Fatal("expected gate to block review decision")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	history, histErr := st.EnforcementsForDetection(context.Background(), detection.ID)
	if histErr != nil {
		t.Fatalf("EnforcementsForDetection: %v", histErr)
	}
	if len(history) != 0 {
		t.Fatalf("expected no enforcement records, got %d", len(history))
	}
}

func TestGateRequiresStoredMatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	detection, _, err := st.Enqueue(ctx, "youtube", "https://youtube.com/watch?v=nomatch", "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := st.InsertEvidence(ctx, &store.Evidence{
		DetectionID:      detection.ID,
		VideoFingerprint: `{"hash":"a1b2c3d4e5f60718"}`,
		Source:           store.SourceExtracted,
	}); err != nil {
		t.Fatalf("InsertEvidence: %v", err)
	}
	detection.Decision = store.DecisionApprove
	if err := st.Update(ctx, detection); err != nil {
		t.Fatalf("Update: %v", err)
	}

	gate := enforce.NewGateWithDependencies(cfg, st, nil, nil, nil)
	execErr := gate.Execute(ctx, detection)
	if execErr == nil {
		t.Fatal("expected error without stored matches")
	}
	if !errors.Is(execErr, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", execErr)
	}
}
