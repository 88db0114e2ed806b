package match_test

import (
	"context"
	"testing"

	"streamwatch/internal/fingerprint"
	"streamwatch/internal/match"
	"streamwatch/internal/services/llm"
	"streamwatch/internal/store"
	"streamwatch/internal/testsupport"
)

func seedEvidence(t *testing.T, st *store.Store, detectionID int64, videoHash, audioHash string) {
	t.Helper()
	videoBlob, err := fingerprint.Encode(fingerprint.Fingerprint{Hash: videoHash, Method: fingerprint.MethodExtracted})
	if err != nil {
		t.Fatalf("encode video fingerprint: %v", err)
	}
	audioBlob, err := fingerprint.Encode(fingerprint.Fingerprint{Hash: audioHash, Method: fingerprint.MethodExtracted})
	if err != nil {
		t.Fatalf("encode audio fingerprint: %v", err)
	}
	if _, err := st.InsertEvidence(context.Background(), &store.Evidence{
		DetectionID:      detectionID,
		VideoFingerprint: videoBlob,
		AudioFingerprint: audioBlob,
		Source:           store.SourceExtracted,
	}); err != nil {
		t.Fatalf("InsertEvidence: %v", err)
	}
}

func TestEngineRecordsMatchAndApproves(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	detection, _, err := st.Enqueue(ctx, "youtube", "https://youtube.com/watch?v=pirate", "FREE LIVE Cricket Final HD Stream")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	seedEvidence(t, st, detection.ID, "a1b2c3d4e5f60718", "deadbeefcafebabe")

	videoBlob, _ := fingerprint.Encode(fingerprint.Fingerprint{Hash: "a1b2c3d4e5f60718"})
	audioBlob, _ := fingerprint.Encode(fingerprint.Fingerprint{Hash: "deadbeefcafebabe"})
	reference := testsupport.NewReference(t, st, "youtube", "Cricket Final", videoBlob, audioBlob)

	engine := match.NewEngine(st, cfg, nil, nil)
	outcome, err := engine.Run(ctx, detection)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcome.Compared != 1 || outcome.Stored != 1 {
		t.Fatalf("expected one stored comparison, got %#v", outcome)
	}
	if outcome.BestConfidence != 1.0 {
		t.Fatalf("expected perfect confidence, got %f", outcome.BestConfidence)
	}
	if outcome.Decision != store.DecisionApprove {
		t.Fatalf("expected approve, got %s", outcome.Decision)
	}

	matches, err := st.MatchesForDetection(ctx, detection.ID)
	if err != nil {
		t.Fatalf("MatchesForDetection: %v", err)
	}
	if len(matches) != 1 || matches[0].ReferenceID != reference.ID {
		t.Fatalf("unexpected matches: %#v", matches)
	}
	if matches[0].Category != store.CategoryMatch {
		t.Fatalf("expected match category, got %s", matches[0].Category)
	}
	if matches[0].VideoThreshold != cfg.Matching.VideoThreshold || matches[0].AudioThreshold != cfg.Matching.AudioThreshold {
		t.Fatalf("expected modality thresholds recorded, got %#v", matches[0])
	}

	stored, err := st.GetByID(ctx, detection.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Decision != store.DecisionApprove || stored.Confidence != 1.0 {
		t.Fatalf("expected decision persisted, got %#v", stored)
	}
}

func TestEngineEmptyCatalogStillDecides(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	detection, _, err := st.Enqueue(ctx, "vimeo", "https://vimeo.com/12345", "Pottery wheel basics")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	seedEvidence(t, st, detection.ID, "a1b2c3d4e5f60718", "deadbeefcafebabe")

	engine := match.NewEngine(st, cfg, nil, nil)
	outcome, err := engine.Run(ctx, detection)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcome.Compared != 0 || outcome.Stored != 0 {
		t.Fatalf("expected no comparisons, got %#v", outcome)
	}
	if outcome.Decision != store.DecisionReject {
		t.Fatalf("expected reject for benign candidate, got %s", outcome.Decision)
	}

	matches, err := st.MatchesForDetection(ctx, detection.ID)
	if err != nil {
		t.Fatalf("MatchesForDetection: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no match rows, got %d", len(matches))
	}

	stored, err := st.GetByID(ctx, detection.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Decision != store.DecisionReject {
		t.Fatalf("expected persisted decision, got %#v", stored)
	}
}

func TestEngineSkipsWeakComparisons(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	detection, _, err := st.Enqueue(ctx, "youtube", "https://youtube.com/watch?v=weak", "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	seedEvidence(t, st, detection.ID, "0000000000000000", "aaaaaaaaaaaaaaaa")

	// Maximally distant video hash and a different-length audio digest.
	videoBlob, _ := fingerprint.Encode(fingerprint.Fingerprint{Hash: "ffffffffffffffff"})
	audioBlob, _ := fingerprint.Encode(fingerprint.Fingerprint{Hash: "bbbb"})
	testsupport.NewReference(t, st, "youtube", "Unrelated Broadcast", videoBlob, audioBlob)

	engine := match.NewEngine(st, cfg, nil, nil)
	outcome, err := engine.Run(ctx, detection)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Compared != 1 {
		t.Fatalf("expected one comparison, got %d", outcome.Compared)
	}
	if outcome.Stored != 0 {
		t.Fatalf("expected nothing stored under threshold, got %d", outcome.Stored)
	}
}

type stubClassifier struct {
	classification llm.Classification
	err            error
	calls          int
}

func (s *stubClassifier) ClassifyCandidate(context.Context, string, string, string) (llm.Classification, error) {
	s.calls++
	return s.classification, s.err
}

func TestEngineBlendsClassifierForAmbiguousCandidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	detection, _, err := st.Enqueue(ctx, "youtube", "https://youtube.com/watch?v=gray", "Sunday game highlights")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	seedEvidence(t, st, detection.ID, "a1b2c3d4e5f60718", "deadbeefcafebabe")

	classifier := &stubClassifier{classification: llm.Classification{RiskScore: 0.9, Label: "piracy"}}
	engine := match.NewEngine(st, cfg, classifier, nil)
	outcome, err := engine.Run(ctx, detection)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if classifier.calls != 1 {
		t.Fatalf("expected one classifier call, got %d", classifier.calls)
	}

	heuristicOnly := match.RiskScore(0, match.AnalyzeContent(detection.URL, detection.Title, detection.Platform))
	if outcome.RiskScore <= heuristicOnly {
		t.Fatalf("expected classifier to raise risk above %f, got %f", heuristicOnly, outcome.RiskScore)
	}
}

func TestEngineRequiresEvidence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	detection, _, err := st.Enqueue(ctx, "youtube", "https://youtube.com/watch?v=bare", "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	engine := match.NewEngine(st, cfg, nil, nil)
	if _, err := engine.Run(ctx, detection); err == nil {
		t.Fatal("expected error without evidence")
	}
}
