package match_test

import (
	"math"
	"testing"

	"streamwatch/internal/match"
	"streamwatch/internal/store"
)

var testThresholds = match.Thresholds{
	Match:   0.8,
	Likely:  0.6,
	Store:   0.3,
	Approve: 0.8,
	Review:  0.4,
}

func TestCategorizeTiers(t *testing.T) {
	cases := []struct {
		confidence float64
		expected   store.MatchCategory
	}{
		{0.9, store.CategoryMatch},
		{0.8, store.CategoryMatch},
		{0.65, store.CategoryLikely},
		{0.6, store.CategoryLikely},
		{0.55, store.CategoryNone},
		{0.1, store.CategoryNone},
	}
	for _, tc := range cases {
		if got := testThresholds.Categorize(tc.confidence); got != tc.expected {
			t.Errorf("Categorize(%f) = %s, want %s", tc.confidence, got, tc.expected)
		}
	}
}

func TestDecideTiers(t *testing.T) {
	cases := []struct {
		risk     float64
		expected store.Decision
	}{
		{0.85, store.DecisionApprove},
		{0.8, store.DecisionApprove},
		{0.5, store.DecisionReview},
		{0.4, store.DecisionReview},
		{0.2, store.DecisionReject},
	}
	for _, tc := range cases {
		if got := testThresholds.Decide(tc.risk); got != tc.expected {
			t.Errorf("Decide(%f) = %s, want %s", tc.risk, got, tc.expected)
		}
	}
}

func TestCombineModalities(t *testing.T) {
	if got := match.CombineModalities(0.9, 0.7); math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("expected mean of both modalities, got %f", got)
	}
	if got := match.CombineModalities(0.9, 0); got != 0.9 {
		t.Fatalf("single modality should stand alone, got %f", got)
	}
	if got := match.CombineModalities(0, 0.6); got != 0.6 {
		t.Fatalf("single modality should stand alone, got %f", got)
	}
	if got := match.CombineModalities(0, 0); got != 0 {
		t.Fatalf("no modality should score 0, got %f", got)
	}
}

func TestAnalyzeContentFlagsPiracyMarkers(t *testing.T) {
	analysis := match.AnalyzeContent(
		"https://youtube.com/watch?v=abc",
		"FREE LIVE Cricket Final HD Stream",
		"youtube",
	)

	for _, expected := range []string{"free", "live", "cricket", "hd", "stream"} {
		found := false
		for _, pattern := range analysis.SuspiciousPatterns {
			if pattern == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected suspicious pattern %q in %v", expected, analysis.SuspiciousPatterns)
		}
	}

	if analysis.ContentType != match.ContentLiveStreaming {
		t.Fatalf("expected live_streaming content type, got %q", analysis.ContentType)
	}
	if analysis.Language != "english" {
		t.Fatalf("expected english language, got %q", analysis.Language)
	}

	wantIndicators := map[string]bool{"free_content": false, "streaming": false, "popular_platform": false}
	for _, indicator := range analysis.RiskIndicators {
		if _, ok := wantIndicators[indicator]; ok {
			wantIndicators[indicator] = true
		}
	}
	for indicator, seen := range wantIndicators {
		if !seen {
			t.Errorf("expected risk indicator %q in %v", indicator, analysis.RiskIndicators)
		}
	}
}

func TestAnalyzeContentBenignTitle(t *testing.T) {
	analysis := match.AnalyzeContent("https://vimeo.com/12345", "Pottery wheel basics", "vimeo")
	if len(analysis.SuspiciousPatterns) != 0 {
		t.Fatalf("expected no suspicious patterns, got %v", analysis.SuspiciousPatterns)
	}
	if len(analysis.RiskIndicators) != 0 {
		t.Fatalf("expected no risk indicators, got %v", analysis.RiskIndicators)
	}
	if analysis.ContentType != match.ContentUnknown {
		t.Fatalf("expected unknown content type, got %q", analysis.ContentType)
	}
}

func TestRiskScoreComposition(t *testing.T) {
	// Strong match with no lexical signal.
	empty := match.ContentAnalysis{}
	if got := match.RiskScore(0.9, empty); math.Abs(got-0.54) > 1e-9 {
		t.Fatalf("expected 0.54 from match weight alone, got %f", got)
	}

	// Keyword stuffing alone is capped well below approval.
	stuffed := match.ContentAnalysis{
		SuspiciousPatterns: []string{"free", "live", "stream", "watch", "hd", "full"},
		RiskIndicators:     []string{"free_content", "streaming", "downloadable", "popular_platform", "extra"},
		ContentType:        match.ContentLiveStreaming,
	}
	if got := match.RiskScore(0, stuffed); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("expected capped lexical score 0.6, got %f", got)
	}

	// Full signal clips at 1.0.
	if got := match.RiskScore(1.0, stuffed); got != 1.0 {
		t.Fatalf("expected clipped score 1.0, got %f", got)
	}
}

func TestBlendClassifierScoreNeverLowers(t *testing.T) {
	if got := match.BlendClassifierScore(0.9, 0.1); got != 0.9 {
		t.Fatalf("blend must not lower a high heuristic score, got %f", got)
	}
	if got := match.BlendClassifierScore(0.4, 0.8); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("expected 0.6 blend, got %f", got)
	}
}
