package enforce_test

import (
	"strings"
	"testing"
	"time"

	"streamwatch/internal/config"
	"streamwatch/internal/enforce"
	"streamwatch/internal/store"
)

func TestRenderNoticeIncludesAllSections(t *testing.T) {
	cfg := config.Default().Enforcement
	cfg.SenderName = "Rights Desk"
	cfg.SenderEmail = "rights@example.com"
	cfg.Organization = "Example Media"

	body := enforce.RenderNotice(cfg, enforce.NoticeInput{
		Detection: &store.Detection{
			ID:       12,
			Platform: "youtube",
			URL:      "https://youtube.com/watch?v=pirate",
			Title:    "Cup Final Live",
		},
		Evidence: &store.Evidence{
			VideoFingerprint: `{"hash":"a1b2c3d4e5f60718aabbccdd"}`,
			AudioFingerprint: `{"hash":"deadbeefcafebabe"}`,
			DurationSeconds:  30,
		},
		BestMatch: &store.Match{
			ReferenceID: 7,
			VideoScore:  0.95,
			AudioScore:  0.88,
			Confidence:  0.915,
		},
		Now: time.Date(2026, time.March, 7, 15, 30, 0, 0, time.UTC),
	})

	for _, want := range []string{
		"Dear Youtube Copyright Team,",
		"copyrighted material owned by Example Media",
		"- URL: https://youtube.com/watch?v=pirate",
		"- Title: Cup Final Live",
		"- Reported: 2026-03-07 15:30:00 UTC",
		"- Reference ID: 7",
		"- Video Similarity: 0.950",
		"- Audio Similarity: 0.880",
		"- Overall Confidence: 0.915",
		"- Duration: 30.0 seconds",
		"- Video Fingerprint: a1b2c3d4e5f60718...",
		"- Audio Fingerprint: deadbeefcafebabe",
		"- Name: Rights Desk",
		"- Email: rights@example.com",
		"Sincerely,\nRights Desk",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("notice missing %q\n%s", want, body)
		}
	}
}

func TestRenderNoticeOmitsMissingSections(t *testing.T) {
	cfg := config.Default().Enforcement
	body := enforce.RenderNotice(cfg, enforce.NoticeInput{
		Detection: &store.Detection{
			ID:       3,
			Platform: "vimeo",
			URL:      "https://vimeo.com/3",
		},
		Now: time.Now(),
	})

	if strings.Contains(body, "MATCHING EVIDENCE") {
		t.Fatal("expected no match section without a best match")
	}
	if strings.Contains(body, "EVIDENCE DETAILS") {
		t.Fatal("expected no evidence section without evidence")
	}
	if !strings.Contains(body, "- Title: Unknown Title") {
		t.Fatal("expected placeholder title")
	}
}

func TestRecipientsFor(t *testing.T) {
	if got := enforce.RecipientsFor("YouTube"); len(got) != 2 || got[0] != "copyright@youtube.com" {
		t.Fatalf("unexpected youtube recipients: %v", got)
	}
	if got := enforce.RecipientsFor("telegram"); got[0] != "dmca@telegram.org" {
		t.Fatalf("unexpected telegram recipients: %v", got)
	}
	if got := enforce.RecipientsFor("dailymotion"); len(got) != 1 || got[0] != "abuse@example.com" {
		t.Fatalf("expected generic fallback, got %v", got)
	}
}
