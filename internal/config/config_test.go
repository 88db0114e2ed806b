package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"streamwatch/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "streamwatch")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7519" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if !cfg.Enforcement.DryRun {
		t.Fatal("expected enforcement dry-run enabled by default")
	}
	if cfg.Enforcement.AutoEnforce {
		t.Fatal("expected auto-enforce disabled by default")
	}
	if cfg.Matching.MatchThreshold != 0.8 || cfg.Matching.LikelyThreshold != 0.6 {
		t.Fatalf("unexpected category thresholds: %+v", cfg.Matching)
	}
	if cfg.Matching.StoreThreshold != 0.3 {
		t.Fatalf("unexpected store threshold: %v", cfg.Matching.StoreThreshold)
	}
	if cfg.Risk.ApproveThreshold != 0.8 || cfg.Risk.ReviewThreshold != 0.4 {
		t.Fatalf("unexpected decision thresholds: %+v", cfg.Risk)
	}
	if cfg.Capture.MaxAttempts != 3 {
		t.Fatalf("unexpected capture attempts: %d", cfg.Capture.MaxAttempts)
	}
	if cfg.LLM.APIKey != "" {
		t.Fatalf("expected LLM assistant disabled by default, got key %q", cfg.LLM.APIKey)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[matching]
match_threshold = 0.9
store_threshold = 0.5

[enforcement]
dry_run = false
sender_email = "legal@example.com"

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config to exist at %q", path)
	}
	if cfg.Matching.MatchThreshold != 0.9 {
		t.Fatalf("unexpected match threshold: %v", cfg.Matching.MatchThreshold)
	}
	if cfg.Matching.StoreThreshold != 0.5 {
		t.Fatalf("unexpected store threshold: %v", cfg.Matching.StoreThreshold)
	}
	if cfg.Enforcement.DryRun {
		t.Fatal("expected dry-run disabled")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}
	// Defaults survive partial files.
	if cfg.Matching.LikelyThreshold != 0.6 {
		t.Fatalf("unexpected likely threshold: %v", cfg.Matching.LikelyThreshold)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.Matching.MatchThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}

	cfg = config.Default()
	cfg.Matching.LikelyThreshold = 0.95
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when likely exceeds match threshold")
	}

	cfg = config.Default()
	cfg.Capture.MaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero capture attempts")
	}

	cfg = config.Default()
	cfg.Enforcement.DryRun = false
	cfg.Enforcement.SenderEmail = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for live enforcement without sender email")
	}
}
