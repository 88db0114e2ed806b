package capture_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"streamwatch/internal/capture"
	"streamwatch/internal/fingerprint"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "extractor.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCommandFetcherParsesOutput(t *testing.T) {
	script := writeScript(t, `echo '{"video":{"hash":"a1b2c3d4e5f60718"},"audio":{"hash":"deadbeefcafebabe"},"storage_key":"samples/x.ts","duration_seconds":12}'`)
	fetcher := capture.NewCommandFetcher(script)

	sample, err := fetcher.Fetch(context.Background(), "https://example.com/stream")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if sample.Video.Hash != "a1b2c3d4e5f60718" {
		t.Fatalf("unexpected video hash: %q", sample.Video.Hash)
	}
	if sample.Video.Method != fingerprint.MethodExtracted {
		t.Fatalf("expected extracted method default, got %q", sample.Video.Method)
	}
	if sample.StorageKey != "samples/x.ts" || sample.DurationSeconds != 12 {
		t.Fatalf("unexpected sample: %#v", sample)
	}
}

func TestCommandFetcherReportsStderr(t *testing.T) {
	script := writeScript(t, `echo "stream is geo-blocked" >&2; exit 3`)
	fetcher := capture.NewCommandFetcher(script)

	_, err := fetcher.Fetch(context.Background(), "https://example.com/stream")
	if err == nil {
		t.Fatal("expected error from failing extractor")
	}
	if !strings.Contains(err.Error(), "geo-blocked") {
		t.Fatalf("expected stderr detail, got %v", err)
	}
}

func TestCommandFetcherRejectsEmptyOutput(t *testing.T) {
	script := writeScript(t, `echo '{}'`)
	fetcher := capture.NewCommandFetcher(script)

	_, err := fetcher.Fetch(context.Background(), "https://example.com/stream")
	if err == nil {
		t.Fatal("expected error for fingerprint-free output")
	}
}

func TestCommandFetcherUnconfigured(t *testing.T) {
	fetcher := capture.NewCommandFetcher("")
	if err := fetcher.Available(); !errors.Is(err, capture.ErrNoFetcher) {
		t.Fatalf("expected ErrNoFetcher, got %v", err)
	}
}
