package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"streamwatch/internal/fingerprint"
)

// Sample is the result of one successful stream acquisition.
type Sample struct {
	Video           fingerprint.Fingerprint `json:"video"`
	Audio           fingerprint.Fingerprint `json:"audio"`
	StorageKey      string                  `json:"storage_key"`
	DurationSeconds float64                 `json:"duration_seconds"`
}

// HasFingerprints reports whether the sample carries at least one modality.
func (s Sample) HasFingerprints() bool {
	return !s.Video.IsZero() || !s.Audio.IsZero()
}

// Fetcher acquires a fingerprint sample from a live stream URL.
type Fetcher interface {
	Fetch(ctx context.Context, streamURL string) (Sample, error)
	Available() error
}

// ErrNoFetcher indicates no sampling tool is configured.
var ErrNoFetcher = errors.New("no extractor command configured")

// CommandFetcher shells out to an external sampling tool. The tool receives
// the stream URL as its final argument and must print a Sample JSON document
// on stdout.
type CommandFetcher struct {
	command []string
}

// NewCommandFetcher splits the configured command line into executable and
// arguments. An empty command yields a fetcher whose Available reports
// ErrNoFetcher.
func NewCommandFetcher(command string) *CommandFetcher {
	return &CommandFetcher{command: strings.Fields(command)}
}

func (f *CommandFetcher) Available() error {
	if f == nil || len(f.command) == 0 {
		return ErrNoFetcher
	}
	if _, err := exec.LookPath(f.command[0]); err != nil {
		return fmt.Errorf("extractor command unavailable: %w", err)
	}
	return nil
}

func (f *CommandFetcher) Fetch(ctx context.Context, streamURL string) (Sample, error) {
	if err := f.Available(); err != nil {
		return Sample{}, err
	}

	args := append(append([]string(nil), f.command[1:]...), streamURL)
	cmd := exec.CommandContext(ctx, f.command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return Sample{}, fmt.Errorf("extractor failed: %w: %s", err, detail)
		}
		return Sample{}, fmt.Errorf("extractor failed: %w", err)
	}

	var sample Sample
	if err := json.Unmarshal(stdout.Bytes(), &sample); err != nil {
		return Sample{}, fmt.Errorf("parse extractor output: %w", err)
	}
	if !sample.HasFingerprints() {
		return Sample{}, errors.New("extractor produced no fingerprints")
	}
	if sample.Video.Method == "" && !sample.Video.IsZero() {
		sample.Video.Method = fingerprint.MethodExtracted
	}
	if sample.Audio.Method == "" && !sample.Audio.IsZero() {
		sample.Audio.Method = fingerprint.MethodExtracted
	}
	return sample, nil
}
