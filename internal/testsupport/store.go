package testsupport

import (
	"context"
	"testing"

	"streamwatch/internal/config"
	"streamwatch/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewDetection enqueues a candidate for tests using the provided store.
func NewDetection(t testing.TB, st *store.Store, platform, url string) *store.Detection {
	t.Helper()

	detection, _, err := st.Enqueue(context.Background(), platform, url, "")
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return detection
}

// NewReference adds a catalog entry for tests using the provided store.
func NewReference(t testing.TB, st *store.Store, platform, title, videoFP, audioFP string) *store.Reference {
	t.Helper()

	reference, err := st.UpsertReference(context.Background(), &store.Reference{
		Title:            title,
		Platform:         platform,
		ContentType:      "sports",
		VideoFingerprint: videoFP,
		AudioFingerprint: audioFP,
	})
	if err != nil {
		t.Fatalf("store.UpsertReference: %v", err)
	}
	return reference
}
