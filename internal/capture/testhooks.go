package capture

import (
	"context"
	"time"
)

// SetSleepForTests overrides the retry backoff sleeper during tests.
func (o *Orchestrator) SetSleepForTests(fn func(context.Context, time.Duration) error) {
	o.sleep = fn
}

// SetNowForTests overrides the clock used for fallback fingerprints during tests.
func (o *Orchestrator) SetNowForTests(fn func() time.Time) {
	o.now = fn
}
