package enforce

import "time"

// SetNowForTests overrides the clock used for notice timestamps during tests.
func (g *Gate) SetNowForTests(fn func() time.Time) {
	g.now = fn
}
