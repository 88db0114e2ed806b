// Package pipeline advances detections through the capture, match, and
// enforcement stages.
//
// The Manager polls the store, claims work with compare-and-set status
// transitions so concurrent workers never double-process a detection, keeps
// heartbeats fresh while a stage runs, and reclaims work whose heartbeats
// have gone stale. Stage failures are classified into review or error
// states with the in-flight status rolled back for retries.
//
// Enforcement is only polled automatically when auto_enforce is set;
// otherwise approved detections wait for an explicit trigger through the
// Run* methods, which the API and CLI call synchronously.
package pipeline
