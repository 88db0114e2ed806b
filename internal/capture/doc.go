// Package capture acquires evidence for newly found detections.
//
// The orchestrator samples the live stream through a Fetcher, retrying with
// exponential backoff, and persists the resulting video and audio
// fingerprints as the detection's evidence record. When every attempt fails
// it degrades to deterministic URL-derived fingerprints so the detection can
// still move through matching instead of stalling the pipeline.
package capture
