// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal detection models into transport-friendly
// DTOs so consumers never couple to internal types.
//
// # Key Types
//
// Detection: transport representation of a detection with lifecycle status,
// decision, and risk scores.
//
// DetectionDetail: a detection plus its captured evidence, stored matches,
// and enforcement records.
//
// PipelineStatus: pipeline running state, detection stats, stage health,
// and the last processed detection.
//
// DaemonStatus: aggregated runtime information including the lock file and
// database paths.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (store.Status,
// store.Decision, store.MatchCategory) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds. Fingerprints travel as hex
// strings exactly as persisted.
package api
