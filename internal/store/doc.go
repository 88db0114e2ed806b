// Package store persists detections and their evidence, matches, and
// enforcement records in SQLite. It owns the detection lifecycle state
// machine: all status changes go through compare-and-set transitions so
// that concurrent workers cannot double-advance a detection.
package store
