// Package enforce issues takedown notices for approved detections.
//
// The gate renders a DMCA notice from the detection's evidence and best
// match, resolves platform-specific abuse contacts, and delivers the notice
// through a pluggable transport. Every attempt is appended to the
// enforcement history; dry-run mode records the rendered notice without
// transmitting anything.
package enforce
