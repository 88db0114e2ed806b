package api

import (
	"sort"
	"time"

	"streamwatch/internal/pipeline"
	"streamwatch/internal/store"
)

// FromDetection converts a detection record to its API representation.
func FromDetection(detection *store.Detection) Detection {
	if detection == nil {
		return Detection{}
	}
	dto := Detection{
		ID:           detection.ID,
		Platform:     detection.Platform,
		URL:          detection.URL,
		Title:        detection.Title,
		Status:       string(detection.Status),
		Decision:     string(detection.Decision),
		RiskScore:    detection.RiskScore,
		Confidence:   detection.Confidence,
		ErrorMessage: detection.ErrorMessage,
		CreatedAt:    formatTime(detection.CreatedAt),
		UpdatedAt:    formatTime(detection.UpdatedAt),
	}
	if detection.LastGoodStatus != detection.Status {
		dto.LastGoodStatus = string(detection.LastGoodStatus)
	}
	return dto
}

// FromDetections converts a slice of detection records.
func FromDetections(detections []*store.Detection) []Detection {
	if len(detections) == 0 {
		return nil
	}
	out := make([]Detection, 0, len(detections))
	for _, detection := range detections {
		out = append(out, FromDetection(detection))
	}
	return out
}

// FromEvidence converts an evidence record to its API representation.
func FromEvidence(evidence *store.Evidence) *Evidence {
	if evidence == nil {
		return nil
	}
	return &Evidence{
		ID:               evidence.ID,
		DetectionID:      evidence.DetectionID,
		StorageKey:       evidence.StorageKey,
		VideoFingerprint: evidence.VideoFingerprint,
		AudioFingerprint: evidence.AudioFingerprint,
		VideoNote:        evidence.VideoNote,
		AudioNote:        evidence.AudioNote,
		Source:           evidence.Source,
		DurationSeconds:  evidence.DurationSeconds,
		CreatedAt:        formatTime(evidence.CreatedAt),
	}
}

// FromMatches converts stored match rows.
func FromMatches(matches []*store.Match) []Match {
	if len(matches) == 0 {
		return nil
	}
	out := make([]Match, 0, len(matches))
	for _, match := range matches {
		if match == nil {
			continue
		}
		out = append(out, Match{
			ID:             match.ID,
			DetectionID:    match.DetectionID,
			ReferenceID:    match.ReferenceID,
			VideoScore:     match.VideoScore,
			AudioScore:     match.AudioScore,
			Confidence:     match.Confidence,
			Category:       string(match.Category),
			VideoThreshold: match.VideoThreshold,
			AudioThreshold: match.AudioThreshold,
			CreatedAt:      formatTime(match.CreatedAt),
		})
	}
	return out
}

// FromEnforcements converts enforcement records. The notice body is
// deliberately omitted from list payloads.
func FromEnforcements(enforcements []*store.Enforcement) []Enforcement {
	if len(enforcements) == 0 {
		return nil
	}
	out := make([]Enforcement, 0, len(enforcements))
	for _, enforcement := range enforcements {
		if enforcement == nil {
			continue
		}
		out = append(out, Enforcement{
			ID:          enforcement.ID,
			DetectionID: enforcement.DetectionID,
			Action:      enforcement.Action,
			Recipients:  enforcement.Recipients,
			Sent:        enforcement.Sent,
			DryRun:      enforcement.DryRun,
			MessageID:   enforcement.MessageID,
			CreatedAt:   formatTime(enforcement.CreatedAt),
		})
	}
	return out
}

// FromReference converts a catalog entry to its API representation.
func FromReference(reference *store.Reference) Reference {
	if reference == nil {
		return Reference{}
	}
	return Reference{
		ID:               reference.ID,
		Title:            reference.Title,
		Platform:         reference.Platform,
		ContentType:      reference.ContentType,
		VideoFingerprint: reference.VideoFingerprint,
		AudioFingerprint: reference.AudioFingerprint,
		CreatedAt:        formatTime(reference.CreatedAt),
		UpdatedAt:        formatTime(reference.UpdatedAt),
	}
}

// FromReferences converts a slice of catalog entries.
func FromReferences(references []*store.Reference) []Reference {
	if len(references) == 0 {
		return nil
	}
	out := make([]Reference, 0, len(references))
	for _, reference := range references {
		out = append(out, FromReference(reference))
	}
	return out
}

// FromSummary converts a pipeline summary to its API representation.
func FromSummary(summary pipeline.Summary) PipelineStatus {
	status := PipelineStatus{
		Running:     summary.Running,
		Stats:       MergeStats(summary.Stats),
		LastError:   summary.LastError,
		StageHealth: make([]StageHealth, 0, len(summary.StageHealth)),
	}
	if summary.LastDetection != nil {
		dto := FromDetection(summary.LastDetection)
		status.LastDetection = &dto
	}
	for name, health := range summary.StageHealth {
		status.StageHealth = append(status.StageHealth, StageHealth{
			Name:   name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	sort.Slice(status.StageHealth, func(i, j int) bool {
		return status.StageHealth[i].Name < status.StageHealth[j].Name
	})
	return status
}

// MergeStats normalizes detection stats into a string-keyed map with every
// known status present.
func MergeStats(stats map[store.Status]int) map[string]int {
	merged := make(map[string]int, len(store.AllStatuses()))
	for _, status := range store.AllStatuses() {
		merged[string(status)] = 0
	}
	for status, count := range stats {
		merged[string(status)] = count
	}
	return merged
}

// FromHealthSummary converts aggregate detection counts.
func FromHealthSummary(summary store.HealthSummary) HealthSummary {
	return HealthSummary{
		Total:      summary.Total,
		Found:      summary.Found,
		Processing: summary.Processing,
		Review:     summary.Review,
		Errored:    summary.Errored,
		Enforced:   summary.Enforced,
	}
}

// FromDatabaseHealth converts database diagnostics.
func FromDatabaseHealth(health store.DatabaseHealth) DatabaseHealth {
	return DatabaseHealth{
		DBPath:           health.DBPath,
		DatabaseExists:   health.DatabaseExists,
		DatabaseReadable: health.DatabaseReadable,
		SchemaVersion:    health.SchemaVersion,
		TableExists:      health.TableExists,
		MissingColumns:   health.MissingColumns,
		IntegrityCheck:   health.IntegrityCheck,
		TotalDetections:  health.TotalDetections,
		Error:            health.Error,
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(dateTimeFormat)
}
