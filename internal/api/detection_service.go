package api

import (
	"context"

	"streamwatch/internal/store"
)

// DetectionReader abstracts the store interactions the API queries need.
type DetectionReader interface {
	List(ctx context.Context, statuses ...store.Status) ([]*store.Detection, error)
	Stats(ctx context.Context) (map[store.Status]int, error)
	GetByID(ctx context.Context, id int64) (*store.Detection, error)
	EvidenceForDetection(ctx context.Context, detectionID int64) (*store.Evidence, error)
	MatchesForDetection(ctx context.Context, detectionID int64) ([]*store.Match, error)
	EnforcementsForDetection(ctx context.Context, detectionID int64) ([]*store.Enforcement, error)
}

// DetectionService exposes read-only detection operations returning API DTOs.
type DetectionService struct {
	store DetectionReader
}

// NewDetectionService constructs a DetectionService around the provided
// reader.
func NewDetectionService(store DetectionReader) *DetectionService {
	if store == nil {
		return nil
	}
	return &DetectionService{store: store}
}

// List returns detections filtered by status.
func (s *DetectionService) List(ctx context.Context, statuses ...store.Status) ([]Detection, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	detections, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromDetections(detections), nil
}

// Stats returns detection counts keyed by status string.
func (s *DetectionService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeStats(stats), nil
}

// Describe fetches a detection with its evidence, matches, and enforcement
// history. Returns nil when the detection does not exist.
func (s *DetectionService) Describe(ctx context.Context, id int64) (*DetectionDetail, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	detection, err := s.store.GetByID(ctx, id)
	if err != nil || detection == nil {
		return nil, err
	}

	detail := DetectionDetail{Detection: FromDetection(detection)}

	evidence, err := s.store.EvidenceForDetection(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Evidence = FromEvidence(evidence)

	matches, err := s.store.MatchesForDetection(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Matches = FromMatches(matches)

	enforcements, err := s.store.EnforcementsForDetection(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Enforcements = FromEnforcements(enforcements)

	return &detail, nil
}
