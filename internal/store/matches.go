package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const matchColumns = "id, detection_id, reference_id, video_score, audio_score, confidence, category, video_threshold, audio_threshold, created_at"

func scanMatch(scanner interface{ Scan(dest ...any) error }) (*Match, error) {
	var (
		id             int64
		detectionID    int64
		referenceID    int64
		videoScore     float64
		audioScore     float64
		confidence     float64
		category       string
		videoThreshold float64
		audioThreshold float64
		createdRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&detectionID,
		&referenceID,
		&videoScore,
		&audioScore,
		&confidence,
		&category,
		&videoThreshold,
		&audioThreshold,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	match := &Match{
		ID:             id,
		DetectionID:    detectionID,
		ReferenceID:    referenceID,
		VideoScore:     videoScore,
		AudioScore:     audioScore,
		Confidence:     confidence,
		Category:       MatchCategory(category),
		VideoThreshold: videoThreshold,
		AudioThreshold: audioThreshold,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		match.CreatedAt = created
	}
	return match, nil
}

// UpsertMatch records a detection/reference comparison. Re-running the
// match stage updates scores in place instead of duplicating rows.
func (s *Store) UpsertMatch(ctx context.Context, match *Match) error {
	if match == nil {
		return errors.New("match is nil")
	}
	if match.DetectionID == 0 || match.ReferenceID == 0 {
		return errors.New("match detection and reference ids are required")
	}

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO matches (
            detection_id, reference_id, video_score, audio_score, confidence,
            category, video_threshold, audio_threshold, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(detection_id, reference_id) DO UPDATE SET
            video_score = excluded.video_score,
            audio_score = excluded.audio_score,
            confidence = excluded.confidence,
            category = excluded.category,
            video_threshold = excluded.video_threshold,
            audio_threshold = excluded.audio_threshold`,
		match.DetectionID,
		match.ReferenceID,
		match.VideoScore,
		match.AudioScore,
		match.Confidence,
		string(match.Category),
		match.VideoThreshold,
		match.AudioThreshold,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

// MatchesForDetection returns matches for a detection ordered by confidence.
func (s *Store) MatchesForDetection(ctx context.Context, detectionID int64) ([]*Match, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+matchColumns+` FROM matches WHERE detection_id = ? ORDER BY confidence DESC, reference_id`,
		detectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// BestMatch returns the highest-confidence match for a detection, if any.
func (s *Store) BestMatch(ctx context.Context, detectionID int64) (*Match, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+matchColumns+` FROM matches WHERE detection_id = ? ORDER BY confidence DESC, reference_id LIMIT 1`,
		detectionID,
	)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("best match: %w", err)
	}
	return match, nil
}
