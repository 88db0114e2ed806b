package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const evidenceColumns = "id, detection_id, storage_key, video_fingerprint, audio_fingerprint, video_note, audio_note, source, duration_seconds, created_at"

func scanEvidence(scanner interface{ Scan(dest ...any) error }) (*Evidence, error) {
	var (
		id          int64
		detectionID int64
		storageKey  sql.NullString
		videoFP     sql.NullString
		audioFP     sql.NullString
		videoNote   sql.NullString
		audioNote   sql.NullString
		source      string
		duration    sql.NullFloat64
		createdRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&detectionID,
		&storageKey,
		&videoFP,
		&audioFP,
		&videoNote,
		&audioNote,
		&source,
		&duration,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	evidence := &Evidence{
		ID:               id,
		DetectionID:      detectionID,
		StorageKey:       storageKey.String,
		VideoFingerprint: videoFP.String,
		AudioFingerprint: audioFP.String,
		VideoNote:        videoNote.String,
		AudioNote:        audioNote.String,
		Source:           source,
		DurationSeconds:  duration.Float64,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		evidence.CreatedAt = created
	}
	return evidence, nil
}

// InsertEvidence persists the capture artifact for a detection. The table
// holds at most one row per detection; a second insert is a no-op and the
// original row is returned, which keeps capture retries idempotent.
func (s *Store) InsertEvidence(ctx context.Context, evidence *Evidence) (*Evidence, error) {
	if evidence == nil {
		return nil, errors.New("evidence is nil")
	}
	if evidence.DetectionID == 0 {
		return nil, errors.New("evidence detection id is required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO evidence (
            detection_id, storage_key, video_fingerprint, audio_fingerprint,
            video_note, audio_note, source, duration_seconds, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(detection_id) DO NOTHING`,
		evidence.DetectionID,
		nullableString(evidence.StorageKey),
		nullableString(evidence.VideoFingerprint),
		nullableString(evidence.AudioFingerprint),
		nullableString(evidence.VideoNote),
		nullableString(evidence.AudioNote),
		evidence.Source,
		evidence.DurationSeconds,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert evidence: %w", err)
	}

	stored, err := s.EvidenceForDetection(ctx, evidence.DetectionID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("evidence for detection %d missing after insert", evidence.DetectionID)
	}
	return stored, nil
}

// EvidenceForDetection returns the evidence row for a detection, if any.
func (s *Store) EvidenceForDetection(ctx context.Context, detectionID int64) (*Evidence, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+evidenceColumns+` FROM evidence WHERE detection_id = ?`,
		detectionID,
	)
	evidence, err := scanEvidence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	return evidence, nil
}
