package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const referenceColumns = "id, title, platform, content_type, video_fingerprint, audio_fingerprint, created_at, updated_at"

func scanReference(scanner interface{ Scan(dest ...any) error }) (*Reference, error) {
	var (
		id          int64
		title       string
		platform    string
		contentType sql.NullString
		videoFP     sql.NullString
		audioFP     sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&platform,
		&contentType,
		&videoFP,
		&audioFP,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	reference := &Reference{
		ID:               id,
		Title:            title,
		Platform:         platform,
		ContentType:      contentType.String,
		VideoFingerprint: videoFP.String,
		AudioFingerprint: audioFP.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		reference.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		reference.UpdatedAt = updated
	}
	return reference, nil
}

// UpsertReference adds or refreshes a protected broadcast in the catalog,
// keyed on (platform, title).
func (s *Store) UpsertReference(ctx context.Context, reference *Reference) (*Reference, error) {
	if reference == nil {
		return nil, errors.New("reference is nil")
	}
	title := strings.TrimSpace(reference.Title)
	platform := strings.ToLower(strings.TrimSpace(reference.Platform))
	if title == "" || platform == "" {
		return nil, errors.New("reference title and platform are required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO refs (
            title, platform, content_type, video_fingerprint, audio_fingerprint, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(platform, title) DO UPDATE SET
            content_type = excluded.content_type,
            video_fingerprint = excluded.video_fingerprint,
            audio_fingerprint = excluded.audio_fingerprint,
            updated_at = excluded.updated_at`,
		title,
		platform,
		nullableString(reference.ContentType),
		nullableString(reference.VideoFingerprint),
		nullableString(reference.AudioFingerprint),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert reference: %w", err)
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+referenceColumns+` FROM refs WHERE platform = ? AND title = ?`,
		platform,
		title,
	)
	stored, err := scanReference(row)
	if err != nil {
		return nil, fmt.Errorf("get reference: %w", err)
	}
	return stored, nil
}

// GetReference fetches a catalog entry by identifier.
func (s *Store) GetReference(ctx context.Context, id int64) (*Reference, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+referenceColumns+` FROM refs WHERE id = ?`, id)
	reference, err := scanReference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reference: %w", err)
	}
	return reference, nil
}

// ListReferences returns catalog entries, optionally filtered by platform.
// The result is the catalog snapshot the match stage iterates over.
func (s *Store) ListReferences(ctx context.Context, platform string) ([]*Reference, error) {
	var (
		rows *sql.Rows
		err  error
	)
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+referenceColumns+` FROM refs ORDER BY id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+referenceColumns+` FROM refs WHERE platform = ? ORDER BY id`, platform)
	}
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer rows.Close()

	var references []*Reference
	for rows.Next() {
		reference, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		references = append(references, reference)
	}
	return references, rows.Err()
}

// RemoveReference deletes a catalog entry and its match rows.
func (s *Store) RemoveReference(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM refs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete reference: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
