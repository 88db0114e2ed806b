package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const enforcementColumns = "id, detection_id, action, recipients, notice_body, sent, dry_run, message_id, created_at"

func scanEnforcement(scanner interface{ Scan(dest ...any) error }) (*Enforcement, error) {
	var (
		id          int64
		detectionID int64
		action      string
		recipients  sql.NullString
		noticeBody  sql.NullString
		sent        sql.NullInt64
		dryRun      sql.NullInt64
		messageID   sql.NullString
		createdRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&detectionID,
		&action,
		&recipients,
		&noticeBody,
		&sent,
		&dryRun,
		&messageID,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	enforcement := &Enforcement{
		ID:          id,
		DetectionID: detectionID,
		Action:      action,
		Recipients:  recipients.String,
		NoticeBody:  noticeBody.String,
		Sent:        sent.Int64 != 0,
		DryRun:      dryRun.Int64 != 0,
		MessageID:   messageID.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		enforcement.CreatedAt = created
	}
	return enforcement, nil
}

// InsertEnforcement appends a takedown attempt record. Enforcement history
// is append-only; repeat attempts add rows rather than overwrite.
func (s *Store) InsertEnforcement(ctx context.Context, enforcement *Enforcement) (*Enforcement, error) {
	if enforcement == nil {
		return nil, errors.New("enforcement is nil")
	}
	if enforcement.DetectionID == 0 {
		return nil, errors.New("enforcement detection id is required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO enforcements (
            detection_id, action, recipients, notice_body, sent, dry_run, message_id, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		enforcement.DetectionID,
		enforcement.Action,
		nullableString(enforcement.Recipients),
		nullableString(enforcement.NoticeBody),
		boolToInt(enforcement.Sent),
		boolToInt(enforcement.DryRun),
		nullableString(enforcement.MessageID),
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert enforcement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+enforcementColumns+` FROM enforcements WHERE id = ?`, id)
	stored, err := scanEnforcement(row)
	if err != nil {
		return nil, fmt.Errorf("get enforcement: %w", err)
	}
	return stored, nil
}

// EnforcementsForDetection returns the enforcement history for a detection.
func (s *Store) EnforcementsForDetection(ctx context.Context, detectionID int64) ([]*Enforcement, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+enforcementColumns+` FROM enforcements WHERE detection_id = ? ORDER BY created_at`,
		detectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list enforcements: %w", err)
	}
	defer rows.Close()

	var enforcements []*Enforcement
	for rows.Next() {
		enforcement, err := scanEnforcement(rows)
		if err != nil {
			return nil, err
		}
		enforcements = append(enforcements, enforcement)
	}
	return enforcements, rows.Err()
}
