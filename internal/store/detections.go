package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Enqueue records a reported candidate stream. Candidates are deduplicated
// on (platform, url): re-reporting an existing candidate returns the
// existing detection with created=false and never disturbs its status.
func (s *Store) Enqueue(ctx context.Context, platform, url, title string) (*Detection, bool, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	url = strings.TrimSpace(url)
	if platform == "" || url == "" {
		return nil, false, errors.New("platform and url are required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO detections (platform, url, title, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(platform, url) DO NOTHING`,
		platform,
		url,
		nullableString(strings.TrimSpace(title)),
		StatusFound,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert detection: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	detection, err := s.FindByPlatformURL(ctx, platform, url)
	if err != nil {
		return nil, false, err
	}
	if detection == nil {
		return nil, false, fmt.Errorf("detection %s/%s missing after insert", platform, url)
	}
	return detection, affected > 0, nil
}

// GetByID fetches a detection by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Detection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+detectionColumns+` FROM detections WHERE id = ?`, id)
	detection, err := scanDetection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get detection: %w", err)
	}
	return detection, nil
}

// FindByPlatformURL returns the detection for a candidate key, if any.
func (s *Store) FindByPlatformURL(ctx context.Context, platform, url string) (*Detection, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+detectionColumns+` FROM detections WHERE platform = ? AND url = ? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(platform)),
		strings.TrimSpace(url),
	)
	detection, err := scanDetection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find detection: %w", err)
	}
	return detection, nil
}

// Update persists mutable fields of an existing detection. Status is
// deliberately excluded; use TransitionStatus or MarkFailure instead.
func (s *Store) Update(ctx context.Context, detection *Detection) error {
	if detection == nil {
		return errors.New("detection is nil")
	}
	detection.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE detections
         SET title = ?, decision = ?, risk_score = ?, confidence = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(detection.Title),
		nullableString(string(detection.Decision)),
		detection.RiskScore,
		detection.Confidence,
		nullableString(detection.ErrorMessage),
		detection.UpdatedAt.Format(time.RFC3339Nano),
		detection.ID,
	); err != nil {
		return fmt.Errorf("update detection: %w", err)
	}
	return nil
}

// List returns detections filtered by status set (or all when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Detection, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + detectionColumns + ` FROM detections`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	var detections []*Detection
	for rows.Next() {
		detection, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, detection)
	}
	return detections, rows.Err()
}

// NextForStatuses returns the oldest detection matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Detection, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + detectionColumns + ` FROM detections WHERE status IN (` + placeholders + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	detection, err := scanDetection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return detection, nil
}

// NextForMatching returns the oldest fingerprinted detection that has not
// been through the decision engine yet. Detections keep their decision
// after a pass even when no match rows were stored, which is what stops
// the workflow from re-comparing the same detection forever.
func (s *Store) NextForMatching(ctx context.Context) (*Detection, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+detectionColumns+` FROM detections
         WHERE status = ? AND decision IS NULL
         ORDER BY created_at LIMIT 1`,
		StatusFingerprinted,
	)
	detection, err := scanDetection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return detection, nil
}

// NextForEnforcement returns the oldest approved match awaiting enforcement.
func (s *Store) NextForEnforcement(ctx context.Context) (*Detection, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+detectionColumns+` FROM detections
         WHERE status = ? AND decision = ?
         ORDER BY created_at LIMIT 1`,
		StatusMatched,
		DecisionApprove,
	)
	detection, err := scanDetection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return detection, nil
}

// Remove deletes a detection and its dependent rows.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM detections WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete detection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearEnforced removes only enforced detections.
func (s *Store) ClearEnforced(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM detections WHERE status = ?`, StatusEnforced)
	if err != nil {
		return 0, fmt.Errorf("clear enforced: %w", err)
	}
	return res.RowsAffected()
}

// ClearErrored removes only errored detections.
func (s *Store) ClearErrored(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM detections WHERE status = ?`, StatusError)
	if err != nil {
		return 0, fmt.Errorf("clear errored: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all detections.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM detections`)
	if err != nil {
		return 0, fmt.Errorf("clear detections: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of detections grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM detections GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("detection stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates detection state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusFound:
			health.Found += count
		case StatusReview:
			health.Review += count
		case StatusError:
			health.Errored += count
		case StatusEnforced:
			health.Enforced += count
		default:
			if _, ok := processingStatuses[status]; ok {
				health.Processing += count
			}
		}
	}
	return health, nil
}
