package store

import (
	"context"
	"fmt"
	"time"
)

// TransitionStatus atomically advances a detection from one status to
// another. When the detection is no longer in the expected status the
// update matches no row and ErrTransitionLost is returned, so callers can
// distinguish losing a race from a storage failure.
func (s *Store) TransitionStatus(ctx context.Context, id int64, from, to Status) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE detections SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		from,
	)
	if err != nil {
		return fmt.Errorf("transition detection %d %s -> %s: %w", id, from, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("detection %d %s -> %s: %w", id, from, to, ErrTransitionLost)
	}
	return nil
}

// MarkFailure moves a detection to a terminal failure status (error or
// review) and records the message. The in-flight status it fell out of is
// rolled back into last_good_status so retries resume the stage cleanly.
func (s *Store) MarkFailure(ctx context.Context, id int64, to Status, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE detections
         SET last_good_status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ?`,
		StatusCapturing, StatusFound,
		StatusMatching, StatusFingerprinted,
		StatusEnforcing, StatusMatched,
		to,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("mark detection failure: %w", err)
	}
	return nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight detection.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE detections SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ClearHeartbeat removes the heartbeat marker once a stage completes.
func (s *Store) ClearHeartbeat(ctx context.Context, id int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE detections SET last_heartbeat = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("clear heartbeat: %w", err)
	}
	return nil
}

// ResetStuckProcessing rolls detections in in-flight statuses back to the
// start of their current stage. Used on daemon startup after a crash.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE detections
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?, ?)`,
		StatusCapturing, StatusFound,
		StatusMatching, StatusFingerprinted,
		StatusEnforcing, StatusMatched,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusCapturing,
		StatusMatching,
		StatusEnforcing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck detections: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleProcessing rolls in-flight detections back to the start of
// their current stage when heartbeats expire.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE detections
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?, ?) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusCapturing, StatusFound,
		StatusMatching, StatusFingerprinted,
		StatusEnforcing, StatusMatched,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusCapturing,
		StatusMatching,
		StatusEnforcing,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale detections: %w", err)
	}
	return res.RowsAffected()
}

// RetryErrored moves errored detections back to their last good status for
// reprocessing. When ids are given only those detections are retried.
func (s *Store) RetryErrored(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE detections
             SET status = COALESCE(NULLIF(last_good_status, ''), ?),
                 last_good_status = NULL, error_message = NULL, updated_at = ?
             WHERE status = ?`,
			StatusFound,
			now,
			StatusError,
		)
		if err != nil {
			return 0, fmt.Errorf("retry errored detections: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusFound, now)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE detections
        SET status = COALESCE(NULLIF(last_good_status, ''), ?),
            last_good_status = NULL, error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status IN ('` + string(StatusError) + `', '` + string(StatusReview) + `')`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected detections: %w", err)
	}
	return res.RowsAffected()
}
