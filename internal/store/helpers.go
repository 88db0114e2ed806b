package store

import (
	"database/sql"
	"errors"
	"time"
)

const detectionColumns = "id, platform, url, title, status, last_good_status, decision, risk_score, confidence, error_message, created_at, updated_at, last_heartbeat"

func scanDetection(scanner interface{ Scan(dest ...any) error }) (*Detection, error) {
	var (
		id               int64
		platform         string
		url              string
		title            sql.NullString
		statusStr        string
		lastGoodStatus   sql.NullString
		decision         sql.NullString
		riskScore        sql.NullFloat64
		confidence       sql.NullFloat64
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&platform,
		&url,
		&title,
		&statusStr,
		&lastGoodStatus,
		&decision,
		&riskScore,
		&confidence,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	detection := &Detection{
		ID:             id,
		Platform:       platform,
		URL:            url,
		Title:          title.String,
		Status:         Status(statusStr),
		LastGoodStatus: Status(lastGoodStatus.String),
		Decision:       Decision(decision.String),
		RiskScore:      riskScore.Float64,
		Confidence:     confidence.Float64,
		ErrorMessage:   errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		detection.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		detection.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			detection.LastHeartbeat = &heartbeat
		}
	}
	return detection, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
