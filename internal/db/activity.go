package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"opsboard/internal/models"
)

// InsertActivityLog stores one HRD activity record. A missing id or
// created-at is filled in here so callers can submit partial records.
func InsertActivityLog(a *models.ActivityLog) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := DB.Exec(`
		INSERT INTO activity_logs
			(id, username, description, created_at, ts_in_progress, ts_completed, target_ts,
			 photo_initial, photo_in_progress, photo_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Username, a.Description, formatTime(a.CreatedAt),
		nullableTime(a.TimestampInProgress), nullableTime(a.TimestampCompleted),
		nullableTime(a.TargetTimestamp),
		a.PhotoInitial, a.PhotoInProgress, a.PhotoCompleted,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// ListActivityLogs returns activity records ordered oldest first,
// optionally filtered by username and/or a creation-date window.
func ListActivityLogs(username string, from, to *time.Time) ([]models.ActivityLog, error) {
	query := `
		SELECT id, username, description, created_at,
		       COALESCE(ts_in_progress, ''), COALESCE(ts_completed, ''), COALESCE(target_ts, ''),
		       COALESCE(photo_initial, ''), COALESCE(photo_in_progress, ''), COALESCE(photo_completed, '')
		FROM activity_logs WHERE 1=1`
	args := []any{}

	if username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}
	if from != nil {
		query += " AND created_at >= ?"
		args = append(args, formatTime(*from))
	}
	if to != nil {
		query += " AND created_at < ?"
		args = append(args, formatTime(*to))
	}
	query += " ORDER BY created_at ASC"

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		a, err := scanActivityLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}

func scanActivityLog(rows *sql.Rows) (models.ActivityLog, error) {
	var a models.ActivityLog
	var createdAt, inProgress, completed, target string

	if err := rows.Scan(
		&a.ID, &a.Username, &a.Description, &createdAt,
		&inProgress, &completed, &target,
		&a.PhotoInitial, &a.PhotoInProgress, &a.PhotoCompleted,
	); err != nil {
		return a, fmt.Errorf("scan activity log: %w", err)
	}

	if t := parseTime(createdAt); t != nil {
		a.CreatedAt = *t
	}
	a.TimestampInProgress = parseTime(inProgress)
	a.TimestampCompleted = parseTime(completed)
	a.TargetTimestamp = parseTime(target)
	return a, nil
}
