package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cuotas/internal/core"
)

// CreateNotification lands a delivered notification in the inbox table.
// Delivery is at-least-once, so a duplicate row is possible and harmless.
func (r *SQLiteRepository) CreateNotification(ctx context.Context, n core.Notification) (int64, error) {
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, title, message, payload, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Kind, n.Title, n.Message, nullString(n.Payload), n.Read,
		createdAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("notification id: %w", err)
	}
	return id, nil
}

// ListNotifications returns a user's notifications, newest first.
func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	query := `SELECT id, user_id, kind, title, message, payload, is_read, created_at
	          FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += " AND is_read = 0"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	var notifications []core.Notification
	for rows.Next() {
		var (
			n         core.Notification
			payload   sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Message, &payload, &n.Read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Payload = payload.String
		if n.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flags one notification as read.
func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %d: %w", id, core.ErrNotFound)
	}
	return nil
}
