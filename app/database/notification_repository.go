package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = fmt.Errorf("review notification not found")

const notificationColumns = `id, content_id, site_name, COALESCE(content_label, ''),
	due_date, last_notified_at, published_at, created_at`

// PostgresNotificationRepository handles database operations for review due
// notification records
type PostgresNotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func scanNotification(scanner interface{ Scan(...interface{}) error }) (*ReviewNotification, error) {
	var n ReviewNotification
	err := scanner.Scan(
		&n.ID, &n.ContentID, &n.SiteName, &n.ContentLabel,
		&n.DueDate, &n.LastNotifiedAt, &n.PublishedAt, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *PostgresNotificationRepository) GetByContentID(contentID uuid.UUID) (*ReviewNotification, error) {
	row := r.db.QueryRow(`
		SELECT `+notificationColumns+`
		FROM review_notifications
		WHERE content_id = $1
	`, contentID)

	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (r *PostgresNotificationRepository) GetBySite(siteName string, limit int) ([]ReviewNotification, error) {
	rows, err := r.db.Query(`
		SELECT `+notificationColumns+`
		FROM review_notifications
		WHERE site_name = $1
		ORDER BY last_notified_at DESC
		LIMIT $2
	`, siteName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []ReviewNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return notifications, nil
}

func (r *PostgresNotificationRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM review_notifications`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (r *PostgresNotificationRepository) Insert(n *ReviewNotification) error {
	err := r.db.QueryRow(`
		INSERT INTO review_notifications (
			content_id, site_name, content_label, due_date, last_notified_at, published_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, n.ContentID, n.SiteName, n.ContentLabel, n.DueDate, n.LastNotifiedAt, n.PublishedAt).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) Update(n *ReviewNotification) error {
	result, err := r.db.Exec(`
		UPDATE review_notifications
		SET content_label = $2, due_date = $3, last_notified_at = $4
		WHERE id = $1
	`, n.ID, n.ContentLabel, n.DueDate, n.LastNotifiedAt)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) MarkPublished(id uuid.UUID, publishedAt time.Time) error {
	result, err := r.db.Exec(`
		UPDATE review_notifications
		SET published_at = $2
		WHERE id = $1
	`, id, publishedAt)
	if err != nil {
		return fmt.Errorf("failed to mark notification published: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
