package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splits-network/notifier/internal/domain"
)

const notificationColumns = `
	id, event_type, recipient_user_id, recipient_email, subject, template,
	payload, channel, status, read, dismissed, priority, category,
	action_url, action_label, provider_message_id, error_message,
	created_at, sent_at, read_at`

type pgNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewPgNotificationRepository returns a NotificationRepository backed by PostgreSQL.
func NewPgNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepository{pool: pool}
}

// Create inserts a new log row. Channel and priority are validated here so
// a bad enum value surfaces as a sentinel instead of a CHECK-constraint
// violation from the database.
func (r *pgNotificationRepository) Create(ctx context.Context, n *domain.NotificationLog) error {
	if !n.Channel.IsValid() {
		return domain.ErrInvalidChannel
	}
	if !n.Priority.IsValid() {
		return domain.ErrInvalidPriority
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_logs
			(id, event_type, recipient_user_id, recipient_email, subject, template,
			 payload, channel, status, read, dismissed, priority, category,
			 action_url, action_label, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		n.ID, n.EventType, n.RecipientUserID, n.RecipientEmail, n.Subject, n.Template,
		n.Payload, n.Channel, n.Status, n.Read, n.Dismissed, n.Priority, n.Category,
		n.ActionURL, n.ActionLabel, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

func (r *pgNotificationRepository) GetByID(ctx context.Context, id string) (*domain.NotificationLog, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notification_logs WHERE id = $1`, id)

	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return n, err
}

func (r *pgNotificationRepository) MarkSent(ctx context.Context, id, providerMessageID string, sentAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_logs
		SET status = 'sent', provider_message_id = $1, sent_at = $2, error_message = NULL
		WHERE id = $3 AND status = 'pending'`, providerMessageID, sentAt, id)
	return err
}

func (r *pgNotificationRepository) MarkFailed(ctx context.Context, id, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_logs
		SET status = 'failed', error_message = $1
		WHERE id = $2 AND status = 'pending'`, errMsg, id)
	return err
}

// Feed returns a user's in-app feed: non-dismissed rows on the in_app or
// both channels, unread first, then newest first.
func (r *pgNotificationRepository) Feed(ctx context.Context, f domain.FeedFilter) ([]*domain.NotificationLog, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notification_logs
		WHERE recipient_user_id = $1
		  AND channel IN ('in_app', 'both')
		  AND dismissed = FALSE`
	args := []any{f.UserID}

	if f.UnreadOnly {
		query += ` AND read = FALSE`
	}

	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY read ASC, created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *pgNotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notification_logs
		WHERE recipient_user_id = $1
		  AND channel IN ('in_app', 'both')
		  AND dismissed = FALSE
		  AND read = FALSE`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (r *pgNotificationRepository) MarkRead(ctx context.Context, id, userID string) (*domain.NotificationLog, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notification_logs
		SET read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND recipient_user_id = $2
		RETURNING `+notificationColumns, id, userID, time.Now().UTC())

	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Row does not exist or belongs to another user. Either way nothing
		// was mutated.
		return nil, domain.ErrNotFound
	}
	return n, err
}

func (r *pgNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notification_logs
		SET read = TRUE, read_at = $2
		WHERE recipient_user_id = $1
		  AND channel IN ('in_app', 'both')
		  AND dismissed = FALSE
		  AND read = FALSE`, userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgNotificationRepository) Dismiss(ctx context.Context, id, userID string) (*domain.NotificationLog, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notification_logs
		SET dismissed = TRUE
		WHERE id = $1 AND recipient_user_id = $2
		RETURNING `+notificationColumns, id, userID)

	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return n, err
}

func (r *pgNotificationRepository) HasRecentEmail(ctx context.Context, recipientEmail, eventType string, after time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notification_logs
			WHERE recipient_email = $1
			  AND event_type = $2
			  AND channel = 'email'
			  AND created_at > $3
		)`, recipientEmail, eventType, after).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recent email: %w", err)
	}
	return exists, nil
}

// ---- helpers ----

// scanNotification reads a single notification row from any pgx row type.
func scanNotification(row pgx.Row) (*domain.NotificationLog, error) {
	var n domain.NotificationLog
	err := row.Scan(
		&n.ID, &n.EventType, &n.RecipientUserID, &n.RecipientEmail, &n.Subject,
		&n.Template, &n.Payload, &n.Channel, &n.Status, &n.Read, &n.Dismissed,
		&n.Priority, &n.Category, &n.ActionURL, &n.ActionLabel,
		&n.ProviderMessageID, &n.ErrorMessage, &n.CreatedAt, &n.SentAt, &n.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func scanNotifications(rows pgx.Rows) ([]*domain.NotificationLog, error) {
	var result []*domain.NotificationLog
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
