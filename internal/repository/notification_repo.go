package repository

import (
	"context"
	"time"

	"github.com/splits-network/notifier/internal/domain"
)

// NotificationRepository is the single source of truth for delivery state.
// The pgx implementation is in pg_notification_repo.go; tests use a
// hand-written mock (mock_notification_repo.go).
//
// Every mutating feed operation (MarkRead, MarkAllRead, Dismiss) is scoped
// by both the row id and the owning recipient_user_id: a request naming
// another user's notification affects zero rows.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.NotificationLog) error
	GetByID(ctx context.Context, id string) (*domain.NotificationLog, error)
	MarkSent(ctx context.Context, id, providerMessageID string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id, errMsg string) error

	Feed(ctx context.Context, f domain.FeedFilter) ([]*domain.NotificationLog, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) (*domain.NotificationLog, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Dismiss(ctx context.Context, id, userID string) (*domain.NotificationLog, error)

	// HasRecentEmail reports whether an email-channel row exists for this
	// recipient and event type created after the given instant. Used by the
	// debouncer to throttle bursty event streams.
	HasRecentEmail(ctx context.Context, recipientEmail, eventType string, after time.Time) (bool, error)
}
