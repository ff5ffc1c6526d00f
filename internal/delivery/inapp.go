package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/repository"
)

// InAppRequest describes one in-app notification row.
type InAppRequest struct {
	To          *domain.Contact
	Subject     string
	Template    string
	Payload     map[string]any
	EventType   string
	Priority    domain.Priority
	Category    string
	ActionURL   string
	ActionLabel string
}

// InApp is the in-app delivery channel. There is no external call to fail,
// so rows are created directly in status=sent. A write failure is logged
// and swallowed: it must never cause an otherwise-successful email send to
// be reported as failed, and vice versa.
type InApp struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
	hooks  Hooks
}

func NewInApp(repo repository.NotificationRepository, logger *zap.Logger, hooks Hooks) *InApp {
	hooks.fill()
	return &InApp{repo: repo, logger: logger, hooks: hooks}
}

// Notify writes the in-app row. Recipients without a linked user account
// have no feed, so the row is skipped. Returns the created row or nil.
func (a *InApp) Notify(ctx context.Context, req InAppRequest) *domain.NotificationLog {
	if req.To == nil || req.To.UserID == nil {
		return nil
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	now := time.Now().UTC()
	sentAt := now
	n := &domain.NotificationLog{
		ID:              uuid.New().String(),
		EventType:       req.EventType,
		RecipientUserID: req.To.UserID,
		RecipientEmail:  req.To.Email,
		Subject:         req.Subject,
		Template:        req.Template,
		Payload:         req.Payload,
		Channel:         domain.ChannelInApp,
		Status:          domain.StatusSent,
		Read:            false,
		Dismissed:       false,
		Priority:        priority,
		Category:        req.Category,
		ActionURL:       req.ActionURL,
		ActionLabel:     req.ActionLabel,
		CreatedAt:       now,
		SentAt:          &sentAt,
	}

	if err := a.repo.Create(ctx, n); err != nil {
		a.logger.Error("failed to write in-app notification",
			zap.String("event_type", req.EventType),
			zap.String("user_id", *req.To.UserID),
			zap.Error(err),
		)
		a.hooks.OnFailed(domain.ChannelInApp)
		return nil
	}

	a.hooks.OnSent(domain.ChannelInApp, time.Since(now))
	return n
}
