package delivery

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/provider"
	"github.com/splits-network/notifier/internal/ratelimiter"
	"github.com/splits-network/notifier/internal/repository"
)

// Hooks carries metric callbacks injected by main.
// Nil hooks are replaced with no-ops so the channels stay metrics-agnostic.
type Hooks struct {
	OnSent   func(channel domain.Channel, latency time.Duration)
	OnFailed func(channel domain.Channel)
}

func (h *Hooks) fill() {
	if h.OnSent == nil {
		h.OnSent = func(domain.Channel, time.Duration) {}
	}
	if h.OnFailed == nil {
		h.OnFailed = func(domain.Channel) {}
	}
}

// EmailRequest describes one email delivery attempt.
type EmailRequest struct {
	To        *domain.Contact
	Subject   string
	HTML      string
	EventType string
	Template  string
	Payload   map[string]any
}

// Email is the email delivery channel. The ordering invariant is
// write-then-send: the log row is created in status=pending before the
// provider is contacted, so a crash mid-call still leaves a record.
type Email struct {
	repo    repository.NotificationRepository
	prov    provider.EmailProvider
	limiter *ratelimiter.SendLimiter
	logger  *zap.Logger
	hooks   Hooks
}

func NewEmail(
	repo repository.NotificationRepository,
	prov provider.EmailProvider,
	limiter *ratelimiter.SendLimiter,
	logger *zap.Logger,
	hooks Hooks,
) *Email {
	hooks.fill()
	return &Email{repo: repo, prov: prov, limiter: limiter, logger: logger, hooks: hooks}
}

// Send validates the address, records a pending log row, and invokes the
// provider. On success the row moves to sent with the provider message id;
// on failure it moves to failed with the error text and the error is
// returned to the caller.
func (e *Email) Send(ctx context.Context, req EmailRequest) (*domain.NotificationLog, error) {
	if req.To == nil || req.To.Email == "" {
		return nil, domain.ErrInvalidRecipient
	}
	if _, err := mail.ParseAddress(req.To.Email); err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRecipient, req.To.Email)
	}

	start := time.Now()
	n := &domain.NotificationLog{
		ID:              uuid.New().String(),
		EventType:       req.EventType,
		RecipientUserID: req.To.UserID,
		RecipientEmail:  req.To.Email,
		Subject:         req.Subject,
		Template:        req.Template,
		Payload:         req.Payload,
		Channel:         domain.ChannelEmail,
		Status:          domain.StatusPending,
		Priority:        domain.PriorityNormal,
		CreatedAt:       start.UTC(),
	}
	if err := e.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("record pending email: %w", err)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			// The attempt was aborted before the provider was contacted;
			// record that instead of abandoning the row in pending. The
			// wait usually fails because ctx is done, so the mark runs on
			// a detached context.
			if markErr := e.repo.MarkFailed(context.WithoutCancel(ctx), n.ID, err.Error()); markErr != nil {
				e.logger.Error("failed to mark email as failed",
					zap.String("id", n.ID), zap.Error(markErr))
			}
			n.Status = domain.StatusFailed
			errMsg := err.Error()
			n.ErrorMessage = &errMsg
			e.hooks.OnFailed(domain.ChannelEmail)
			return n, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	msgID, err := e.prov.Send(ctx, provider.Message{
		ToName:  req.To.Name,
		ToEmail: req.To.Email,
		Subject: req.Subject,
		HTML:    req.HTML,
	})
	if err != nil {
		if markErr := e.repo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
			e.logger.Error("failed to mark email as failed",
				zap.String("id", n.ID), zap.Error(markErr))
		}
		n.Status = domain.StatusFailed
		errMsg := err.Error()
		n.ErrorMessage = &errMsg
		e.hooks.OnFailed(domain.ChannelEmail)
		return n, fmt.Errorf("provider send to %s: %w", req.To.Email, err)
	}

	sentAt := time.Now().UTC()
	if err := e.repo.MarkSent(ctx, n.ID, msgID, sentAt); err != nil {
		e.logger.Error("failed to mark email as sent",
			zap.String("id", n.ID), zap.Error(err))
		return n, nil // the email went out; the log is stale, not the send
	}
	n.Status = domain.StatusSent
	n.ProviderMessageID = &msgID
	n.SentAt = &sentAt

	e.hooks.OnSent(domain.ChannelEmail, time.Since(start))
	e.logger.Info("email sent",
		zap.String("id", n.ID),
		zap.String("event_type", req.EventType),
		zap.String("recipient", req.To.Email),
		zap.String("provider_message_id", msgID),
	)
	return n, nil
}
