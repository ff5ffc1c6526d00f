package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Chat handles message.created events. Two independent suppression layers
// apply: participant state (muted/archived/pending/declined) suppresses
// everything, and the email debounce window throttles bursty conversations
// to at most one email per window regardless of in-app row count.
type Chat struct {
	d Deps
}

func NewChat(d Deps) *Chat { return &Chat{d: d} }

func (h *Chat) MessageCreated(ctx context.Context, env events.Envelope) error {
	conversationID := env.Payload.String("conversation_id")
	if conversationID == "" {
		return errField("conversation_id", env.EventType)
	}
	recipientUserID := env.Payload.String("recipient_user_id")
	if recipientUserID == "" {
		return errField("recipient_user_id", env.EventType)
	}
	senderName := env.Payload.String("sender_name")
	preview := env.Payload.String("message_preview")

	participant, err := h.d.Lookup.ConversationParticipant(ctx, conversationID, recipientUserID)
	if err != nil {
		return err
	}
	if participant == nil || participant.Suppressed() {
		h.d.Logger.Debug("chat notification suppressed",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", recipientUserID),
		)
		return nil
	}

	recipient, err := h.d.Resolver.ByUserID(ctx, recipientUserID)
	if err != nil {
		return err
	}
	if recipient == nil {
		return errEssential("user", recipientUserID)
	}

	subject := "New message"
	if senderName != "" {
		subject = "New message from " + senderName
	}

	// The in-app row is always written for non-suppressed participants.
	h.d.InApp.Notify(ctx, delivery.InAppRequest{
		To:          recipient,
		Subject:     subject,
		Template:    "chat_message",
		Payload:     env.Payload,
		EventType:   env.EventType,
		Priority:    domain.PriorityNormal,
		Category:    "chat",
		ActionURL:   "/conversations/" + conversationID,
		ActionLabel: "Open conversation",
	})

	allowed, err := h.d.Debounce.Allow(ctx, recipient.Email, env.EventType)
	if err != nil {
		return err
	}
	if !allowed {
		h.d.Logger.Debug("chat email debounced",
			zap.String("recipient", recipient.Email),
			zap.String("conversation_id", conversationID),
		)
		return nil
	}

	html := "<p>You have a new message.</p>"
	if preview != "" {
		html = "<p>" + preview + "</p>"
	}
	_, err = h.d.Email.Send(ctx, delivery.EmailRequest{
		To:        recipient,
		Subject:   subject,
		HTML:      html,
		EventType: env.EventType,
		Template:  "chat_message",
		Payload:   env.Payload,
	})
	return err
}
