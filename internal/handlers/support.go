package handlers

import (
	"context"
	"fmt"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Support handles support-ticket events, notifying the ticket creator.
type Support struct {
	d Deps
}

func NewSupport(d Deps) *Support { return &Support{d: d} }

func (h *Support) TicketCreated(ctx context.Context, env events.Envelope) error {
	return h.notifyCreator(ctx, env, "We received your support request",
		"<p>Your support ticket was created. We will get back to you shortly.</p>",
		"support_ticket_created", domain.PriorityLow)
}

func (h *Support) TicketReplied(ctx context.Context, env events.Envelope) error {
	return h.notifyCreator(ctx, env, "New reply on your support ticket",
		"<p>Support replied to your ticket.</p>",
		"support_ticket_replied", domain.PriorityNormal)
}

func (h *Support) notifyCreator(ctx context.Context, env events.Envelope, subject, html, template string, priority domain.Priority) error {
	userID := env.Payload.String("user_id")
	if userID == "" {
		return errField("user_id", env.EventType)
	}
	ticketID := env.Payload.String("ticket_id")

	creator, err := h.d.Resolver.ByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if creator == nil {
		return errEssential("user", userID)
	}

	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, []emailPlan{{
		to: creator, subject: subject, html: html, template: template,
	}})

	h.d.InApp.Notify(ctx, delivery.InAppRequest{
		To:          creator,
		Subject:     subject,
		Template:    template,
		Payload:     env.Payload,
		EventType:   env.EventType,
		Priority:    priority,
		Category:    "support",
		ActionURL:   "/support/" + ticketID,
		ActionLabel: "View ticket",
	})

	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all recipients failed: %w", results.FirstErr())
	}
	return nil
}
