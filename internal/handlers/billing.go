package handlers

import (
	"context"
	"fmt"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Billing handles invoice and payment events. Recipients are always the
// organization's admins.
type Billing struct {
	d Deps
}

func NewBilling(d Deps) *Billing { return &Billing{d: d} }

func (h *Billing) InvoiceCreated(ctx context.Context, env events.Envelope) error {
	admins, err := h.admins(ctx, env)
	if err != nil {
		return err
	}

	invoiceNumber := env.Payload.String("invoice_number")
	subject := "New invoice available"
	if invoiceNumber != "" {
		subject = fmt.Sprintf("Invoice %s is available", invoiceNumber)
	}

	plans := make([]emailPlan, 0, len(admins))
	for _, admin := range admins {
		plans = append(plans, emailPlan{
			to:       admin,
			subject:  subject,
			html:     "<p>A new invoice is ready for review.</p>",
			template: "billing_invoice_created",
		})
	}
	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, plans)
	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all %d recipients failed: %w", len(results), results.FirstErr())
	}
	return nil
}

// PaymentFailed is urgent: admins get both an email and a high-visibility
// in-app notification.
func (h *Billing) PaymentFailed(ctx context.Context, env events.Envelope) error {
	admins, err := h.admins(ctx, env)
	if err != nil {
		return err
	}

	subject := "Payment failed — action required"
	plans := make([]emailPlan, 0, len(admins))
	for _, admin := range admins {
		plans = append(plans, emailPlan{
			to:       admin,
			subject:  subject,
			html:     "<p>A payment attempt failed. Please update your billing details.</p>",
			template: "billing_payment_failed",
		})
	}
	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, plans)

	for _, admin := range admins {
		h.d.InApp.Notify(ctx, delivery.InAppRequest{
			To:          admin,
			Subject:     subject,
			Template:    "billing_payment_failed",
			Payload:     env.Payload,
			EventType:   env.EventType,
			Priority:    domain.PriorityUrgent,
			Category:    "billing",
			ActionURL:   "/billing",
			ActionLabel: "Update billing",
		})
	}

	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all %d recipients failed: %w", len(results), results.FirstErr())
	}
	return nil
}

func (h *Billing) admins(ctx context.Context, env events.Envelope) ([]*domain.Contact, error) {
	orgID := env.Payload.String("organization_id")
	if orgID == "" {
		return nil, errField("organization_id", env.EventType)
	}
	admins, err := h.d.Resolver.ByOrgRole(ctx, orgID, "admin")
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, errEssential("organization admins", orgID)
	}
	return admins, nil
}
