package handlers

import (
	"context"
	"fmt"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Gates handles gate-workflow events: approval checkpoints an application
// must pass before advancing.
type Gates struct {
	d Deps
}

func NewGates(d Deps) *Gates { return &Gates{d: d} }

// ApprovalRequested asks the company admins to review a gate.
func (h *Gates) ApprovalRequested(ctx context.Context, env events.Envelope) error {
	orgID := env.Payload.String("organization_id")
	if orgID == "" {
		return errField("organization_id", env.EventType)
	}
	gateName := env.Payload.String("gate_name")

	admins, err := h.d.Resolver.ByOrgRole(ctx, orgID, "admin")
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		return errEssential("organization admins", orgID)
	}

	subject := "Approval requested"
	if gateName != "" {
		subject = fmt.Sprintf("Approval requested: %s", gateName)
	}

	plans := make([]emailPlan, 0, len(admins))
	for _, admin := range admins {
		plans = append(plans, emailPlan{
			to:       admin,
			subject:  subject,
			html:     "<p>An application is waiting on your approval to advance.</p>",
			template: "gate_approval_requested",
		})
	}
	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, plans)

	for _, admin := range admins {
		h.d.InApp.Notify(ctx, delivery.InAppRequest{
			To:          admin,
			Subject:     subject,
			Template:    "gate_approval_requested",
			Payload:     env.Payload,
			EventType:   env.EventType,
			Priority:    domain.PriorityHigh,
			Category:    "gates",
			ActionURL:   "/approvals",
			ActionLabel: "Review",
		})
	}

	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all %d recipients failed: %w", len(results), results.FirstErr())
	}
	return nil
}

func (h *Gates) Approved(ctx context.Context, env events.Envelope) error {
	return h.notifyRecruiter(ctx, env, "Gate approved",
		"<p>The approval gate passed; the application can advance.</p>", "gate_approved")
}

func (h *Gates) Rejected(ctx context.Context, env events.Envelope) error {
	return h.notifyRecruiter(ctx, env, "Gate rejected",
		"<p>The approval gate was rejected.</p>", "gate_rejected")
}

func (h *Gates) notifyRecruiter(ctx context.Context, env events.Envelope, subject, html, template string) error {
	recruiterID := env.Payload.String("recruiter_id")
	if recruiterID == "" {
		return errField("recruiter_id", env.EventType)
	}

	recruiter, err := h.d.Resolver.ByRecruiterID(ctx, recruiterID)
	if err != nil {
		return err
	}
	if recruiter == nil {
		return errEssential("recruiter", recruiterID)
	}

	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, []emailPlan{{
		to: recruiter, subject: subject, html: html, template: template,
	}})
	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all recipients failed: %w", results.FirstErr())
	}
	return nil
}
