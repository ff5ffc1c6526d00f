package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Placements handles placement lifecycle events.
type Placements struct {
	d Deps
}

func NewPlacements(d Deps) *Placements { return &Placements{d: d} }

func (h *Placements) Created(ctx context.Context, env events.Envelope) error {
	p, recruiter, err := h.load(ctx, env)
	if err != nil {
		return err
	}

	subject := "Placement created"
	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, []emailPlan{{
		to:       recruiter,
		subject:  subject,
		html:     "<p>A placement was created from your application.</p>",
		template: "placement_created",
	}})

	h.d.InApp.Notify(ctx, delivery.InAppRequest{
		To:          recruiter,
		Subject:     subject,
		Template:    "placement_created",
		Payload:     env.Payload,
		EventType:   env.EventType,
		Priority:    domain.PriorityNormal,
		Category:    "placements",
		ActionURL:   "/placements/" + p.ID,
		ActionLabel: "View placement",
	})

	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all recipients failed: %w", results.FirstErr())
	}
	return nil
}

// Activated fans out to the recruiter, the candidate, and every
// collaborator on the placement. Collaborators are secondary recipients:
// unresolvable ones are skipped with a warning.
func (h *Placements) Activated(ctx context.Context, env events.Envelope) error {
	p, recruiter, err := h.load(ctx, env)
	if err != nil {
		return err
	}

	candidate, err := h.d.Resolver.ByCandidateID(ctx, p.CandidateID)
	if err != nil {
		return err
	}
	if candidate == nil {
		return errEssential("candidate", p.CandidateID)
	}

	subject := "Placement is now active"
	html := "<p>The placement has been activated. Congratulations!</p>"
	plans := []emailPlan{
		{to: candidate, subject: subject, html: html, template: "placement_activated"},
		{to: recruiter, subject: subject, html: html, template: "placement_activated"},
	}
	for _, collab := range p.Collaborators {
		c, err := h.d.Resolver.ByRecruiterID(ctx, collab.ID)
		if err != nil {
			return err
		}
		if c == nil {
			h.d.Logger.Warn("skipping unresolvable collaborator",
				zap.String("recruiter_id", collab.ID))
			continue
		}
		plans = append(plans, emailPlan{to: c, subject: subject, html: html, template: "placement_activated"})
	}

	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, plans)

	h.d.InApp.Notify(ctx, delivery.InAppRequest{
		To:          recruiter,
		Subject:     subject,
		Template:    "placement_activated",
		Payload:     env.Payload,
		EventType:   env.EventType,
		Priority:    domain.PriorityHigh,
		Category:    "placements",
		ActionURL:   "/placements/" + p.ID,
		ActionLabel: "View placement",
	})

	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all %d recipients failed: %w", len(results), results.FirstErr())
	}
	return nil
}

func (h *Placements) Ended(ctx context.Context, env events.Envelope) error {
	_, recruiter, err := h.load(ctx, env)
	if err != nil {
		return err
	}

	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, []emailPlan{{
		to:       recruiter,
		subject:  "Placement ended",
		html:     "<p>The placement has ended.</p>",
		template: "placement_ended",
	}})
	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all recipients failed: %w", results.FirstErr())
	}
	return nil
}

// load fetches the placement and resolves its recruiter, both essential.
func (h *Placements) load(ctx context.Context, env events.Envelope) (*domain.Placement, *domain.Contact, error) {
	placementID := env.Payload.String("placement_id")
	if placementID == "" {
		return nil, nil, errField("placement_id", env.EventType)
	}

	p, err := h.d.Lookup.Placement(ctx, placementID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, errEssential("placement", placementID)
	}

	recruiter, err := h.d.Resolver.ByRecruiterID(ctx, p.RecruiterID)
	if err != nil {
		return nil, nil, err
	}
	if recruiter == nil {
		return nil, nil, errEssential("recruiter", p.RecruiterID)
	}
	return p, recruiter, nil
}
