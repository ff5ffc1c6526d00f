package handlers

import (
	"context"
	"fmt"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Collaboration handles split-placement collaboration events.
type Collaboration struct {
	d Deps
}

func NewCollaboration(d Deps) *Collaboration { return &Collaboration{d: d} }

// CollaboratorAdded notifies the recruiter who was added to a placement.
func (h *Collaboration) CollaboratorAdded(ctx context.Context, env events.Envelope) error {
	recruiterID := env.Payload.String("recruiter_id")
	if recruiterID == "" {
		return errField("recruiter_id", env.EventType)
	}
	placementID := env.Payload.String("placement_id")
	if placementID == "" {
		return errField("placement_id", env.EventType)
	}

	recruiter, err := h.d.Resolver.ByRecruiterID(ctx, recruiterID)
	if err != nil {
		return err
	}
	if recruiter == nil {
		return errEssential("recruiter", recruiterID)
	}

	subject := "You were added as a collaborator"
	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, []emailPlan{{
		to:       recruiter,
		subject:  subject,
		html:     "<p>You were added as a collaborator on a placement and will share its fee split.</p>",
		template: "collaborator_added",
	}})

	h.d.InApp.Notify(ctx, delivery.InAppRequest{
		To:          recruiter,
		Subject:     subject,
		Template:    "collaborator_added",
		Payload:     env.Payload,
		EventType:   env.EventType,
		Priority:    domain.PriorityNormal,
		Category:    "collaboration",
		ActionURL:   "/placements/" + placementID,
		ActionLabel: "View placement",
	})

	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all recipients failed: %w", results.FirstErr())
	}
	return nil
}
