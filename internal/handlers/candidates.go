package handlers

import (
	"context"
	"fmt"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Candidates handles candidate-domain events.
type Candidates struct {
	d Deps
}

func NewCandidates(d Deps) *Candidates { return &Candidates{d: d} }

// Assigned notifies a recruiter that a candidate was assigned to them.
func (h *Candidates) Assigned(ctx context.Context, env events.Envelope) error {
	recruiterID := env.Payload.String("recruiter_id")
	if recruiterID == "" {
		return errField("recruiter_id", env.EventType)
	}
	candidateID := env.Payload.String("candidate_id")
	if candidateID == "" {
		return errField("candidate_id", env.EventType)
	}

	recruiter, err := h.d.Resolver.ByRecruiterID(ctx, recruiterID)
	if err != nil {
		return err
	}
	if recruiter == nil {
		return errEssential("recruiter", recruiterID)
	}

	candidate, err := h.d.Lookup.Candidate(ctx, candidateID)
	if err != nil {
		return err
	}
	if candidate == nil {
		return errEssential("candidate", candidateID)
	}

	subject := fmt.Sprintf("%s was assigned to you", candidate.FullName)
	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, []emailPlan{{
		to:       recruiter,
		subject:  subject,
		html:     fmt.Sprintf("<p><strong>%s</strong> is now assigned to you.</p>", candidate.FullName),
		template: "candidate_assigned",
	}})

	h.d.InApp.Notify(ctx, delivery.InAppRequest{
		To:          recruiter,
		Subject:     subject,
		Template:    "candidate_assigned",
		Payload:     env.Payload,
		EventType:   env.EventType,
		Priority:    domain.PriorityNormal,
		Category:    "candidates",
		ActionURL:   "/candidates/" + candidateID,
		ActionLabel: "View candidate",
	})

	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all recipients failed: %w", results.FirstErr())
	}
	return nil
}
