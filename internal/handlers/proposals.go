package handlers

import (
	"context"
	"fmt"

	"github.com/splits-network/notifier/internal/events"
)

// Proposals handles recruiter-to-company candidate proposals.
type Proposals struct {
	d Deps
}

func NewProposals(d Deps) *Proposals { return &Proposals{d: d} }

// Created notifies the company admins that a recruiter proposed a candidate
// for one of their jobs.
func (h *Proposals) Created(ctx context.Context, env events.Envelope) error {
	jobID := env.Payload.String("job_id")
	if jobID == "" {
		return errField("job_id", env.EventType)
	}

	job, err := h.d.Lookup.Job(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return errEssential("job", jobID)
	}

	admins, err := h.d.Resolver.ByOrgRole(ctx, job.OrganizationID, "admin")
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("New candidate proposed for %s", job.Title)
	plans := make([]emailPlan, 0, len(admins))
	for _, admin := range admins {
		plans = append(plans, emailPlan{
			to:       admin,
			subject:  subject,
			html:     fmt.Sprintf("<p>A recruiter proposed a candidate for <strong>%s</strong>.</p>", job.Title),
			template: "proposal_created",
		})
	}

	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, plans)
	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all %d recipients failed: %w", len(results), results.FirstErr())
	}
	return nil
}

// Accepted notifies the proposing recruiter.
func (h *Proposals) Accepted(ctx context.Context, env events.Envelope) error {
	return h.notifyRecruiter(ctx, env, "Your proposal was accepted",
		"<p>Your candidate proposal was accepted. Submit the application to continue.</p>",
		"proposal_accepted")
}

// Declined notifies the proposing recruiter.
func (h *Proposals) Declined(ctx context.Context, env events.Envelope) error {
	return h.notifyRecruiter(ctx, env, "Your proposal was declined",
		"<p>Your candidate proposal was declined.</p>",
		"proposal_declined")
}

func (h *Proposals) notifyRecruiter(ctx context.Context, env events.Envelope, subject, html, template string) error {
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
