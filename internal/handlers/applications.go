package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Applications handles application-domain events. StageChanged is the
// state-machine-flavored handler: the recipient set and message content are
// purely a function of the new stage value, with a deterministic default
// branch that notifies only the recruiter.
type Applications struct {
	d Deps
}

func NewApplications(d Deps) *Applications { return &Applications{d: d} }

// Submitted notifies every company admin that a new application arrived.
func (h *Applications) Submitted(ctx context.Context, env events.Envelope) error {
	appID := env.Payload.String("application_id")
	if appID == "" {
		return errField("application_id", env.EventType)
	}

	actx, err := h.d.Lookup.Application(ctx, appID)
	if err != nil {
		return err
	}
	if actx == nil {
		return errEssential("application", appID)
	}

	admins, err := h.d.Resolver.ByOrgRole(ctx, actx.Job.OrganizationID, "admin")
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("New application for %s", actx.Job.Title)
	html := fmt.Sprintf("<p>%s applied for <strong>%s</strong>.</p>", actx.Candidate.FullName, actx.Job.Title)

	plans := make([]emailPlan, 0, len(admins))
	for _, admin := range admins {
		plans = append(plans, emailPlan{to: admin, subject: subject, html: html, template: "application_submitted"})
	}
	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, plans)

	for _, admin := range admins {
		h.d.InApp.Notify(ctx, delivery.InAppRequest{
			To:          admin,
			Subject:     subject,
			Template:    "application_submitted",
			Payload:     env.Payload,
			EventType:   env.EventType,
			Priority:    domain.PriorityNormal,
			Category:    "applications",
			ActionURL:   "/applications/" + appID,
			ActionLabel: "Review application",
		})
	}

	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all %d recipients failed: %w", len(results), results.FirstErr())
	}
	return nil
}

// StageChanged selects recipients and content from the new stage value.
func (h *Applications) StageChanged(ctx context.Context, env events.Envelope) error {
	appID := env.Payload.String("application_id")
	if appID == "" {
		return errField("application_id", env.EventType)
	}
	newStage := env.Payload.String("new_stage")
	if newStage == "" {
		return errField("new_stage", env.EventType)
	}

	actx, err := h.d.Lookup.Application(ctx, appID)
	if err != nil {
		return err
	}
	if actx == nil {
		return errEssential("application", appID)
	}

	plan := stagePlan(newStage, actx)

	// Resolve every recipient before any send, so a missing essential
	// contact aborts with zero rows written.
	recruiter, err := h.d.Resolver.ByRecruiterID(ctx, actx.Application.RecruiterID)
	if err != nil {
		return err
	}
	if recruiter == nil {
		return errEssential("recruiter", actx.Application.RecruiterID)
	}

	var candidate *domain.Contact
	if plan.notifyCandidate {
		candidate, err = h.d.Resolver.CandidateContact(ctx, actx.Candidate)
		if err != nil {
			return err
		}
		if candidate == nil {
			return errEssential("candidate", actx.Application.CandidateID)
		}
	}

	var plans []emailPlan
	if plan.notifyCandidate {
		plans = append(plans, emailPlan{
			to:       candidate,
			subject:  plan.candidateSubject,
			html:     plan.candidateHTML,
			template: plan.template,
		})
	}
	plans = append(plans, emailPlan{
		to:       recruiter,
		subject:  plan.recruiterSubject,
		html:     plan.recruiterHTML,
		template: plan.template,
	})

	if plan.notifyAdmins {
		// Admins are secondary recipients: resolution problems are skipped,
		// never fatal.
		admins, err := h.d.Resolver.ByOrgRole(ctx, actx.Job.OrganizationID, "admin")
		if err != nil {
			h.d.Logger.Warn("skipping admin notifications", zap.Error(err))
		}
		for _, admin := range admins {
			plans = append(plans, emailPlan{
				to:       admin,
				subject:  plan.recruiterSubject,
				html:     plan.recruiterHTML,
				template: plan.template,
			})
		}
	}

	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, plans)
	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all %d recipients failed: %w", len(results), results.FirstErr())
	}
	return nil
}

// stageNotification is the notify-who/what-content rule for one target stage.
type stageNotification struct {
	notifyCandidate  bool
	notifyAdmins     bool
	template         string
	candidateSubject string
	candidateHTML    string
	recruiterSubject string
	recruiterHTML    string
}

// stagePlan is the stage-change state machine. Stages not listed fall into
// the default branch, which notifies only the recruiter.
func stagePlan(newStage string, actx *domain.ApplicationContext) stageNotification {
	job := actx.Job.Title
	name := actx.Candidate.FullName

	switch newStage {
	case "interview":
		return stageNotification{
			notifyCandidate:  true,
			template:         "application_stage_interview",
			candidateSubject: fmt.Sprintf("Interview scheduled for %s", job),
			candidateHTML:    fmt.Sprintf("<p>Good news — you are moving to the interview stage for <strong>%s</strong>.</p>", job),
			recruiterSubject: fmt.Sprintf("%s moved to interview for %s", name, job),
			recruiterHTML:    fmt.Sprintf("<p>%s is now in the interview stage for <strong>%s</strong>.</p>", name, job),
		}
	case "offer":
		return stageNotification{
			notifyCandidate:  true,
			template:         "application_stage_offer",
			candidateSubject: fmt.Sprintf("You have an offer for %s", job),
			candidateHTML:    fmt.Sprintf("<p>Congratulations — an offer has been extended for <strong>%s</strong>.</p>", job),
			recruiterSubject: fmt.Sprintf("Offer extended to %s for %s", name, job),
			recruiterHTML:    fmt.Sprintf("<p>An offer was extended to %s for <strong>%s</strong>.</p>", name, job),
		}
	case "hired":
		return stageNotification{
			notifyCandidate:  true,
			notifyAdmins:     true,
			template:         "application_stage_hired",
			candidateSubject: fmt.Sprintf("Welcome aboard — %s", job),
			candidateHTML:    fmt.Sprintf("<p>You have been hired for <strong>%s</strong>. Congratulations!</p>", job),
			recruiterSubject: fmt.Sprintf("%s was hired for %s", name, job),
			recruiterHTML:    fmt.Sprintf("<p>%s was hired for <strong>%s</strong>.</p>", name, job),
		}
	case "rejected":
		return stageNotification{
			notifyCandidate:  true,
			template:         "application_stage_rejected",
			candidateSubject: fmt.Sprintf("Update on your application for %s", job),
			candidateHTML:    fmt.Sprintf("<p>Your application for <strong>%s</strong> will not be moving forward.</p>", job),
			recruiterSubject: fmt.Sprintf("%s was rejected for %s", name, job),
			recruiterHTML:    fmt.Sprintf("<p>%s's application for <strong>%s</strong> was rejected.</p>", name, job),
		}
	default:
		return stageNotification{
			template:         "application_stage_changed",
			recruiterSubject: fmt.Sprintf("%s moved to %s for %s", name, newStage, job),
			recruiterHTML:    fmt.Sprintf("<p>%s's application for <strong>%s</strong> moved to stage %q.</p>", name, job, newStage),
		}
	}
}
