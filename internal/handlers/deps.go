package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/directory"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Deps is the dependency set shared by every domain handler.
type Deps struct {
	Resolver *directory.Resolver
	Lookup   *directory.Lookup
	Email    *delivery.Email
	InApp    *delivery.InApp
	Debounce *delivery.Debouncer
	Logger   *zap.Logger
}

// RegisterAll wires every domain handler into the router's dispatch table.
func RegisterAll(r *events.Router, d Deps) {
	apps := NewApplications(d)
	r.Register(events.KindApplicationSubmitted, apps.Submitted)
	r.Register(events.KindApplicationStageChanged, apps.StageChanged)

	placements := NewPlacements(d)
	r.Register(events.KindPlacementCreated, placements.Created)
	r.Register(events.KindPlacementActivated, placements.Activated)
	r.Register(events.KindPlacementEnded, placements.Ended)

	proposals := NewProposals(d)
	r.Register(events.KindProposalCreated, proposals.Created)
	r.Register(events.KindProposalAccepted, proposals.Accepted)
	r.Register(events.KindProposalDeclined, proposals.Declined)

	candidates := NewCandidates(d)
	r.Register(events.KindCandidateAssigned, candidates.Assigned)

	collab := NewCollaboration(d)
	r.Register(events.KindCollaboratorAdded, collab.CollaboratorAdded)

	invitations := NewInvitations(d)
	r.Register(events.KindInvitationCreated, invitations.Created)
	r.Register(events.KindInvitationAccepted, invitations.Accepted)

	billing := NewBilling(d)
	r.Register(events.KindInvoiceCreated, billing.InvoiceCreated)
	r.Register(events.KindPaymentFailed, billing.PaymentFailed)

	chat := NewChat(d)
	r.Register(events.KindMessageCreated, chat.MessageCreated)

	gates := NewGates(d)
	r.Register(events.KindGateApprovalRequested, gates.ApprovalRequested)
	r.Register(events.KindGateApproved, gates.Approved)
	r.Register(events.KindGateRejected, gates.Rejected)

	support := NewSupport(d)
	r.Register(events.KindSupportTicketCreated, support.TicketCreated)
	r.Register(events.KindSupportTicketReplied, support.TicketReplied)
}

// errEssential marks an entity whose absence aborts the whole handler.
func errEssential(entity, id string) error {
	return fmt.Errorf("essential %s %q missing from lookup", entity, id)
}

// errField marks a payload field the handler cannot proceed without.
func errField(field, eventType string) error {
	return fmt.Errorf("payload field %q missing on %s event", field, eventType)
}

// emailPlan is one recipient's planned email during fan-out.
type emailPlan struct {
	to       *domain.Contact
	subject  string
	html     string
	template string
}

// fanOutEmails sends each planned email independently and collects
// per-recipient results. One failure never aborts the remaining sends;
// attempts run sequentially in plan order.
func fanOutEmails(ctx context.Context, email *delivery.Email, eventType string, payload map[string]any, plans []emailPlan) delivery.Results {
	results := make(delivery.Results, 0, len(plans))
	for _, p := range plans {
		log, err := email.Send(ctx, delivery.EmailRequest{
			To:        p.to,
			Subject:   p.subject,
			HTML:      p.html,
			EventType: eventType,
			Template:  p.template,
			Payload:   payload,
		})
		results = append(results, delivery.Result{Recipient: p.to, Log: log, Err: err})
	}
	return results
}

// summarize emits the structured per-event summary every handler logs.
func summarize(logger *zap.Logger, eventType string, results delivery.Results) {
	logger.Info("event handled",
		zap.String("event_type", eventType),
		zap.Int("recipients", len(results)),
		zap.Int("sent", results.Sent()),
		zap.Int("failed", results.Failed()),
	)
}
