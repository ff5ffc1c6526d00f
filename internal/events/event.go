package events

// Envelope is the immutable wire contract delivered by the broker.
// Delivery is at-least-once; handlers must tolerate redelivery.
type Envelope struct {
	EventType string  `json:"event_type"`
	Payload   Payload `json:"payload"`
	Timestamp string  `json:"timestamp"`
}

// Payload is the opaque structured data carried by an event.
type Payload map[string]any

// String returns the payload field as a string, or "" when absent or not a
// string. Handlers treat "" as a missing field.
func (p Payload) String(key string) string {
	v, _ := p[key].(string)
	return v
}

// Kind is the closed set of event types this consumer understands.
// Anything else parses to KindUnknown and is acknowledged as a no-op,
// keeping the consumer forward compatible with event types it does not
// yet handle.
type Kind string

const (
	KindUnknown Kind = ""

	KindApplicationSubmitted    Kind = "application.submitted"
	KindApplicationStageChanged Kind = "application.stage_changed"

	KindPlacementCreated   Kind = "placement.created"
	KindPlacementActivated Kind = "placement.activated"
	KindPlacementEnded     Kind = "placement.ended"

	KindProposalCreated  Kind = "proposal.created"
	KindProposalAccepted Kind = "proposal.accepted"
	KindProposalDeclined Kind = "proposal.declined"

	KindCandidateAssigned Kind = "candidate.assigned"

	KindCollaboratorAdded Kind = "collaboration.collaborator_added"

	KindInvitationCreated  Kind = "invitation.created"
	KindInvitationAccepted Kind = "invitation.accepted"

	KindInvoiceCreated Kind = "billing.invoice_created"
	KindPaymentFailed  Kind = "billing.payment_failed"

	KindMessageCreated Kind = "message.created"

	KindGateApprovalRequested Kind = "gate.approval_requested"
	KindGateApproved          Kind = "gate.approved"
	KindGateRejected          Kind = "gate.rejected"

	KindSupportTicketCreated Kind = "support.ticket_created"
	KindSupportTicketReplied Kind = "support.ticket_replied"
)

var knownKinds = map[string]Kind{}

func init() {
	for _, k := range []Kind{
		KindApplicationSubmitted, KindApplicationStageChanged,
		KindPlacementCreated, KindPlacementActivated, KindPlacementEnded,
		KindProposalCreated, KindProposalAccepted, KindProposalDeclined,
		KindCandidateAssigned,
		KindCollaboratorAdded,
		KindInvitationCreated, KindInvitationAccepted,
		KindInvoiceCreated, KindPaymentFailed,
		KindMessageCreated,
		KindGateApprovalRequested, KindGateApproved, KindGateRejected,
		KindSupportTicketCreated, KindSupportTicketReplied,
	} {
		knownKinds[string(k)] = k
	}
}

// ParseKind maps an event type string to its Kind, or KindUnknown.
func ParseKind(eventType string) Kind {
	return knownKinds[eventType]
}

// RoutingKeys is the full set of topic patterns the consumer queue binds.
// One pattern per business domain the system handles.
func RoutingKeys() []string {
	return []string{
		"application.*",
		"placement.*",
		"proposal.*",
		"candidate.*",
		"collaboration.*",
		"invitation.*",
		"billing.*",
		"message.*",
		"gate.*",
		"support.*",
	}
}
