package domain

import "time"

// Read-only projections of the business schema. The notifier never writes
// these tables; it reads just enough of each entity to resolve recipients
// and compose notification content.

type User struct {
	ID             string
	ExternalAuthID string
	FullName       string
	Email          string
	Phone          *string
}

type Recruiter struct {
	ID     string
	UserID string
	Phone  *string
}

// Candidate carries denormalized name/email used only when no linked
// user account exists.
type Candidate struct {
	ID       string
	UserID   *string
	FullName string
	Email    string
}

type Organization struct {
	ID   string
	Name string
}

type OrgMember struct {
	OrganizationID string
	UserID         string
	Role           string
}

type Job struct {
	ID             string
	Title          string
	OrganizationID string
	Organization   *Organization
}

type Application struct {
	ID          string
	JobID       string
	CandidateID string
	RecruiterID string
	Stage       string
}

// ApplicationContext is the composite fetch used by the applications
// handler: the application joined with its job, candidate, and recruiter.
type ApplicationContext struct {
	Application *Application
	Job         *Job
	Candidate   *Candidate
	Recruiter   *Recruiter
}

type Placement struct {
	ID            string
	ApplicationID string
	JobID         string
	CandidateID   string
	RecruiterID   string
	Status        string
	Collaborators []Recruiter
}

type Invitation struct {
	ID              string
	Email           string
	OrganizationID  string
	Role            string
	InvitedByUserID string
	CreatedAt       time.Time
}

// ParticipantState mirrors the conversation_participants.state column.
const (
	ParticipantActive   = "active"
	ParticipantPending  = "pending"
	ParticipantDeclined = "declined"
)

// ConversationParticipant drives chat notification suppression: muted or
// archived conversations, and pending/declined request states, produce no
// notification at all.
type ConversationParticipant struct {
	ConversationID string
	UserID         string
	Muted          bool
	Archived       bool
	State          string
}

// Suppressed reports whether chat notifications to this participant are
// suppressed entirely.
func (p *ConversationParticipant) Suppressed() bool {
	return p.Muted || p.Archived || p.State == ParticipantPending || p.State == ParticipantDeclined
}
