package domain

// ContactType says which kind of entity a contact was resolved from.
type ContactType string

const (
	ContactUser         ContactType = "user"
	ContactRecruiter    ContactType = "recruiter"
	ContactCandidate    ContactType = "candidate"
	ContactCompanyAdmin ContactType = "company_admin"
)

// Contact is the unified recipient projection produced by the resolver.
// It is computed on demand and never persisted. UserID is nil for legacy
// contacts (e.g. candidates without a linked account); such recipients can
// still receive email but have no in-app feed.
type Contact struct {
	ID       string      `json:"id"`
	UserID   *string     `json:"user_id,omitempty"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Phone    *string     `json:"phone,omitempty"`
	Type     ContactType `json:"type"`
	EntityID string      `json:"entity_id"`
}
