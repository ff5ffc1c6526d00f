package repository

import (
	"context"

	"github.com/splits-network/notifier/internal/domain"
)

// DirectoryRepository is the read-only view of the business schema the
// notifier needs to resolve recipients and compose content. Every method
// returns domain.ErrNotFound when the entity does not exist; the directory
// layer decides whether that aborts a handler or merely skips a recipient.
type DirectoryRepository interface {
	UserByID(ctx context.Context, id string) (*domain.User, error)
	UserByExternalAuthID(ctx context.Context, externalID string) (*domain.User, error)
	RecruiterByID(ctx context.Context, id string) (*domain.Recruiter, error)
	CandidateByID(ctx context.Context, id string) (*domain.Candidate, error)
	OrganizationByID(ctx context.Context, id string) (*domain.Organization, error)
	OrgMembersByRole(ctx context.Context, orgID, role string) ([]*domain.OrgMember, error)
	JobByID(ctx context.Context, id string) (*domain.Job, error)
	ApplicationContext(ctx context.Context, applicationID string) (*domain.ApplicationContext, error)
	PlacementByID(ctx context.Context, id string) (*domain.Placement, error)
	InvitationByID(ctx context.Context, id string) (*domain.Invitation, error)
	ConversationParticipant(ctx context.Context, conversationID, userID string) (*domain.ConversationParticipant, error)
}
