package directory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/repository"
)

// Lookup provides read-only accessors for the business entities needed to
// compose notification content. Each accessor returns (nil, nil) when the
// entity does not exist; the caller decides whether that aborts the handler
// (essential entity) or skips a secondary recipient.
type Lookup struct {
	repo   repository.DirectoryRepository
	logger *zap.Logger
}

func NewLookup(repo repository.DirectoryRepository, logger *zap.Logger) *Lookup {
	return &Lookup{repo: repo, logger: logger}
}

func (l *Lookup) Job(ctx context.Context, id string) (*domain.Job, error) {
	j, err := l.repo.JobByID(ctx, id)
	return j, l.missing(err, "job", id)
}

func (l *Lookup) Candidate(ctx context.Context, id string) (*domain.Candidate, error) {
	c, err := l.repo.CandidateByID(ctx, id)
	return c, l.missing(err, "candidate", id)
}

func (l *Lookup) Recruiter(ctx context.Context, id string) (*domain.Recruiter, error) {
	r, err := l.repo.RecruiterByID(ctx, id)
	return r, l.missing(err, "recruiter", id)
}

func (l *Lookup) User(ctx context.Context, id string) (*domain.User, error) {
	u, err := l.repo.UserByID(ctx, id)
	return u, l.missing(err, "user", id)
}

func (l *Lookup) Organization(ctx context.Context, id string) (*domain.Organization, error) {
	o, err := l.repo.OrganizationByID(ctx, id)
	return o, l.missing(err, "organization", id)
}

func (l *Lookup) Invitation(ctx context.Context, id string) (*domain.Invitation, error) {
	inv, err := l.repo.InvitationByID(ctx, id)
	return inv, l.missing(err, "invitation", id)
}

// Placement returns the placement with its collaborators preloaded.
func (l *Lookup) Placement(ctx context.Context, id string) (*domain.Placement, error) {
	p, err := l.repo.PlacementByID(ctx, id)
	return p, l.missing(err, "placement", id)
}

// Application returns the composite application context (application, job,
// candidate, recruiter) in one fetch.
func (l *Lookup) Application(ctx context.Context, id string) (*domain.ApplicationContext, error) {
	actx, err := l.repo.ApplicationContext(ctx, id)
	return actx, l.missing(err, "application", id)
}

func (l *Lookup) ConversationParticipant(ctx context.Context, conversationID, userID string) (*domain.ConversationParticipant, error) {
	p, err := l.repo.ConversationParticipant(ctx, conversationID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		l.logger.Warn("lookup: conversation participant not found",
			zap.String("conversation_id", conversationID), zap.String("user_id", userID))
		return nil, nil
	}
	return p, err
}

// missing converts ErrNotFound to nil (with a warning) and wraps real errors.
func (l *Lookup) missing(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		l.logger.Warn("lookup: entity not found",
			zap.String("entity", entity), zap.String("id", id))
		return nil
	}
	return fmt.Errorf("lookup %s %s: %w", entity, id, err)
}
