package directory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/repository"
)

// Resolver maps entity identifiers to unified Contact projections.
// A missing entity or missing email is reported as (nil, nil) with a warning
// log: it means "cannot notify this recipient", not a hard failure. Real
// datastore errors are returned as errors.
//
// Resolution always prefers a linked user account's canonical name and email
// over denormalized copies on the source entity.
type Resolver struct {
	repo   repository.DirectoryRepository
	logger *zap.Logger
}

func NewResolver(repo repository.DirectoryRepository, logger *zap.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// ByUserID resolves an internal user id to a Contact of type user.
func (r *Resolver) ByUserID(ctx context.Context, userID string) (*domain.Contact, error) {
	u, err := r.repo.UserByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn("contact resolution: user not found", zap.String("user_id", userID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user %s: %w", userID, err)
	}
	return userContact(u, domain.ContactUser, userID), nil
}

// ByExternalAuthID resolves an identity-provider id to a Contact of type user.
func (r *Resolver) ByExternalAuthID(ctx context.Context, externalID string) (*domain.Contact, error) {
	u, err := r.repo.UserByExternalAuthID(ctx, externalID)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn("contact resolution: no user for external id", zap.String("external_auth_id", externalID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve external id %s: %w", externalID, err)
	}
	return userContact(u, domain.ContactUser, externalID), nil
}

// ByRecruiterID resolves a recruiter through its linked user account.
// The contact carries the recruiter's phone when present.
func (r *Resolver) ByRecruiterID(ctx context.Context, recruiterID string) (*domain.Contact, error) {
	rec, err := r.repo.RecruiterByID(ctx, recruiterID)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn("contact resolution: recruiter not found", zap.String("recruiter_id", recruiterID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve recruiter %s: %w", recruiterID, err)
	}

	u, err := r.repo.UserByID(ctx, rec.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn("contact resolution: recruiter has no user account",
			zap.String("recruiter_id", recruiterID), zap.String("user_id", rec.UserID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve recruiter user %s: %w", rec.UserID, err)
	}

	c := userContact(u, domain.ContactRecruiter, recruiterID)
	if rec.Phone != nil {
		c.Phone = rec.Phone
	}
	return c, nil
}

// ByCandidateID resolves a candidate, preferring the linked user account's
// canonical name and email. A candidate without a linked account falls back
// to its own denormalized fields and has a nil UserID.
func (r *Resolver) ByCandidateID(ctx context.Context, candidateID string) (*domain.Contact, error) {
	cand, err := r.repo.CandidateByID(ctx, candidateID)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn("contact resolution: candidate not found", zap.String("candidate_id", candidateID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve candidate %s: %w", candidateID, err)
	}
	return r.CandidateContact(ctx, cand)
}

// CandidateContact applies the linked-account preference to an already
// fetched candidate row.
func (r *Resolver) CandidateContact(ctx context.Context, cand *domain.Candidate) (*domain.Contact, error) {
	if cand.UserID != nil {
		u, err := r.repo.UserByID(ctx, *cand.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("resolve candidate user %s: %w", *cand.UserID, err)
		}
		if u != nil {
			c := userContact(u, domain.ContactCandidate, cand.ID)
			return c, nil
		}
	}

	// Legacy candidate without an account: denormalized fields only.
	if cand.Email == "" {
		r.logger.Warn("contact resolution: candidate has no resolvable email",
			zap.String("candidate_id", cand.ID))
		return nil, nil
	}
	return &domain.Contact{
		ID:       "candidate:" + cand.ID,
		Name:     cand.FullName,
		Email:    cand.Email,
		Type:     domain.ContactCandidate,
		EntityID: cand.ID,
	}, nil
}

// ByOrgRole resolves every member of an organization holding the given role.
// Members without a resolvable email are silently skipped; their absence is
// expected, not an error.
func (r *Resolver) ByOrgRole(ctx context.Context, orgID, role string) ([]*domain.Contact, error) {
	members, err := r.repo.OrgMembersByRole(ctx, orgID, role)
	if err != nil {
		return nil, fmt.Errorf("resolve org %s members: %w", orgID, err)
	}

	var contacts []*domain.Contact
	for _, member := range members {
		u, err := r.repo.UserByID(ctx, member.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve org member %s: %w", member.UserID, err)
		}
		if u.Email == "" {
			continue
		}
		contacts = append(contacts, userContact(u, domain.ContactCompanyAdmin, orgID))
	}
	if len(contacts) == 0 {
		r.logger.Warn("contact resolution: no members with resolvable email",
			zap.String("organization_id", orgID), zap.String("role", role))
	}
	return contacts, nil
}

func userContact(u *domain.User, t domain.ContactType, entityID string) *domain.Contact {
	userID := u.ID
	return &domain.Contact{
		ID:       string(t) + ":" + u.ID,
		UserID:   &userID,
		Name:     u.FullName,
		Email:    u.Email,
		Phone:    u.Phone,
		Type:     t,
		EntityID: entityID,
	}
}
