package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splits-network/notifier/internal/domain"
)

type pgDirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewPgDirectoryRepository returns a DirectoryRepository backed by the
// shared PostgreSQL business schema. All queries are plain single-entity
// SELECTs; the notifier holds no locks and opens no transactions here.
func NewPgDirectoryRepository(pool *pgxpool.Pool) DirectoryRepository {
	return &pgDirectoryRepository{pool: pool}
}

func (r *pgDirectoryRepository) UserByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, external_auth_id, full_name, email, phone
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *pgDirectoryRepository) UserByExternalAuthID(ctx context.Context, externalID string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, external_auth_id, full_name, email, phone
		FROM users WHERE external_auth_id = $1`, externalID)
	return scanUser(row)
}

func (r *pgDirectoryRepository) RecruiterByID(ctx context.Context, id string) (*domain.Recruiter, error) {
	var rec domain.Recruiter
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, phone FROM recruiters WHERE id = $1`, id).
		Scan(&rec.ID, &rec.UserID, &rec.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recruiter: %w", err)
	}
	return &rec, nil
}

func (r *pgDirectoryRepository) CandidateByID(ctx context.Context, id string) (*domain.Candidate, error) {
	var c domain.Candidate
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, full_name, email FROM candidates WHERE id = $1`, id).
		Scan(&c.ID, &c.UserID, &c.FullName, &c.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return &c, nil
}

func (r *pgDirectoryRepository) OrganizationByID(ctx context.Context, id string) (*domain.Organization, error) {
	var o domain.Organization
	err := r.pool.QueryRow(ctx, `
		SELECT id, name FROM organizations WHERE id = $1`, id).
		Scan(&o.ID, &o.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

func (r *pgDirectoryRepository) OrgMembersByRole(ctx context.Context, orgID, role string) ([]*domain.OrgMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT organization_id, user_id, role
		FROM organization_members
		WHERE organization_id = $1 AND role = $2`, orgID, role)
	if err != nil {
		return nil, fmt.Errorf("list org members: %w", err)
	}
	defer rows.Close()

	var members []*domain.OrgMember
	for rows.Next() {
		var m domain.OrgMember
		if err := rows.Scan(&m.OrganizationID, &m.UserID, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *pgDirectoryRepository) JobByID(ctx context.Context, id string) (*domain.Job, error) {
	var j domain.Job
	var org domain.Organization
	err := r.pool.QueryRow(ctx, `
		SELECT j.id, j.title, j.organization_id, o.id, o.name
		FROM jobs j
		JOIN organizations o ON o.id = j.organization_id
		WHERE j.id = $1`, id).
		Scan(&j.ID, &j.Title, &j.OrganizationID, &org.ID, &org.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	j.Organization = &org
	return &j, nil
}

// ApplicationContext fetches the application joined with its job, candidate,
// and recruiter in one round trip.
func (r *pgDirectoryRepository) ApplicationContext(ctx context.Context, applicationID string) (*domain.ApplicationContext, error) {
	var (
		app  domain.Application
		job  domain.Job
		org  domain.Organization
		cand domain.Candidate
		rec  domain.Recruiter
	)
	err := r.pool.QueryRow(ctx, `
		SELECT a.id, a.job_id, a.candidate_id, a.recruiter_id, a.stage,
		       j.id, j.title, j.organization_id, o.id, o.name,
		       c.id, c.user_id, c.full_name, c.email,
		       r.id, r.user_id, r.phone
		FROM applications a
		JOIN jobs j          ON j.id = a.job_id
		JOIN organizations o ON o.id = j.organization_id
		JOIN candidates c    ON c.id = a.candidate_id
		JOIN recruiters r    ON r.id = a.recruiter_id
		WHERE a.id = $1`, applicationID).
		Scan(
			&app.ID, &app.JobID, &app.CandidateID, &app.RecruiterID, &app.Stage,
			&job.ID, &job.Title, &job.OrganizationID, &org.ID, &org.Name,
			&cand.ID, &cand.UserID, &cand.FullName, &cand.Email,
			&rec.ID, &rec.UserID, &rec.Phone,
		)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application context: %w", err)
	}
	job.Organization = &org
	return &domain.ApplicationContext{
		Application: &app,
		Job:         &job,
		Candidate:   &cand,
		Recruiter:   &rec,
	}, nil
}

func (r *pgDirectoryRepository) PlacementByID(ctx context.Context, id string) (*domain.Placement, error) {
	var p domain.Placement
	err := r.pool.QueryRow(ctx, `
		SELECT id, application_id, job_id, candidate_id, recruiter_id, status
		FROM placements WHERE id = $1`, id).
		Scan(&p.ID, &p.ApplicationID, &p.JobID, &p.CandidateID, &p.RecruiterID, &p.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get placement: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.user_id, r.phone
		FROM placement_collaborators pc
		JOIN recruiters r ON r.id = pc.recruiter_id
		WHERE pc.placement_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list placement collaborators: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.Recruiter
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Phone); err != nil {
			return nil, err
		}
		p.Collaborators = append(p.Collaborators, rec)
	}
	return &p, rows.Err()
}

func (r *pgDirectoryRepository) InvitationByID(ctx context.Context, id string) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, organization_id, role, invited_by_user_id, created_at
		FROM invitations WHERE id = $1`, id).
		Scan(&inv.ID, &inv.Email, &inv.OrganizationID, &inv.Role, &inv.InvitedByUserID, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return &inv, nil
}

func (r *pgDirectoryRepository) ConversationParticipant(ctx context.Context, conversationID, userID string) (*domain.ConversationParticipant, error) {
	var p domain.ConversationParticipant
	err := r.pool.QueryRow(ctx, `
		SELECT conversation_id, user_id, muted, archived, state
		FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2`, conversationID, userID).
		Scan(&p.ConversationID, &p.UserID, &p.Muted, &p.Archived, &p.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation participant: %w", err)
	}
	return &p, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.ExternalAuthID, &u.FullName, &u.Email, &u.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
