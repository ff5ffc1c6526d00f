package repository

import (
	"context"
	"sync"

	"github.com/splits-network/notifier/internal/domain"
)

// MockDirectoryRepository is an in-memory DirectoryRepository for tests.
// Populate the maps directly; missing keys behave like missing rows.
type MockDirectoryRepository struct {
	mu sync.RWMutex

	Users        map[string]*domain.User // keyed by id
	Recruiters   map[string]*domain.Recruiter
	Candidates   map[string]*domain.Candidate
	Orgs         map[string]*domain.Organization
	Members      map[string][]*domain.OrgMember // keyed by org id
	Jobs         map[string]*domain.Job
	Applications map[string]*domain.ApplicationContext
	Placements   map[string]*domain.Placement
	Invitations  map[string]*domain.Invitation
	Participants map[string]*domain.ConversationParticipant // keyed by convID+"/"+userID
}

func NewMockDirectoryRepository() *MockDirectoryRepository {
	return &MockDirectoryRepository{
		Users:        make(map[string]*domain.User),
		Recruiters:   make(map[string]*domain.Recruiter),
		Candidates:   make(map[string]*domain.Candidate),
		Orgs:         make(map[string]*domain.Organization),
		Members:      make(map[string][]*domain.OrgMember),
		Jobs:         make(map[string]*domain.Job),
		Applications: make(map[string]*domain.ApplicationContext),
		Placements:   make(map[string]*domain.Placement),
		Invitations:  make(map[string]*domain.Invitation),
		Participants: make(map[string]*domain.ConversationParticipant),
	}
}

func (m *MockDirectoryRepository) UserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.Users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockDirectoryRepository) UserByExternalAuthID(_ context.Context, externalID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.Users {
		if u.ExternalAuthID == externalID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDirectoryRepository) RecruiterByID(_ context.Context, id string) (*domain.Recruiter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.Recruiters[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockDirectoryRepository) CandidateByID(_ context.Context, id string) (*domain.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.Candidates[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockDirectoryRepository) OrganizationByID(_ context.Context, id string) (*domain.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.Orgs[id]; ok {
		clone := *o
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockDirectoryRepository) OrgMembersByRole(_ context.Context, orgID, role string) ([]*domain.OrgMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.OrgMember
	for _, member := range m.Members[orgID] {
		if member.Role == role {
			clone := *member
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockDirectoryRepository) JobByID(_ context.Context, id string) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if j, ok := m.Jobs[id]; ok {
		clone := *j
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockDirectoryRepository) ApplicationContext(_ context.Context, applicationID string) (*domain.ApplicationContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if actx, ok := m.Applications[applicationID]; ok {
		clone := *actx
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockDirectoryRepository) PlacementByID(_ context.Context, id string) (*domain.Placement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.Placements[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockDirectoryRepository) InvitationByID(_ context.Context, id string) (*domain.Invitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inv, ok := m.Invitations[id]; ok {
		clone := *inv
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockDirectoryRepository) ConversationParticipant(_ context.Context, conversationID, userID string) (*domain.ConversationParticipant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.Participants[conversationID+"/"+userID]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}
