package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/splits-network/notifier/internal/domain"
)

// MockNotificationRepository is a hand-written, in-memory implementation of
// NotificationRepository used in unit tests. No mock-generation library needed.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*domain.NotificationLog
	order         []string // insertion order, for deterministic listing

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr   error
	MarkSentErr error
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		notifications: make(map[string]*domain.NotificationLog),
	}
}

func (m *MockNotificationRepository) Create(_ context.Context, n *domain.NotificationLog) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if !n.Channel.IsValid() {
		return domain.ErrInvalidChannel
	}
	if !n.Priority.IsValid() {
		return domain.ErrInvalidPriority
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *n
	m.notifications[n.ID] = &clone
	m.order = append(m.order, n.ID)
	return nil
}

func (m *MockNotificationRepository) GetByID(_ context.Context, id string) (*domain.NotificationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *n
	return &clone, nil
}

func (m *MockNotificationRepository) MarkSent(_ context.Context, id, providerMessageID string, sentAt time.Time) error {
	if m.MarkSentErr != nil {
		return m.MarkSentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok && n.Status.CanTransition(domain.StatusSent) {
		n.Status = domain.StatusSent
		n.ProviderMessageID = &providerMessageID
		n.SentAt = &sentAt
		n.ErrorMessage = nil
	}
	return nil
}

func (m *MockNotificationRepository) MarkFailed(_ context.Context, id, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok && n.Status.CanTransition(domain.StatusFailed) {
		n.Status = domain.StatusFailed
		n.ErrorMessage = &errMsg
	}
	return nil
}

func (m *MockNotificationRepository) Feed(_ context.Context, f domain.FeedFilter) ([]*domain.NotificationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.NotificationLog
	for _, id := range m.order {
		n := m.notifications[id]
		if n.RecipientUserID == nil || *n.RecipientUserID != f.UserID {
			continue
		}
		if !n.Channel.InApp() || n.Dismissed {
			continue
		}
		if f.UnreadOnly && n.Read {
			continue
		}
		clone := *n
		result = append(result, &clone)
	}

	// Unread first, then newest first.
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Read != result[j].Read {
			return !result[i].Read
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(result) {
			return nil, nil
		}
		result = result[f.Offset:]
	}
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func (m *MockNotificationRepository) UnreadCount(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.notifications {
		if n.RecipientUserID != nil && *n.RecipientUserID == userID &&
			n.Channel.InApp() && !n.Dismissed && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) MarkRead(_ context.Context, id, userID string) (*domain.NotificationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.RecipientUserID == nil || *n.RecipientUserID != userID {
		return nil, domain.ErrNotFound
	}
	if !n.Read {
		now := time.Now().UTC()
		n.Read = true
		n.ReadAt = &now
	}
	clone := *n
	return &clone, nil
}

func (m *MockNotificationRepository) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var affected int64
	now := time.Now().UTC()
	for _, n := range m.notifications {
		if n.RecipientUserID != nil && *n.RecipientUserID == userID &&
			n.Channel.InApp() && !n.Dismissed && !n.Read {
			n.Read = true
			n.ReadAt = &now
			affected++
		}
	}
	return affected, nil
}

func (m *MockNotificationRepository) Dismiss(_ context.Context, id, userID string) (*domain.NotificationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.RecipientUserID == nil || *n.RecipientUserID != userID {
		return nil, domain.ErrNotFound
	}
	n.Dismissed = true
	clone := *n
	return &clone, nil
}

func (m *MockNotificationRepository) HasRecentEmail(_ context.Context, recipientEmail, eventType string, after time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.notifications {
		if n.Channel == domain.ChannelEmail &&
			n.RecipientEmail == recipientEmail &&
			n.EventType == eventType &&
			n.CreatedAt.After(after) {
			return true, nil
		}
	}
	return false, nil
}

// All returns every stored row in insertion order. Test helper only.
func (m *MockNotificationRepository) All() []*domain.NotificationLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.NotificationLog, 0, len(m.order))
	for _, id := range m.order {
		clone := *m.notifications[id]
		result = append(result, &clone)
	}
	return result
}
