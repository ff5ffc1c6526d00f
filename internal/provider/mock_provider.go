package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider records sends in memory for tests.
type MockProvider struct {
	mu    sync.Mutex
	Sent  []Message
	Err   error  // returned by every Send when set
	MsgID string // message id to return; defaults to "mock-msg-1", "mock-msg-2", …
}

func (m *MockProvider) Send(_ context.Context, msg Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Sent = append(m.Sent, msg)
	if m.MsgID != "" {
		return m.MsgID, nil
	}
	return fmt.Sprintf("mock-msg-%d", len(m.Sent)), nil
}

var _ EmailProvider = (*MockProvider)(nil)
