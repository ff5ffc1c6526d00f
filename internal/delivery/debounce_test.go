package delivery

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/provider"
	"github.com/splits-network/notifier/internal/repository"
)

// fakeClock is a settable clock for window tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestDebouncerAllowsFirstEmail(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	clock := &fakeClock{now: time.Now().UTC()}
	d := NewDebouncer(repo, 10*time.Minute, clock)

	ok, err := d.Allow(context.Background(), "jordan@example.com", "message.created")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Fatal("first email should be allowed")
	}
}

func TestDebouncerBlocksWithinWindow(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	clock := &fakeClock{now: time.Now().UTC()}
	d := NewDebouncer(repo, 10*time.Minute, clock)
	email := NewEmail(repo, &provider.MockProvider{}, nil, zap.NewNop(), Hooks{})

	_, err := email.Send(context.Background(), EmailRequest{
		To:        contact("u1", "Jordan", "jordan@example.com"),
		Subject:   "New message",
		EventType: "message.created",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	clock.advance(5 * time.Minute)
	ok, err := d.Allow(context.Background(), "jordan@example.com", "message.created")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Error("email within the window should be debounced")
	}

	// A different event type for the same recipient is not debounced.
	ok, _ = d.Allow(context.Background(), "jordan@example.com", "billing.invoice_created")
	if !ok {
		t.Error("different event type should not be debounced")
	}

	// A different recipient for the same event type is not debounced.
	ok, _ = d.Allow(context.Background(), "sam@example.com", "message.created")
	if !ok {
		t.Error("different recipient should not be debounced")
	}
}

func TestDebouncerAllowsAfterWindow(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	clock := &fakeClock{now: time.Now().UTC()}
	d := NewDebouncer(repo, 10*time.Minute, clock)
	email := NewEmail(repo, &provider.MockProvider{}, nil, zap.NewNop(), Hooks{})

	_, err := email.Send(context.Background(), EmailRequest{
		To:        contact("u1", "Jordan", "jordan@example.com"),
		Subject:   "New message",
		EventType: "message.created",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	clock.advance(11 * time.Minute)
	ok, err := d.Allow(context.Background(), "jordan@example.com", "message.created")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Error("email after the window should be allowed")
	}
}
