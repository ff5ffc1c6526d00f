package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/provider"
	"github.com/splits-network/notifier/internal/ratelimiter"
	"github.com/splits-network/notifier/internal/repository"
)

func contact(userID, name, email string) *domain.Contact {
	c := &domain.Contact{Name: name, Email: email, Type: domain.ContactUser}
	if userID != "" {
		c.ID = "user:" + userID
		c.UserID = &userID
	}
	return c
}

func TestEmailSendSuccess(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	prov := &provider.MockProvider{}
	email := NewEmail(repo, prov, nil, zap.NewNop(), Hooks{})

	n, err := email.Send(context.Background(), EmailRequest{
		To:        contact("u1", "Jordan Reyes", "jordan@example.com"),
		Subject:   "Interview scheduled",
		HTML:      "<p>hello</p>",
		EventType: "application.stage_changed",
		Template:  "application_stage_interview",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n.Status != domain.StatusSent {
		t.Errorf("status = %s, want sent", n.Status)
	}
	if n.ProviderMessageID == nil || *n.ProviderMessageID != "mock-msg-1" {
		t.Errorf("provider message id = %v, want mock-msg-1", n.ProviderMessageID)
	}
	if n.SentAt == nil {
		t.Error("sent_at not set")
	}
	if len(prov.Sent) != 1 {
		t.Fatalf("provider received %d messages, want 1", len(prov.Sent))
	}
	if prov.Sent[0].ToEmail != "jordan@example.com" {
		t.Errorf("provider recipient = %s", prov.Sent[0].ToEmail)
	}

	stored, err := repo.GetByID(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.StatusSent {
		t.Errorf("stored status = %s, want sent", stored.Status)
	}
}

func TestEmailSendProviderFailureMarksFailed(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	prov := &provider.MockProvider{Err: errors.New("550 mailbox unavailable")}
	email := NewEmail(repo, prov, nil, zap.NewNop(), Hooks{})

	n, err := email.Send(context.Background(), EmailRequest{
		To:        contact("u1", "Jordan Reyes", "jordan@example.com"),
		Subject:   "Subject",
		EventType: "application.submitted",
	})
	if err == nil {
		t.Fatal("expected error from failed provider send")
	}
	if n == nil {
		t.Fatal("failed send must still return the log row")
	}
	if n.Status != domain.StatusFailed {
		t.Errorf("status = %s, want failed", n.Status)
	}
	if n.ErrorMessage == nil || *n.ErrorMessage != "550 mailbox unavailable" {
		t.Errorf("error message = %v", n.ErrorMessage)
	}

	// The pending row was written before the provider call and then marked.
	stored, err := repo.GetByID(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.StatusFailed {
		t.Errorf("stored status = %s, want failed", stored.Status)
	}
}

func TestEmailSendRejectsInvalidRecipient(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	prov := &provider.MockProvider{}
	email := NewEmail(repo, prov, nil, zap.NewNop(), Hooks{})

	cases := []*domain.Contact{
		nil,
		contact("u1", "No Address", ""),
		contact("u1", "Bad Address", "not-an-email"),
	}
	for _, to := range cases {
		_, err := email.Send(context.Background(), EmailRequest{To: to, Subject: "x"})
		if !errors.Is(err, domain.ErrInvalidRecipient) {
			t.Errorf("To=%v: got %v, want ErrInvalidRecipient", to, err)
		}
	}
	if len(prov.Sent) != 0 {
		t.Errorf("provider called %d times for invalid recipients", len(prov.Sent))
	}
	if len(repo.All()) != 0 {
		t.Errorf("%d rows written for invalid recipients, want 0", len(repo.All()))
	}
}

func TestEmailSendCreateFailureSkipsProvider(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	repo.CreateErr = errors.New("connection refused")
	prov := &provider.MockProvider{}
	email := NewEmail(repo, prov, nil, zap.NewNop(), Hooks{})

	_, err := email.Send(context.Background(), EmailRequest{
		To:      contact("u1", "Jordan", "jordan@example.com"),
		Subject: "x",
	})
	if err == nil {
		t.Fatal("expected error when the pending row cannot be written")
	}
	// Write-then-send: no provider call without a durable pending row.
	if len(prov.Sent) != 0 {
		t.Errorf("provider called %d times despite failed write", len(prov.Sent))
	}
}

func TestEmailSendLimiterAbortMarksFailed(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	prov := &provider.MockProvider{}
	email := NewEmail(repo, prov, ratelimiter.New(1), zap.NewNop(), Hooks{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := email.Send(ctx, EmailRequest{
		To:      contact("u1", "Jordan", "jordan@example.com"),
		Subject: "x",
	})
	if err == nil {
		t.Fatal("expected error when the limiter wait is aborted")
	}
	if len(prov.Sent) != 0 {
		t.Fatalf("provider called %d times after aborted wait", len(prov.Sent))
	}
	// The row is not left dangling in pending.
	stored, getErr := repo.GetByID(context.Background(), n.ID)
	if getErr != nil {
		t.Fatalf("GetByID: %v", getErr)
	}
	if stored.Status != domain.StatusFailed {
		t.Errorf("stored status = %s, want failed", stored.Status)
	}
	if stored.ErrorMessage == nil {
		t.Error("error message not recorded")
	}
}

func TestEmailSendStaleMarkSentIsNotAFailure(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	repo.MarkSentErr = errors.New("connection reset")
	prov := &provider.MockProvider{}
	email := NewEmail(repo, prov, nil, zap.NewNop(), Hooks{})

	_, err := email.Send(context.Background(), EmailRequest{
		To:      contact("u1", "Jordan", "jordan@example.com"),
		Subject: "x",
	})
	// The provider accepted the message; a stale log row is not a send failure.
	if err != nil {
		t.Fatalf("Send returned %v after a successful provider call", err)
	}
	if len(prov.Sent) != 1 {
		t.Fatalf("provider received %d messages, want 1", len(prov.Sent))
	}
}

func TestEmailSendHooks(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	prov := &provider.MockProvider{}
	var sent, failed int
	email := NewEmail(repo, prov, nil, zap.NewNop(), Hooks{
		OnSent:   func(_ domain.Channel, _ time.Duration) { sent++ },
		OnFailed: func(domain.Channel) { failed++ },
	})

	_, _ = email.Send(context.Background(), EmailRequest{
		To: contact("u1", "A", "a@example.com"), Subject: "x",
	})
	prov.Err = errors.New("boom")
	_, _ = email.Send(context.Background(), EmailRequest{
		To: contact("u2", "B", "b@example.com"), Subject: "x",
	})

	if sent != 1 || failed != 1 {
		t.Errorf("hooks: sent=%d failed=%d, want 1/1", sent, failed)
	}
}
