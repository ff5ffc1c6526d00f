package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

func chatEnvelope(conversationID, recipientUserID string) events.Envelope {
	return events.Envelope{
		EventType: string(events.KindMessageCreated),
		Payload: events.Payload{
			"conversation_id":   conversationID,
			"recipient_user_id": recipientUserID,
			"sender_name":       "Sam Okafor",
			"message_preview":   "Are you free tomorrow?",
		},
	}
}

func (h *harness) seedConversation(conversationID, userID string, p domain.ConversationParticipant) {
	h.dir.Users[userID] = &domain.User{ID: userID, FullName: "Jordan Reyes", Email: "jordan@example.com"}
	p.ConversationID = conversationID
	p.UserID = userID
	h.dir.Participants[conversationID+"/"+userID] = &p
}

func TestMessageCreatedBurstDebouncesEmail(t *testing.T) {
	h := newHarness()
	h.seedConversation("conv1", "u1", domain.ConversationParticipant{State: domain.ParticipantActive})
	chat := NewChat(h.deps)

	// Two messages in quick succession.
	if err := chat.MessageCreated(context.Background(), chatEnvelope("conv1", "u1")); err != nil {
		t.Fatalf("first message: %v", err)
	}
	h.clock.advance(2 * time.Minute)
	if err := chat.MessageCreated(context.Background(), chatEnvelope("conv1", "u1")); err != nil {
		t.Fatalf("second message: %v", err)
	}

	// Every message gets an in-app row; only the first gets an email.
	if got := len(h.inAppRows()); got != 2 {
		t.Errorf("got %d in-app rows, want 2", got)
	}
	if got := len(h.emailRows()); got != 1 {
		t.Errorf("got %d email rows, want 1 (second debounced)", got)
	}
}

func TestMessageCreatedEmailResumesAfterWindow(t *testing.T) {
	h := newHarness()
	h.seedConversation("conv1", "u1", domain.ConversationParticipant{State: domain.ParticipantActive})
	chat := NewChat(h.deps)

	if err := chat.MessageCreated(context.Background(), chatEnvelope("conv1", "u1")); err != nil {
		t.Fatalf("first message: %v", err)
	}
	h.clock.advance(11 * time.Minute)
	if err := chat.MessageCreated(context.Background(), chatEnvelope("conv1", "u1")); err != nil {
		t.Fatalf("second message: %v", err)
	}

	if got := len(h.emailRows()); got != 2 {
		t.Errorf("got %d email rows, want 2 (window elapsed)", got)
	}
}

func TestMessageCreatedSuppressedParticipants(t *testing.T) {
	cases := []struct {
		name string
		p    domain.ConversationParticipant
	}{
		{"muted", domain.ConversationParticipant{Muted: true, State: domain.ParticipantActive}},
		{"archived", domain.ConversationParticipant{Archived: true, State: domain.ParticipantActive}},
		{"pending request", domain.ConversationParticipant{State: domain.ParticipantPending}},
		{"declined request", domain.ConversationParticipant{State: domain.ParticipantDeclined}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHarness()
			h.seedConversation("conv1", "u1", c.p)
			chat := NewChat(h.deps)

			if err := chat.MessageCreated(context.Background(), chatEnvelope("conv1", "u1")); err != nil {
				t.Fatalf("suppression must be silent, got %v", err)
			}
			if got := len(h.notif.All()); got != 0 {
				t.Errorf("got %d rows, want 0", got)
			}
		})
	}
}

func TestMessageCreatedUnknownParticipantIsSilent(t *testing.T) {
	h := newHarness()
	chat := NewChat(h.deps)

	if err := chat.MessageCreated(context.Background(), chatEnvelope("conv1", "ghost")); err != nil {
		t.Fatalf("missing participant must be silent, got %v", err)
	}
	if got := len(h.notif.All()); got != 0 {
		t.Errorf("got %d rows, want 0", got)
	}
}

func TestMessageCreatedMissingFields(t *testing.T) {
	h := newHarness()
	chat := NewChat(h.deps)

	err := chat.MessageCreated(context.Background(), events.Envelope{
		EventType: string(events.KindMessageCreated),
		Payload:   events.Payload{"recipient_user_id": "u1"},
	})
	if err == nil {
		t.Fatal("expected error for missing conversation_id")
	}
	err = chat.MessageCreated(context.Background(), events.Envelope{
		EventType: string(events.KindMessageCreated),
		Payload:   events.Payload{"conversation_id": "conv1"},
	})
	if err == nil {
		t.Fatal("expected error for missing recipient_user_id")
	}
}
