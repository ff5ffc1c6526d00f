package domain

import "time"

// Channel is how a notification reaches its recipient.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelInApp Channel = "in_app"
	ChannelBoth  Channel = "both"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelInApp, ChannelBoth:
		return true
	}
	return false
}

// InApp reports whether rows on this channel appear in the in-app feed.
func (c Channel) InApp() bool {
	return c == ChannelInApp || c == ChannelBoth
}

// Priority orders the in-app feed and drives client-side styling.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Status tracks the lifecycle of one delivery attempt.
// Pending is the only non-terminal state: a row moves pending→sent or
// pending→failed exactly once and never reverses.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// CanTransition reports whether a status change is legal.
func (s Status) CanTransition(to Status) bool {
	return s == StatusPending && (to == StatusSent || to == StatusFailed)
}

// NotificationLog is the durable record of one delivery attempt.
// Rows are written in status=pending before any external call is made, so
// every attempt is recorded even if the process dies mid-send.
type NotificationLog struct {
	ID                string         `json:"id"`
	EventType         string         `json:"event_type"`
	RecipientUserID   *string        `json:"recipient_user_id,omitempty"`
	RecipientEmail    string         `json:"recipient_email"`
	Subject           string         `json:"subject"`
	Template          string         `json:"template"`
	Payload           map[string]any `json:"payload,omitempty"`
	Channel           Channel        `json:"channel"`
	Status            Status         `json:"status"`
	Read              bool           `json:"read"`
	Dismissed         bool           `json:"dismissed"`
	Priority          Priority       `json:"priority"`
	Category          string         `json:"category,omitempty"`
	ActionURL         string         `json:"action_url,omitempty"`
	ActionLabel       string         `json:"action_label,omitempty"`
	ProviderMessageID *string        `json:"provider_message_id,omitempty"`
	ErrorMessage      *string        `json:"error_message,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	SentAt            *time.Time     `json:"sent_at,omitempty"`
	ReadAt            *time.Time     `json:"read_at,omitempty"`
}

// FeedFilter holds query parameters for a user's in-app feed.
// The feed only contains non-dismissed rows on the in_app or both channels.
type FeedFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}
