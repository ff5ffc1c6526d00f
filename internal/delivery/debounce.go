package delivery

import (
	"context"
	"time"

	"github.com/splits-network/notifier/internal/repository"
)

// Clock abstracts wall-clock time so the debounce window is testable
// without sleeps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }

// Debouncer throttles bursty event streams to at most one email per
// (recipient, event type) within the window. The check is backed by the
// notification log itself, so it survives restarts.
type Debouncer struct {
	repo   repository.NotificationRepository
	window time.Duration
	clock  Clock
}

func NewDebouncer(repo repository.NotificationRepository, window time.Duration, clock Clock) *Debouncer {
	if clock == nil {
		clock = SystemClock()
	}
	return &Debouncer{repo: repo, window: window, clock: clock}
}

// Allow reports whether an email to this recipient for this event type may
// be sent now, i.e. no email-channel row exists within the window.
func (d *Debouncer) Allow(ctx context.Context, recipientEmail, eventType string) (bool, error) {
	cutoff := d.clock.Now().Add(-d.window)
	recent, err := d.repo.HasRecentEmail(ctx, recipientEmail, eventType, cutoff)
	if err != nil {
		return false, err
	}
	return !recent, nil
}
