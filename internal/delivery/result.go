package delivery

import "github.com/splits-network/notifier/internal/domain"

// Result is the outcome of one recipient's delivery attempt during fan-out.
// Attempts are independent: one recipient's failure never aborts siblings.
type Result struct {
	Recipient *domain.Contact
	Log       *domain.NotificationLog
	Err       error
}

// Results collects the per-recipient outcomes of one fan-out.
type Results []Result

func (rs Results) Sent() int {
	n := 0
	for _, r := range rs {
		if r.Err == nil {
			n++
		}
	}
	return n
}

func (rs Results) Failed() int { return len(rs) - rs.Sent() }

// AllFailed reports whether every attempt failed. Handlers treat this as a
// handler-level failure; partial success is success.
func (rs Results) AllFailed() bool {
	return len(rs) > 0 && rs.Sent() == 0
}

// FirstErr returns the first recorded error, for error wrapping.
func (rs Results) FirstErr() error {
	for _, r := range rs {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
