package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/directory"
	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/provider"
	"github.com/splits-network/notifier/internal/repository"
)

// testClock is a settable delivery.Clock.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// selectiveProvider fails sends to specific addresses so fan-out isolation
// can be observed.
type selectiveProvider struct {
	mu      sync.Mutex
	Sent    []provider.Message
	FailFor map[string]bool
}

func (p *selectiveProvider) Send(_ context.Context, msg provider.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailFor[msg.ToEmail] {
		return "", errors.New("550 rejected")
	}
	p.Sent = append(p.Sent, msg)
	return "msg-1", nil
}

var _ provider.EmailProvider = (*selectiveProvider)(nil)

// harness bundles the mocks behind one Deps value.
type harness struct {
	dir   *repository.MockDirectoryRepository
	notif *repository.MockNotificationRepository
	prov  *provider.MockProvider
	clock *testClock
	deps  Deps
}

func newHarness() *harness {
	h := &harness{
		dir:   repository.NewMockDirectoryRepository(),
		notif: repository.NewMockNotificationRepository(),
		prov:  &provider.MockProvider{},
		clock: &testClock{now: time.Now().UTC()},
	}
	h.deps = h.depsWith(h.prov)
	return h
}

func (h *harness) depsWith(p provider.EmailProvider) Deps {
	logger := zap.NewNop()
	return Deps{
		Resolver: directory.NewResolver(h.dir, logger),
		Lookup:   directory.NewLookup(h.dir, logger),
		Email:    delivery.NewEmail(h.notif, p, nil, logger, delivery.Hooks{}),
		InApp:    delivery.NewInApp(h.notif, logger, delivery.Hooks{}),
		Debounce: delivery.NewDebouncer(h.notif, 10*time.Minute, h.clock),
		Logger:   logger,
	}
}

func strPtr(s string) *string { return &s }

// seedApplication wires a full application context: job at org1, candidate c1
// linked to user u-cand, recruiter r1 linked to user u-rec.
func (h *harness) seedApplication(appID string) {
	h.dir.Users["u-cand"] = &domain.User{ID: "u-cand", FullName: "Jordan Reyes", Email: "jordan@example.com"}
	h.dir.Users["u-rec"] = &domain.User{ID: "u-rec", FullName: "Sam Okafor", Email: "sam@example.com"}
	h.dir.Recruiters["r1"] = &domain.Recruiter{ID: "r1", UserID: "u-rec"}
	cand := &domain.Candidate{ID: "c1", UserID: strPtr("u-cand"), FullName: "Jordan Reyes", Email: "jordan@example.com"}
	h.dir.Candidates["c1"] = cand
	job := &domain.Job{ID: "j1", Title: "Staff Engineer", OrganizationID: "org1"}
	h.dir.Jobs["j1"] = job
	h.dir.Applications[appID] = &domain.ApplicationContext{
		Application: &domain.Application{ID: appID, JobID: "j1", CandidateID: "c1", RecruiterID: "r1", Stage: "screening"},
		Job:         job,
		Candidate:   cand,
		Recruiter:   h.dir.Recruiters["r1"],
	}
}

func (h *harness) seedAdmins(orgID string, emails ...string) {
	for i, email := range emails {
		id := "u-admin-" + string(rune('a'+i))
		h.dir.Users[id] = &domain.User{ID: id, FullName: "Admin " + email, Email: email}
		h.dir.Members[orgID] = append(h.dir.Members[orgID], &domain.OrgMember{
			OrganizationID: orgID, UserID: id, Role: "admin",
		})
	}
}

// emailRows filters the stored rows down to the email channel.
func (h *harness) emailRows() []*domain.NotificationLog {
	var rows []*domain.NotificationLog
	for _, n := range h.notif.All() {
		if n.Channel == domain.ChannelEmail {
			rows = append(rows, n)
		}
	}
	return rows
}

func (h *harness) inAppRows() []*domain.NotificationLog {
	var rows []*domain.NotificationLog
	for _, n := range h.notif.All() {
		if n.Channel == domain.ChannelInApp {
			rows = append(rows, n)
		}
	}
	return rows
}
