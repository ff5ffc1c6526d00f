package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/repository"
)

func newTestServer(repo repository.NotificationRepository) http.Handler {
	r := chi.NewRouter()
	nh := NewNotificationHandler(repo, zap.NewNop())
	r.Patch("/notifications/mark-all-read", nh.MarkAllRead)
	r.Get("/notifications/{userId}", nh.Feed)
	r.Get("/notifications/{userId}/unread-count", nh.UnreadCount)
	r.Patch("/notifications/{id}/read", nh.MarkRead)
	r.Patch("/notifications/{id}/dismiss", nh.Dismiss)
	return r
}

func seedNotification(t *testing.T, repo *repository.MockNotificationRepository, id, userID string, read bool) {
	t.Helper()
	uid := userID
	err := repo.Create(context.Background(), &domain.NotificationLog{
		ID:              id,
		EventType:       "message.created",
		RecipientUserID: &uid,
		RecipientEmail:  userID + "@example.com",
		Subject:         "New message",
		Channel:         domain.ChannelInApp,
		Status:          domain.StatusSent,
		Read:            read,
		Priority:        domain.PriorityNormal,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

type dataEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorBody      `json:"error"`
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, dataEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env dataEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: bad response body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, env
}

func TestFeedReturnsEnvelope(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	seedNotification(t, repo, "n1", "u1", false)
	seedNotification(t, repo, "n2", "u1", true)
	srv := newTestServer(repo)

	rec, env := doRequest(t, srv, http.MethodGet, "/notifications/u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rows []domain.NotificationLog
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("data: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}

	rec, env = doRequest(t, srv, http.MethodGet, "/notifications/u1?unreadOnly=true", "")
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("data: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "n1" {
		t.Errorf("unreadOnly rows = %+v", rows)
	}
}

func TestFeedEmptyIsArrayNotNull(t *testing.T) {
	srv := newTestServer(repository.NewMockNotificationRepository())

	rec, _ := doRequest(t, srv, http.MethodGet, "/notifications/u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("empty feed must serialize as [], got %s", rec.Body.String())
	}
}

func TestUnreadCount(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	seedNotification(t, repo, "n1", "u1", false)
	seedNotification(t, repo, "n2", "u1", false)
	seedNotification(t, repo, "n3", "u1", true)
	srv := newTestServer(repo)

	_, env := doRequest(t, srv, http.MethodGet, "/notifications/u1/unread-count", "")
	var body map[string]int
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("data: %v", err)
	}
	if body["count"] != 2 {
		t.Errorf("count = %d, want 2", body["count"])
	}
}

func TestMarkReadRequiresUserID(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	seedNotification(t, repo, "n1", "u1", false)
	srv := newTestServer(repo)

	for _, body := range []string{"", "{}", `{"userId":""}`, "not json"} {
		rec, env := doRequest(t, srv, http.MethodPatch, "/notifications/n1/read", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
		if env.Error == nil || env.Error.Code != "missing_user_id" {
			t.Errorf("body %q: error = %+v", body, env.Error)
		}
	}
}

func TestMarkReadForeignUserGets404(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	seedNotification(t, repo, "n1", "u1", false)
	srv := newTestServer(repo)

	rec, env := doRequest(t, srv, http.MethodPatch, "/notifications/n1/read", `{"userId":"u2"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "not_found" {
		t.Errorf("error = %+v", env.Error)
	}

	n, err := repo.GetByID(context.Background(), "n1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if n.Read {
		t.Error("foreign request modified the row")
	}
}

func TestMarkReadOwner(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	seedNotification(t, repo, "n1", "u1", false)
	srv := newTestServer(repo)

	rec, env := doRequest(t, srv, http.MethodPatch, "/notifications/n1/read", `{"userId":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var n domain.NotificationLog
	if err := json.Unmarshal(env.Data, &n); err != nil {
		t.Fatalf("data: %v", err)
	}
	if !n.Read || n.ReadAt == nil {
		t.Errorf("row = %+v, want read with read_at", n)
	}
}

func TestMarkAllReadIsNotTreatedAsID(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	seedNotification(t, repo, "n1", "u1", false)
	seedNotification(t, repo, "n2", "u1", false)
	srv := newTestServer(repo)

	rec, env := doRequest(t, srv, http.MethodPatch, "/notifications/mark-all-read", `{"userId":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]bool
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("data: %v", err)
	}
	if !body["success"] {
		t.Error("expected success response")
	}

	count, _ := repo.UnreadCount(context.Background(), "u1")
	if count != 0 {
		t.Errorf("unread count = %d, want 0", count)
	}
}

func TestDismiss(t *testing.T) {
	repo := repository.NewMockNotificationRepository()
	seedNotification(t, repo, "n1", "u1", false)
	srv := newTestServer(repo)

	rec, env := doRequest(t, srv, http.MethodPatch, "/notifications/n1/dismiss", `{"userId":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var n domain.NotificationLog
	if err := json.Unmarshal(env.Data, &n); err != nil {
		t.Fatalf("data: %v", err)
	}
	if !n.Dismissed {
		t.Error("row not dismissed")
	}
}

type stubBroker struct{ connected bool }

func (s stubBroker) IsConnected() bool { return s.connected }

func TestHealthReportsBrokerState(t *testing.T) {
	for _, connected := range []bool{true, false} {
		h := NewHealthHandler(stubBroker{connected: connected})
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		h.Health(rec, req)

		// The probe never fails on broker loss; the HTTP surface still works.
		if rec.Code != http.StatusOK {
			t.Fatalf("connected=%v: status = %d", connected, rec.Code)
		}
		want := "connected"
		if !connected {
			want = "disconnected"
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("connected=%v: body = %s", connected, rec.Body.String())
		}
	}
}
