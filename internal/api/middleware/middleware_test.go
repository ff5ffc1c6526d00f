package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDKeepsInboundID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/notifications/u1", nil)
	req.Header.Set(HeaderRequestID, "gw-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "gw-123" {
		t.Errorf("context id = %q, want gw-123", seen)
	}
	if got := rec.Header().Get(HeaderRequestID); got != "gw-123" {
		t.Errorf("echoed id = %q, want gw-123", got)
	}
}

func TestRequestIDMintsWhenAbsent(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatal("no id minted")
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("response id %q differs from context id %q", got, seen)
	}
}

func TestRequestIDFromWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestIDFrom(req.Context()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestRequestLoggerRecordsStatusAndID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	h := RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"not_found"}}`))
	})))

	req := httptest.NewRequest(http.MethodPatch, "/notifications/n1/read", nil)
	req.Header.Set(HeaderRequestID, "gw-456")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("status field = %v, want 404", fields["status"])
	}
	if fields["request_id"] != "gw-456" {
		t.Errorf("request_id field = %v, want gw-456", fields["request_id"])
	}
	if fields["bytes"] == int64(0) {
		t.Error("bytes field not recorded")
	}
}
