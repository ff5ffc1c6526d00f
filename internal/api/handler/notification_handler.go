package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/repository"
)

// NotificationHandler serves the in-app feed query surface consumed by the
// presentation tier. Every mutation is scoped to the requesting user: a
// request naming another user's notification id affects zero rows.
type NotificationHandler struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
}

func NewNotificationHandler(repo repository.NotificationRepository, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{repo: repo, logger: logger}
}

// userIDBody is the body shape of all PATCH endpoints.
type userIDBody struct {
	UserID string `json:"userId"`
}

func decodeUserID(r *http.Request) (string, error) {
	var body userIDBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		return "", domain.ErrMissingUserID
	}
	return body.UserID, nil
}

// Feed handles GET /notifications/{userId}
func (h *NotificationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		mapError(w, domain.ErrMissingUserID)
		return
	}

	filter := domain.FeedFilter{UserID: userID, Limit: 20}
	q := r.URL.Query()
	if q.Get("unreadOnly") == "true" {
		filter.UnreadOnly = true
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	if o, err := strconv.Atoi(q.Get("offset")); err == nil && o >= 0 {
		filter.Offset = o
	}

	notifications, err := h.repo.Feed(r.Context(), filter)
	if err != nil {
		h.logger.Error("feed query failed", zap.String("user_id", userID), zap.Error(err))
		mapError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*domain.NotificationLog{}
	}
	respondData(w, http.StatusOK, notifications)
}

// UnreadCount handles GET /notifications/{userId}/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		mapError(w, domain.ErrMissingUserID)
		return
	}

	count, err := h.repo.UnreadCount(r.Context(), userID)
	if err != nil {
		h.logger.Error("unread count failed", zap.String("user_id", userID), zap.Error(err))
		mapError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int{"count": count})
}

// MarkRead handles PATCH /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := decodeUserID(r)
	if err != nil {
		mapError(w, err)
		return
	}

	n, err := h.repo.MarkRead(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondData(w, http.StatusOK, n)
}

// MarkAllRead handles PATCH /notifications/mark-all-read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := decodeUserID(r)
	if err != nil {
		mapError(w, err)
		return
	}

	if _, err := h.repo.MarkAllRead(r.Context(), userID); err != nil {
		h.logger.Error("mark all read failed", zap.String("user_id", userID), zap.Error(err))
		mapError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"success": true})
}

// Dismiss handles PATCH /notifications/{id}/dismiss
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	userID, err := decodeUserID(r)
	if err != nil {
		mapError(w, err)
		return
	}

	n, err := h.repo.Dismiss(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondData(w, http.StatusOK, n)
}
