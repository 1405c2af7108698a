package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skillswap-backend/internal/api/identity"
	"skillswap-backend/internal/storage"
)

type ModerationStore interface {
	SetUserBlocked(ctx context.Context, userID uuid.UUID, blocked bool) error
	SetUserVerified(ctx context.Context, userID uuid.UUID, verified bool) error
	IncrementReportCount(ctx context.Context, userID uuid.UUID) (int, error)
	ListReportedUsers(ctx context.Context, minReports int) ([]*storage.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type AdminHandler struct {
	moderation ModerationStore
}

func NewAdminHandler(moderation ModerationStore) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

// Report is the one moderation action open to everyone.
func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "userID must be a valid UUID")
		return
	}
	if userID == id.UserID {
		writeError(w, http.StatusBadRequest, "invalid_input", "cannot report yourself")
		return
	}

	count, err := h.moderation.IncrementReportCount(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	log.Printf("[ADMIN] user %s reported by %s (count now %d)", userID, id.UserID, count)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "reported", "report_count": count})
}

func (h *AdminHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

func (h *AdminHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *AdminHandler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "userID must be a valid UUID")
		return
	}

	if err := h.moderation.SetUserBlocked(r.Context(), userID, blocked); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	status := "unblocked"
	if blocked {
		status = "blocked"
	}
	log.Printf("[ADMIN] user %s %s", userID, status)
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "userID must be a valid UUID")
		return
	}

	if err := h.moderation.SetUserVerified(r.Context(), userID, true); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *AdminHandler) ListReported(w http.ResponseWriter, r *http.Request) {
	users, err := h.moderation.ListReportedUsers(r.Context(), queryInt(r, "min_reports", 1))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if users == nil {
		users = []*storage.User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "userID must be a valid UUID")
		return
	}

	if err := h.moderation.DeleteUser(r.Context(), userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	log.Printf("[ADMIN] user %s deleted", userID)
	w.WriteHeader(http.StatusNoContent)
}
