package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skillswap-backend/internal/api/identity"
	"skillswap-backend/internal/reviews"
	"skillswap-backend/internal/storage"
)

type ReviewService interface {
	Submit(ctx context.Context, input reviews.SubmitInput) (*storage.Review, error)
	ListForUser(ctx context.Context, subjectID uuid.UUID, limit int) ([]*storage.Review, error)
}

type ReviewHandler struct {
	service ReviewService
}

func NewReviewHandler(service ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

type SubmitReviewRequest struct {
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "session_id must be a valid UUID")
		return
	}

	review, err := h.service.Submit(r.Context(), reviews.SubmitInput{
		AuthorID:  id.UserID,
		SessionID: sessionID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	subjectID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "userID must be a valid UUID")
		return
	}

	userReviews, err := h.service.ListForUser(r.Context(), subjectID, queryInt(r, "limit", 20))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": userReviews})
}
