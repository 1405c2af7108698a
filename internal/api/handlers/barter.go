package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skillswap-backend/internal/api/identity"
	"skillswap-backend/internal/barter"
)

type BarterService interface {
	Propose(ctx context.Context, input barter.ProposeInput) (barter.View, error)
	Accept(ctx context.Context, sessionID, actorID uuid.UUID) (barter.View, error)
	Reject(ctx context.Context, sessionID, actorID uuid.UUID) (barter.View, error)
	Complete(ctx context.Context, sessionID, actorID uuid.UUID) (barter.View, error)
	Get(ctx context.Context, sessionID, viewerID uuid.UUID) (barter.View, error)
	List(ctx context.Context, viewerID uuid.UUID, limit int) ([]barter.View, error)
}

type BarterHandler struct {
	service BarterService
}

func NewBarterHandler(service BarterService) *BarterHandler {
	return &BarterHandler{service: service}
}

type ProposeRequest struct {
	ProviderID string `json:"provider_id"`
	Skill      string `json:"skill"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

func (h *BarterHandler) Propose(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "provider_id must be a valid UUID")
		return
	}

	view, err := h.service.Propose(r.Context(), barter.ProposeInput{
		RequesterID: id.UserID,
		ProviderID:  providerID,
		Skill:       req.Skill,
		Date:        req.Date,
		Time:        req.Time,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *BarterHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Get)
}

func (h *BarterHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Accept)
}

func (h *BarterHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Reject)
}

func (h *BarterHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Complete)
}

func (h *BarterHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	views, err := h.service.List(r.Context(), id.UserID, queryInt(r, "limit", 50))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": views})
}

// act runs one of the single-session operations keyed by the sessionID URL
// param.
func (h *BarterHandler) act(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, uuid.UUID) (barter.View, error)) {
	id, _ := identity.FromContext(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "sessionID must be a valid UUID")
		return
	}

	view, err := op(r.Context(), sessionID, id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
