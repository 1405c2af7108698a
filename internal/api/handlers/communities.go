package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skillswap-backend/internal/api/identity"
	"skillswap-backend/internal/storage"
)

type CommunityStore interface {
	CreateCommunity(ctx context.Context, community *storage.Community) error
	GetCommunity(ctx context.Context, communityID uuid.UUID) (*storage.Community, error)
	ListCommunities(ctx context.Context, limit int) ([]*storage.Community, error)
	JoinCommunity(ctx context.Context, communityID, userID uuid.UUID) error
	LeaveCommunity(ctx context.Context, communityID, userID uuid.UUID) error
}

type CommunityHandler struct {
	communities CommunityStore
}

func NewCommunityHandler(communities CommunityStore) *CommunityHandler {
	return &CommunityHandler{communities: communities}
}

type CreateCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req CreateCommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "name is required")
		return
	}

	community := &storage.Community{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   id.UserID,
	}
	if err := h.communities.CreateCommunity(r.Context(), community); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "duplicate", "community name already taken")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, community)
}

func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	communities, err := h.communities.ListCommunities(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if communities == nil {
		communities = []*storage.Community{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"communities": communities})
}

func (h *CommunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	communityID, err := h.communityID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "communityID must be a valid UUID")
		return
	}

	community, err := h.communities.GetCommunity(r.Context(), communityID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "community not found")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, community)
}

func (h *CommunityHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	communityID, err := h.communityID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "communityID must be a valid UUID")
		return
	}

	if err := h.communities.JoinCommunity(r.Context(), communityID, id.UserID); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "duplicate", "already a member")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

func (h *CommunityHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	communityID, err := h.communityID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "communityID must be a valid UUID")
		return
	}

	if err := h.communities.LeaveCommunity(r.Context(), communityID, id.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "not a member")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (h *CommunityHandler) communityID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "communityID"))
}
