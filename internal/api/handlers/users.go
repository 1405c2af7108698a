package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skillswap-backend/internal/api/identity"
	"skillswap-backend/internal/match"
	"skillswap-backend/internal/storage"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *storage.User) error
	GetUser(ctx context.Context, userID uuid.UUID) (*storage.User, error)
	UpdateProfile(ctx context.Context, user *storage.User) error
	SearchUsers(ctx context.Context, filter storage.UserFilter) ([]*storage.User, error)
}

type MatchService interface {
	FindMatches(ctx context.Context, userID uuid.UUID, limit int) ([]match.Match, error)
}

type UserHandler struct {
	users   UserStore
	matches MatchService
}

func NewUserHandler(users UserStore, matches MatchService) *UserHandler {
	return &UserHandler{users: users, matches: matches}
}

type RegisterRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Bio         string   `json:"bio"`
	University  string   `json:"university"`
	City        string   `json:"city"`
	Role        string   `json:"role"`
	AvatarURL   string   `json:"avatar_url"`
	TeachSkills []string `json:"teach_skills"`
	LearnSkills []string `json:"learn_skills"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "name and email are required")
		return
	}
	if req.Role == "" {
		req.Role = storage.RoleStudent
	}
	if req.Role != storage.RoleStudent && req.Role != storage.RoleTutor {
		writeError(w, http.StatusBadRequest, "invalid_input", "role must be student or tutor")
		return
	}

	user := &storage.User{
		Name:        req.Name,
		Email:       req.Email,
		Bio:         req.Bio,
		University:  req.University,
		City:        req.City,
		Role:        req.Role,
		AvatarURL:   req.AvatarURL,
		TeachSkills: emptyIfNil(req.TeachSkills),
		LearnSkills: emptyIfNil(req.LearnSkills),
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "duplicate", "email already registered")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	h.getUser(w, r, id.UserID)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "userID must be a valid UUID")
		return
	}
	h.getUser(w, r, userID)
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Name        string   `json:"name"`
	Bio         string   `json:"bio"`
	University  string   `json:"university"`
	City        string   `json:"city"`
	AvatarURL   string   `json:"avatar_url"`
	TeachSkills []string `json:"teach_skills"`
	LearnSkills []string `json:"learn_skills"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "name is required")
		return
	}

	user := &storage.User{
		ID:          id.UserID,
		Name:        req.Name,
		Bio:         req.Bio,
		University:  req.University,
		City:        req.City,
		AvatarURL:   req.AvatarURL,
		TeachSkills: emptyIfNil(req.TeachSkills),
		LearnSkills: emptyIfNil(req.LearnSkills),
	}
	if err := h.users.UpdateProfile(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter := storage.UserFilter{
		Skill:  r.URL.Query().Get("skill"),
		City:   r.URL.Query().Get("city"),
		Role:   r.URL.Query().Get("role"),
		Limit:  queryInt(r, "limit", 20),
		Offset: queryInt(r, "offset", 0),
	}

	users, err := h.users.SearchUsers(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if users == nil {
		users = []*storage.User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *UserHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	matches, err := h.matches.FindMatches(r.Context(), id.UserID, queryInt(r, "limit", 20))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

func emptyIfNil(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}
