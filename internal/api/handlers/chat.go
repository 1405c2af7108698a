package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skillswap-backend/internal/api/identity"
	"skillswap-backend/internal/chat"
	"skillswap-backend/internal/storage"
)

type ChatService interface {
	SendMessage(ctx context.Context, input chat.SendInput) (*storage.Message, error)
	History(ctx context.Context, userID, partnerID uuid.UUID, limit int) ([]*storage.Message, error)
	MarkRead(ctx context.Context, userID, partnerID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]storage.ConversationSummary, error)
	EditMessage(ctx context.Context, actorID, messageID uuid.UUID, content string) (*storage.Message, error)
	DeleteMessage(ctx context.Context, actorID, messageID uuid.UUID) error
}

type ChatHandler struct {
	service ChatService
}

func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	FileURL    string `json:"file_url"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "receiver_id must be a valid UUID")
		return
	}

	msg, err := h.service.SendMessage(r.Context(), chat.SendInput{
		SenderID:   id.UserID,
		ReceiverID: receiverID,
		Type:       req.Type,
		Content:    req.Content,
		FileURL:    req.FileURL,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	summaries, err := h.service.ListConversations(r.Context(), id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": summaries})
}

// History returns one conversation's messages; fetching it marks the
// partner's messages as read.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	partnerID, err := uuid.Parse(chi.URLParam(r, "partnerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "partnerID must be a valid UUID")
		return
	}

	messages, err := h.service.History(r.Context(), id.UserID, partnerID, queryInt(r, "limit", 50))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if messages == nil {
		messages = []*storage.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	partnerID, err := uuid.Parse(chi.URLParam(r, "partnerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "partnerID must be a valid UUID")
		return
	}

	marked, err := h.service.MarkRead(r.Context(), id.UserID, partnerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked_read": marked})
}

func (h *ChatHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	count, err := h.service.UnreadCount(r.Context(), id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

type EditMessageRequest struct {
	Content string `json:"content"`
}

func (h *ChatHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "messageID must be a valid UUID")
		return
	}

	var req EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	msg, err := h.service.EditMessage(r.Context(), id.UserID, messageID, req.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "messageID must be a valid UUID")
		return
	}

	if err := h.service.DeleteMessage(r.Context(), id.UserID, messageID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}
