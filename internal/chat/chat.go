// Package chat derives conversation summaries and unread counts from the
// flat message log. Everything here is computed fresh per call; clients poll,
// the server caches nothing between polls.
package chat

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"skillswap-backend/internal/errs"
	"skillswap-backend/internal/storage"
)

type MessageStore interface {
	InsertMessage(ctx context.Context, msg *storage.Message) error
	GetMessage(ctx context.Context, messageID uuid.UUID) (*storage.Message, error)
	ListMessagesBetween(ctx context.Context, userID, partnerID uuid.UUID, limit int) ([]*storage.Message, error)
	MarkConversationRead(ctx context.Context, userID, partnerID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	UpdateMessageContent(ctx context.Context, messageID uuid.UUID, content string) error
	DeleteMessage(ctx context.Context, messageID uuid.UUID) error
	ListConversations(ctx context.Context, userID uuid.UUID) ([]storage.ConversationSummary, error)
}

type UserStore interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*storage.User, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Presence interface {
	OnlineStatus(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// Notifier is best effort; a lost nudge only means the recipient waits for
// their next poll tick.
type Notifier interface {
	MessageSent(ctx context.Context, msg *storage.Message)
}

type Service struct {
	messages MessageStore
	users    UserStore
	presence Presence
	notifier Notifier
}

func NewService(messages MessageStore, users UserStore, presence Presence, notifier Notifier) *Service {
	return &Service{
		messages: messages,
		users:    users,
		presence: presence,
		notifier: notifier,
	}
}

// userSendableTypes are the message types a client may send directly; the
// barter_* types are inserted by the session state machine only.
var userSendableTypes = map[string]bool{
	storage.MessageText:  true,
	storage.MessageImage: true,
	storage.MessageVoice: true,
	storage.MessageFile:  true,
}

type SendInput struct {
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Type       string
	Content    string
	FileURL    string
}

func (s *Service) SendMessage(ctx context.Context, input SendInput) (*storage.Message, error) {
	if input.Type == "" {
		input.Type = storage.MessageText
	}
	if !userSendableTypes[input.Type] {
		return nil, errs.InvalidInput("unsupported message type %q", input.Type)
	}
	if input.Type == storage.MessageText && input.Content == "" {
		return nil, errs.InvalidInput("content is required for text messages")
	}
	if input.Type != storage.MessageText && input.FileURL == "" {
		return nil, errs.InvalidInput("file_url is required for %s messages", input.Type)
	}
	if input.SenderID == input.ReceiverID {
		return nil, errs.InvalidInput("cannot message yourself")
	}

	sender, err := s.users.GetUser(ctx, input.SenderID)
	if err != nil {
		return nil, translateUserErr(err, input.SenderID)
	}
	if sender.Blocked {
		return nil, errs.NotAuthorized("blocked users cannot send messages")
	}
	if err := s.requireUser(ctx, input.ReceiverID); err != nil {
		return nil, err
	}

	msg := &storage.Message{
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Type:       input.Type,
		Content:    input.Content,
		FileURL:    input.FileURL,
	}
	if err := s.messages.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.notifier.MessageSent(ctx, msg)
	return msg, nil
}

// History returns the message log with one partner, oldest first. Viewing is
// what marks the partner's messages read, so the mark happens here, before
// the page is fetched.
func (s *Service) History(ctx context.Context, userID, partnerID uuid.UUID, limit int) ([]*storage.Message, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	if _, err := s.messages.MarkConversationRead(ctx, userID, partnerID); err != nil {
		return nil, err
	}
	return s.messages.ListMessagesBetween(ctx, userID, partnerID, limit)
}

func (s *Service) MarkRead(ctx context.Context, userID, partnerID uuid.UUID) (int64, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return 0, err
	}
	return s.messages.MarkConversationRead(ctx, userID, partnerID)
}

// UnreadCount is computed fresh on every call; staleness is bounded by the
// client's poll interval, not by any cache here.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return 0, err
	}
	return s.messages.UnreadCount(ctx, userID)
}

func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]storage.ConversationSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	summaries, err := s.messages.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []storage.ConversationSummary{}
	}

	s.fillPresence(ctx, summaries)
	return summaries, nil
}

// fillPresence annotates partners with their online flag. Best effort: a
// presence lookup failure leaves everyone offline rather than failing the
// list.
func (s *Service) fillPresence(ctx context.Context, summaries []storage.ConversationSummary) {
	if len(summaries) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(summaries))
	for i := range summaries {
		ids[i] = summaries[i].Partner.ID
	}

	online, err := s.presence.OnlineStatus(ctx, ids)
	if err != nil {
		log.Printf("[CHAT] presence lookup failed: %v", err)
		return
	}
	for i := range summaries {
		summaries[i].Online = online[summaries[i].Partner.ID]
	}
}

// EditMessage rewrites a text message's content. Sender only; non-text
// messages refuse.
func (s *Service) EditMessage(ctx context.Context, actorID, messageID uuid.UUID, content string) (*storage.Message, error) {
	if content == "" {
		return nil, errs.InvalidInput("content is required")
	}

	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, errs.NotAuthorized("only the sender can edit a message")
	}
	if msg.Type != storage.MessageText {
		return nil, errs.InvalidState("only text messages can be edited")
	}

	if err := s.messages.UpdateMessageContent(ctx, messageID, content); err != nil {
		return nil, err
	}
	msg.Content = content
	msg.IsEdited = true
	return msg, nil
}

func (s *Service) DeleteMessage(ctx context.Context, actorID, messageID uuid.UUID) error {
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actorID {
		return errs.NotAuthorized("only the sender can delete a message")
	}
	return s.messages.DeleteMessage(ctx, messageID)
}

func (s *Service) getMessage(ctx context.Context, messageID uuid.UUID) (*storage.Message, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.NotFound("message %s not found", messageID)
		}
		return nil, err
	}
	return msg, nil
}

func (s *Service) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NotFound("user %s not found", userID)
	}
	return nil
}

func translateUserErr(err error, userID uuid.UUID) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errs.NotFound("user %s not found", userID)
	}
	return err
}
