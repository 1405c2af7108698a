package chat

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"skillswap-backend/internal/errs"
	"skillswap-backend/internal/notify"
	"skillswap-backend/internal/storage"
)

type fakeMessageStore struct {
	messages []*storage.Message
	seq      int
}

func (f *fakeMessageStore) InsertMessage(_ context.Context, msg *storage.Message) error {
	f.seq++
	msg.ID = uuid.New()
	msg.CreatedAt = time.Unix(int64(f.seq), 0)
	msg.UpdatedAt = msg.CreatedAt
	stored := *msg
	f.messages = append(f.messages, &stored)
	return nil
}

func (f *fakeMessageStore) GetMessage(_ context.Context, messageID uuid.UUID) (*storage.Message, error) {
	for _, msg := range f.messages {
		if msg.ID == messageID {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeMessageStore) ListMessagesBetween(_ context.Context, userID, partnerID uuid.UUID, limit int) ([]*storage.Message, error) {
	var result []*storage.Message
	for _, msg := range f.messages {
		if (msg.SenderID == userID && msg.ReceiverID == partnerID) ||
			(msg.SenderID == partnerID && msg.ReceiverID == userID) {
			copied := *msg
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeMessageStore) MarkConversationRead(_ context.Context, userID, partnerID uuid.UUID) (int64, error) {
	var marked int64
	for _, msg := range f.messages {
		if msg.ReceiverID == userID && msg.SenderID == partnerID && !msg.IsRead {
			msg.IsRead = true
			marked++
		}
	}
	return marked, nil
}

func (f *fakeMessageStore) UnreadCount(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, msg := range f.messages {
		if msg.ReceiverID == userID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageStore) UpdateMessageContent(_ context.Context, messageID uuid.UUID, content string) error {
	for _, msg := range f.messages {
		if msg.ID == messageID {
			msg.Content = content
			msg.IsEdited = true
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeMessageStore) DeleteMessage(_ context.Context, messageID uuid.UUID) error {
	for i, msg := range f.messages {
		if msg.ID == messageID {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeMessageStore) ListConversations(_ context.Context, userID uuid.UUID) ([]storage.ConversationSummary, error) {
	latest := make(map[uuid.UUID]*storage.Message)
	unread := make(map[uuid.UUID]int)

	for _, msg := range f.messages {
		var partnerID uuid.UUID
		switch userID {
		case msg.SenderID:
			partnerID = msg.ReceiverID
		case msg.ReceiverID:
			partnerID = msg.SenderID
		default:
			continue
		}
		if prev, ok := latest[partnerID]; !ok || msg.CreatedAt.After(prev.CreatedAt) {
			latest[partnerID] = msg
		}
		if msg.ReceiverID == userID && !msg.IsRead {
			unread[partnerID]++
		}
	}

	var summaries []storage.ConversationSummary
	for partnerID, msg := range latest {
		summaries = append(summaries, storage.ConversationSummary{
			Partner:     storage.PublicProfile{ID: partnerID},
			LastMessage: *msg,
			UnreadCount: unread[partnerID],
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.CreatedAt.After(summaries[j].LastMessage.CreatedAt)
	})
	return summaries, nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*storage.User
}

func (f *fakeUserStore) GetUser(_ context.Context, userID uuid.UUID) (*storage.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UserExists(_ context.Context, userID uuid.UUID) (bool, error) {
	_, ok := f.users[userID]
	return ok, nil
}

type fakePresence struct {
	online map[uuid.UUID]bool
}

func (f *fakePresence) OnlineStatus(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool)
	for _, id := range userIDs {
		result[id] = f.online[id]
	}
	return result, nil
}

func newTestService() (*Service, *fakeMessageStore, *fakeUserStore, *fakePresence, uuid.UUID, uuid.UUID) {
	aliceID := uuid.New()
	bobID := uuid.New()
	users := &fakeUserStore{users: map[uuid.UUID]*storage.User{
		aliceID: {ID: aliceID, Name: "Alice"},
		bobID:   {ID: bobID, Name: "Bob"},
	}}
	messages := &fakeMessageStore{}
	presence := &fakePresence{online: make(map[uuid.UUID]bool)}
	svc := NewService(messages, users, presence, notify.NopNotifier{})
	return svc, messages, users, presence, aliceID, bobID
}

func send(t *testing.T, svc *Service, senderID, receiverID uuid.UUID, content string) *storage.Message {
	t.Helper()
	msg, err := svc.SendMessage(context.Background(), SendInput{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Type:       storage.MessageText,
		Content:    content,
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	return msg
}

func TestSendMessageValidation(t *testing.T) {
	svc, _, users, _, aliceID, bobID := newTestService()
	ctx := context.Background()

	blockedID := uuid.New()
	users.users[blockedID] = &storage.User{ID: blockedID, Blocked: true}

	tests := []struct {
		name  string
		input SendInput
		kind  errs.Kind
	}{
		{
			name:  "empty text content",
			input: SendInput{SenderID: aliceID, ReceiverID: bobID, Type: storage.MessageText},
			kind:  errs.KindInvalidInput,
		},
		{
			name:  "image without file_url",
			input: SendInput{SenderID: aliceID, ReceiverID: bobID, Type: storage.MessageImage},
			kind:  errs.KindInvalidInput,
		},
		{
			name:  "reserved barter type",
			input: SendInput{SenderID: aliceID, ReceiverID: bobID, Type: storage.MessageBarterStatus, Content: "hi"},
			kind:  errs.KindInvalidInput,
		},
		{
			name:  "self send",
			input: SendInput{SenderID: aliceID, ReceiverID: aliceID, Type: storage.MessageText, Content: "hi"},
			kind:  errs.KindInvalidInput,
		},
		{
			name:  "unknown receiver",
			input: SendInput{SenderID: aliceID, ReceiverID: uuid.New(), Type: storage.MessageText, Content: "hi"},
			kind:  errs.KindNotFound,
		},
		{
			name:  "blocked sender",
			input: SendInput{SenderID: blockedID, ReceiverID: bobID, Type: storage.MessageText, Content: "hi"},
			kind:  errs.KindNotAuthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendMessage(ctx, tt.input)
			if errs.KindOf(err) != tt.kind {
				t.Errorf("SendMessage error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestSendDefaultsToText(t *testing.T) {
	svc, _, _, _, aliceID, bobID := newTestService()

	msg, err := svc.SendMessage(context.Background(), SendInput{
		SenderID: aliceID, ReceiverID: bobID, Content: "hello",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if msg.Type != storage.MessageText {
		t.Errorf("type = %q, want text", msg.Type)
	}
	if msg.IsRead {
		t.Error("new message must start unread")
	}
}

func TestUnreadCountIdempotent(t *testing.T) {
	svc, _, _, _, aliceID, bobID := newTestService()
	ctx := context.Background()

	send(t, svc, aliceID, bobID, "one")
	send(t, svc, aliceID, bobID, "two")

	first, err := svc.UnreadCount(ctx, bobID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	second, err := svc.UnreadCount(ctx, bobID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if first != second || first != 2 {
		t.Errorf("unread counts = (%d, %d), want (2, 2)", first, second)
	}
}

func TestMarkReadRoundTrip(t *testing.T) {
	svc, _, users, _, aliceID, bobID := newTestService()
	ctx := context.Background()

	carolID := uuid.New()
	users.users[carolID] = &storage.User{ID: carolID, Name: "Carol"}

	send(t, svc, aliceID, bobID, "one")
	send(t, svc, aliceID, bobID, "two")
	send(t, svc, aliceID, bobID, "three")
	send(t, svc, carolID, bobID, "hey")

	before, _ := svc.UnreadCount(ctx, bobID)
	if before != 4 {
		t.Fatalf("unread before = %d, want 4", before)
	}

	marked, err := svc.MarkRead(ctx, bobID, aliceID)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if marked != 3 {
		t.Errorf("marked = %d, want 3", marked)
	}

	after, _ := svc.UnreadCount(ctx, bobID)
	if after != before-3 {
		t.Errorf("unread after = %d, want %d", after, before-3)
	}

	// marking again is a no-op; read never reverts to unread
	marked, _ = svc.MarkRead(ctx, bobID, aliceID)
	if marked != 0 {
		t.Errorf("second mark = %d, want 0", marked)
	}
}

func TestHistoryMarksRead(t *testing.T) {
	svc, _, _, _, aliceID, bobID := newTestService()
	ctx := context.Background()

	send(t, svc, aliceID, bobID, "see you then")

	messages, err := svc.History(ctx, bobID, aliceID, 50)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "see you then" {
		t.Fatalf("history = %v, want the one message", messages)
	}

	count, _ := svc.UnreadCount(ctx, bobID)
	if count != 0 {
		t.Errorf("unread after viewing history = %d, want 0", count)
	}
}

func TestUnknownUserFails(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	ctx := context.Background()
	ghostID := uuid.New()

	if _, err := svc.UnreadCount(ctx, ghostID); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("UnreadCount for unknown user = %v, want NotFound", err)
	}
	if _, err := svc.ListConversations(ctx, ghostID); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("ListConversations for unknown user = %v, want NotFound", err)
	}
}

func TestEmptyResultsAreNotErrors(t *testing.T) {
	svc, _, _, _, aliceID, _ := newTestService()
	ctx := context.Background()

	count, err := svc.UnreadCount(ctx, aliceID)
	if err != nil || count != 0 {
		t.Errorf("UnreadCount = (%d, %v), want (0, nil)", count, err)
	}

	summaries, err := svc.ListConversations(ctx, aliceID)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("summaries = %v, want empty", summaries)
	}
}

func TestListConversationsOrderingAndPresence(t *testing.T) {
	svc, _, users, presence, aliceID, bobID := newTestService()
	ctx := context.Background()

	carolID := uuid.New()
	users.users[carolID] = &storage.User{ID: carolID, Name: "Carol"}
	presence.online[bobID] = true

	send(t, svc, bobID, aliceID, "early")
	send(t, svc, carolID, aliceID, "later")

	summaries, err := svc.ListConversations(ctx, aliceID)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summary count = %d, want 2", len(summaries))
	}
	if summaries[0].Partner.ID != carolID {
		t.Errorf("first partner = %s, want most recently active (Carol)", summaries[0].Partner.ID)
	}
	if summaries[0].UnreadCount != 1 || summaries[1].UnreadCount != 1 {
		t.Errorf("unread counts = (%d, %d), want (1, 1)",
			summaries[0].UnreadCount, summaries[1].UnreadCount)
	}
	if !summaries[1].Online {
		t.Error("Bob should be flagged online")
	}
	if summaries[0].Online {
		t.Error("Carol should be flagged offline")
	}
}

func TestEditMessage(t *testing.T) {
	svc, _, _, _, aliceID, bobID := newTestService()
	ctx := context.Background()

	msg := send(t, svc, aliceID, bobID, "typo")

	if _, err := svc.EditMessage(ctx, bobID, msg.ID, "fixed"); !errs.IsKind(err, errs.KindNotAuthorized) {
		t.Errorf("edit by receiver = %v, want NotAuthorized", err)
	}
	if _, err := svc.EditMessage(ctx, aliceID, msg.ID, ""); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Errorf("edit with empty content = %v, want InvalidInput", err)
	}

	edited, err := svc.EditMessage(ctx, aliceID, msg.ID, "fixed")
	if err != nil {
		t.Fatalf("EditMessage failed: %v", err)
	}
	if edited.Content != "fixed" || !edited.IsEdited {
		t.Errorf("edited = (%q, %v), want (fixed, true)", edited.Content, edited.IsEdited)
	}
}

func TestEditNonTextFails(t *testing.T) {
	svc, _, _, _, aliceID, bobID := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendInput{
		SenderID: aliceID, ReceiverID: bobID,
		Type: storage.MessageImage, FileURL: "uploads/pic.png",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if _, err := svc.EditMessage(ctx, aliceID, msg.ID, "caption"); !errs.IsKind(err, errs.KindInvalidState) {
		t.Errorf("edit image = %v, want InvalidState", err)
	}
}

func TestDeleteMessage(t *testing.T) {
	svc, messages, _, _, aliceID, bobID := newTestService()
	ctx := context.Background()

	msg := send(t, svc, aliceID, bobID, "oops")

	if err := svc.DeleteMessage(ctx, bobID, msg.ID); !errs.IsKind(err, errs.KindNotAuthorized) {
		t.Errorf("delete by receiver = %v, want NotAuthorized", err)
	}
	if err := svc.DeleteMessage(ctx, aliceID, msg.ID); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}
	if _, err := messages.GetMessage(ctx, msg.ID); err != storage.ErrNotFound {
		t.Errorf("message still present after delete: %v", err)
	}
	if err := svc.DeleteMessage(ctx, aliceID, msg.ID); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("double delete = %v, want NotFound", err)
	}
}

// The polling scenario: a message lands, the badge rises, viewing the
// conversation clears it, and the sender's own list shows the thread with
// zero unread.
func TestSendViewPollScenario(t *testing.T) {
	svc, _, _, _, aliceID, bobID := newTestService()
	ctx := context.Background()

	bobBefore, _ := svc.UnreadCount(ctx, bobID)

	send(t, svc, aliceID, bobID, "see you then")

	bobAfter, _ := svc.UnreadCount(ctx, bobID)
	if bobAfter != bobBefore+1 {
		t.Errorf("unread = %d, want %d", bobAfter, bobBefore+1)
	}

	if _, err := svc.History(ctx, bobID, aliceID, 50); err != nil {
		t.Fatalf("History failed: %v", err)
	}

	bobFinal, _ := svc.UnreadCount(ctx, bobID)
	if bobFinal != bobBefore {
		t.Errorf("unread after viewing = %d, want %d", bobFinal, bobBefore)
	}

	summaries, err := svc.ListConversations(ctx, aliceID)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summary count = %d, want 1", len(summaries))
	}
	if summaries[0].Partner.ID != bobID ||
		summaries[0].LastMessage.Content != "see you then" ||
		summaries[0].UnreadCount != 0 {
		t.Errorf("summary = %+v, want Bob / %q / 0 unread", summaries[0], "see you then")
	}
}
