// Package notify dispatches best-effort nudges after message sends and
// barter transitions. The enqueue and the publish legs both swallow their
// errors: the primary write has already committed and must not fail because
// a notification could not leave the building. Clients that miss a nudge
// still converge on their next poll.
package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"skillswap-backend/internal/storage"
)

const (
	TaskMessageSent    = "notify:message"
	TaskSessionChanged = "notify:barter"

	queueNotify = "notify"
)

type messagePayload struct {
	RecipientID string `json:"recipient_id"`
	SenderID    string `json:"sender_id"`
	MessageType string `json:"message_type"`
}

type sessionPayload struct {
	RecipientID string `json:"recipient_id"`
	ActorID     string `json:"actor_id"`
	SessionID   string `json:"session_id"`
	Status      string `json:"status"`
}

type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(redisURL string) (*Enqueuer, error) {
	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}
	return &Enqueuer{client: asynq.NewClient(opt)}, nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

func (e *Enqueuer) MessageSent(ctx context.Context, msg *storage.Message) {
	e.enqueue(ctx, TaskMessageSent, messagePayload{
		RecipientID: msg.ReceiverID.String(),
		SenderID:    msg.SenderID.String(),
		MessageType: msg.Type,
	})
}

func (e *Enqueuer) SessionChanged(ctx context.Context, recipientID uuid.UUID, sess *storage.Session) {
	e.enqueue(ctx, TaskSessionChanged, sessionPayload{
		RecipientID: recipientID.String(),
		ActorID:     sess.Partner(recipientID).String(),
		SessionID:   sess.ID.String(),
		Status:      sess.Status,
	})
}

func (e *Enqueuer) enqueue(ctx context.Context, taskType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[NOTIFY] failed to marshal %s payload: %v", taskType, err)
		return
	}

	task := asynq.NewTask(taskType, data)
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue(queueNotify)); err != nil {
		log.Printf("[NOTIFY] failed to enqueue %s: %v", taskType, err)
	}
}

// NopNotifier satisfies the service notifier interfaces in tests and tools
// that run without a queue.
type NopNotifier struct{}

func (NopNotifier) MessageSent(context.Context, *storage.Message)               {}
func (NopNotifier) SessionChanged(context.Context, uuid.UUID, *storage.Session) {}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}, nil
}
