package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"

	"skillswap-backend/internal/storage"
)

// Processor drains the notify queue and turns tasks into pub/sub nudges on
// the recipient's channel. The websocket layer forwards those to connected
// clients.
type Processor struct {
	redis  *storage.RedisClient
	server *asynq.Server
}

func NewProcessor(redisURL string, concurrency int, redisClient *storage.RedisClient) (*Processor, error) {
	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueNotify: 6,
			"default":   3,
		},
	})

	return &Processor{
		redis:  redisClient,
		server: server,
	}, nil
}

func (p *Processor) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskMessageSent, p.handleMessageSent)
	mux.HandleFunc(TaskSessionChanged, p.handleSessionChanged)

	go func() {
		if err := p.server.Run(mux); err != nil {
			log.Printf("[NOTIFY] asynq server error: %v", err)
		}
	}()

	log.Println("Notification processor started")
	return nil
}

func (p *Processor) Stop() {
	p.server.Shutdown()
}

func (p *Processor) handleMessageSent(ctx context.Context, task *asynq.Task) error {
	var payload messagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return p.redis.PublishEvent(ctx, payload.RecipientID, storage.Event{
		Type:   "message_received",
		FromID: payload.SenderID,
	})
}

func (p *Processor) handleSessionChanged(ctx context.Context, task *asynq.Task) error {
	var payload sessionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return p.redis.PublishEvent(ctx, payload.RecipientID, storage.Event{
		Type:      "barter_" + payload.Status,
		FromID:    payload.ActorID,
		SessionID: payload.SessionID,
	})
}
