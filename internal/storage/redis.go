package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisClient{client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Event is the nudge pushed to a user's channel. It carries no state a
// client could not poll for; its only job is to shorten the poll interval
// once.
type Event struct {
	Type      string    `json:"type"`
	FromID    string    `json:"from_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func userEventsChannel(userID string) string {
	return fmt.Sprintf("user:%s:events", userID)
}

func (r *RedisClient) PublishEvent(ctx context.Context, userID string, event Event) error {
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, userEventsChannel(userID), data).Err()
}

type RedisSubscriber struct {
	*redis.PubSub
}

func (rs *RedisSubscriber) ReceiveMessage(ctx context.Context) (*redis.Message, error) {
	return rs.PubSub.ReceiveMessage(ctx)
}

func (r *RedisClient) SubscribeToUserEvents(ctx context.Context, userID string) *RedisSubscriber {
	pubsub := r.client.Subscribe(ctx, userEventsChannel(userID))
	return &RedisSubscriber{PubSub: pubsub}
}

// Presence is a best-effort online indicator keyed per user with a TTL; a
// connected websocket refreshes it on every heartbeat.
func presenceKey(userID string) string {
	return fmt.Sprintf("presence:%s", userID)
}

func (r *RedisClient) SetPresence(ctx context.Context, userID string, ttl time.Duration) error {
	return r.client.Set(ctx, presenceKey(userID), "1", ttl).Err()
}

func (r *RedisClient) ClearPresence(ctx context.Context, userID string) error {
	return r.client.Del(ctx, presenceKey(userID)).Err()
}

func (r *RedisClient) OnlineStatus(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	online := make(map[uuid.UUID]bool, len(userIDs))
	if len(userIDs) == 0 {
		return online, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(userIDs))
	for i, id := range userIDs {
		cmds[i] = pipe.Exists(ctx, presenceKey(id.String()))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	for i, id := range userIDs {
		online[id] = cmds[i].Val() > 0
	}
	return online, nil
}
