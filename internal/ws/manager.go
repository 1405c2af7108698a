// Package ws fans redis pub/sub nudges out to connected clients. Polling
// remains the delivery contract; a websocket connection only tells a client
// to poll sooner and keeps its presence key alive.
package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"skillswap-backend/internal/api/identity"
	"skillswap-backend/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the frontend domain is fixed
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	writeWait           = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	sendBuffer          = 16
)

// eventStream is the subscription half of the redis client; a narrow
// interface so the pump can be driven without redis.
type eventStream interface {
	ReceiveMessage(ctx context.Context) (*redis.Message, error)
}

type Manager struct {
	redis        *storage.RedisClient
	presenceTTL  time.Duration
	pingInterval time.Duration

	mu          sync.RWMutex
	connections map[string]*websocket.Conn // userID -> connection
}

func NewManager(redisClient *storage.RedisClient, presenceTTL time.Duration) *Manager {
	return &Manager{
		redis:        redisClient,
		presenceTTL:  presenceTTL,
		pingInterval: defaultPingInterval,
		connections:  make(map[string]*websocket.Conn),
	}
}

// HandleUserWebSocket upgrades the connection and pipes the caller's event
// channel to it until either side goes away.
func (m *Manager) HandleUserWebSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "identity required", http.StatusUnauthorized)
		return
	}
	userID := id.UserID.String()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed for user %s: %v", userID, err)
		return
	}

	m.register(userID, conn)
	defer m.unregister(userID, conn)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := m.redis.SetPresence(ctx, userID, m.presenceTTL); err != nil {
		log.Printf("[WS] presence set failed for user %s: %v", userID, err)
	}

	subscriber := m.redis.SubscribeToUserEvents(ctx, userID)
	defer subscriber.Close()

	send := make(chan []byte, sendBuffer)
	go m.forwardEvents(ctx, cancel, userID, subscriber, send)
	go m.writePump(ctx, cancel, userID, conn, send)
	go m.refreshPresence(ctx, userID)

	// Reads only serve to detect the peer closing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// forwardEvents moves payloads from the subscription onto the send channel.
// It never touches the connection; all frames go out through writePump.
func (m *Manager) forwardEvents(ctx context.Context, cancel context.CancelFunc, userID string, events eventStream, send chan<- []byte) {
	defer cancel()

	for {
		msg, err := events.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[WS] subscription lost for user %s: %v", userID, err)
			}
			return
		}

		select {
		case send <- []byte(msg.Payload):
		case <-ctx.Done():
			return
		}
	}
}

// writePump is the connection's only writer. The websocket supports a single
// concurrent writer, so event frames and heartbeat pings are serialized here.
func (m *Manager) writePump(ctx context.Context, cancel context.CancelFunc, userID string, conn *websocket.Conn, send <-chan []byte) {
	defer cancel()

	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("[WS] write failed for user %s: %v", userID, err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// refreshPresence keeps the presence key alive while the connection lasts.
func (m *Manager) refreshPresence(ctx context.Context, userID string) {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.redis.SetPresence(ctx, userID, m.presenceTTL); err != nil {
				log.Printf("[WS] presence refresh failed for user %s: %v", userID, err)
			}
		}
	}
}

func (m *Manager) register(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.connections[userID]; ok {
		old.Close()
	}
	m.connections[userID] = conn
	log.Printf("[WS] user %s connected (%d total)", userID, len(m.connections))
}

func (m *Manager) unregister(userID string, conn *websocket.Conn) {
	conn.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connections[userID] == conn {
		delete(m.connections, userID)
	}

	if err := m.redis.ClearPresence(context.Background(), userID); err != nil {
		log.Printf("[WS] presence clear failed for user %s: %v", userID, err)
	}
	log.Printf("[WS] user %s disconnected (%d total)", userID, len(m.connections))
}
