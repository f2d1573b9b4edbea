package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/lil-gargs/backend/internal/events"
	"go.uber.org/zap"
)

// WSHub streams verification outcomes to the web portal. Connections are keyed
// by session token: the portal opens a socket after creating a session and gets
// the terminal event pushed instead of polling GET /session/:token.
type WSHub struct {
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn
}

func NewWSHub(subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		subscriber:  subscriber,
		log:         log,
		connections: make(map[string][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) {
	_ = h.subscriber.Subscribe(ctx, events.StreamVerification, func(event events.Event) {
		token, _ := event.Payload["token"].(string)
		if token == "" {
			return
		}
		h.sendToToken(token, event)
	})
}

func (h *WSHub) sendToToken(token string, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[token] {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	token := conn.Query("token")
	if token == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	h.mu.Lock()
	h.connections[token] = append(h.connections[token], conn)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		conns := h.connections[token]
		for i, c := range conns {
			if c == conn {
				h.connections[token] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.connections[token]) == 0 {
			delete(h.connections, token)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop: держит соединение, реагирует только на закрытие
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
