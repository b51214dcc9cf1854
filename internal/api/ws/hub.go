// Package ws pushes card presence changes to connected kiosk frontends over
// websockets, so the UI can react to a card being presented without polling.
package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/api/metrics"
	"github.com/paradoks/streeplijst-backend/internal/core/domain"
)

const (
	// ActionAccept confirms a new connection to the client.
	ActionAccept = "accept"
	// ActionPresence carries a card presence change.
	ActionPresence = "last-connected-card-activity"
)

// Message is the envelope for every frame sent to clients.
type Message struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

// client wraps a websocket connection with a write lock, since gorilla
// connections allow only one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Hub tracks connected clients and fans presence updates out to all of them.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	log zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// The kiosk frontend is served from a different origin than
			// this backend, so the origin check stays open.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		log:     log.With().Str("component", "ws_hub").Logger(),
	}
}

// Handle upgrades the request to a websocket, confirms with an accept frame,
// and keeps the connection registered until the client goes away. Clients
// only listen; inbound frames are read and discarded to service control
// messages.
func (h *Hub) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn}
	if err := cl.send(Message{Action: ActionAccept}); err != nil {
		conn.Close()
		return nil
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	metrics.WebsocketClients.Inc()
	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket client connected")

	defer h.remove(cl)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		metrics.WebsocketClients.Dec()
	}
	h.mu.Unlock()
	cl.conn.Close()
	h.log.Debug().Msg("websocket client disconnected")
}

// Broadcast sends msg to every connected client. Clients that fail the
// write are dropped.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		targets = append(targets, cl)
	}
	h.mu.Unlock()

	for _, cl := range targets {
		if err := cl.send(msg); err != nil {
			h.log.Warn().Err(err).Msg("websocket write failed, dropping client")
			h.remove(cl)
		}
	}
}

// Watch forwards presence updates from sub to all clients until ctx is
// cancelled or sub is closed. Intended to run as a goroutine from main.
func (h *Hub) Watch(ctx context.Context, sub <-chan domain.CardPresence) {
	for {
		select {
		case <-ctx.Done():
			return
		case fact, ok := <-sub:
			if !ok {
				return
			}
			h.Broadcast(Message{Action: ActionPresence, Data: fact})
		}
	}
}
