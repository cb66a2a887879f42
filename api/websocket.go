package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/nsefolio/internal/logger"
	"github.com/seenimoa/nsefolio/internal/view"
)

// Message types pushed to and accepted from WebSocket clients.
const (
	MsgPortfolioUpdate = "portfolio_update"
	MsgRefresh         = "refresh"
	MsgDismissWarnings = "dismiss_warnings"
	MsgDismissError    = "dismiss_error"
	MsgPing            = "ping"
	MsgPong            = "pong"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the REST routes
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// WSHub tracks WebSocket connections and fans broadcasts out to them.
// Every broadcast is a full dashboard, so only the newest pending one is
// kept.
type WSHub struct {
	mu        sync.RWMutex
	clients   map[*WSClient]bool
	broadcast chan WSMessage // single slot
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:   make(map[*WSClient]bool),
		broadcast: make(chan WSMessage, 1),
	}
}

// Run delivers broadcasts until ctx is cancelled. Clients whose send
// buffer is full are disconnected.
func (h *WSHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			var slow []*WSClient
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				logger.Get().Debugw("disconnecting slow WebSocket client")
				h.Unregister(client)
			}
		}
	}
}

// Broadcast queues a message for all connected clients. It never blocks;
// a message still waiting for delivery is replaced by msg.
func (h *WSHub) Broadcast(msg WSMessage) {
	for {
		select {
		case h.broadcast <- msg:
			return
		default:
		}
		select {
		case <-h.broadcast:
		default:
		}
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Unregistering
// twice is a no-op.
func (h *WSHub) Unregister(client *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// sendTo queues msg for one client if it is still registered.
func (h *WSHub) sendTo(client *WSClient, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- msg:
	default:
	}
}

func (h *WSHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// ============================================================
// Connection handling
// ============================================================

// handleWebSocket upgrades the connection, sends the current dashboard and
// then streams every published update.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Get().Warnw("WebSocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, 64),
	}
	s.wsHub.Register(client)
	s.wsHub.sendTo(client, WSMessage{Type: MsgPortfolioUpdate, Data: s.dashboard(view.SortNone, view.Asc)})

	go wsWritePump(conn, client)
	go wsReadPump(conn, client, s)
}

// wsReadPump handles client commands until the connection closes.
func wsReadPump(conn *websocket.Conn, client *WSClient, s *Server) {
	defer func() {
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Get().Debugw("WebSocket read error", "error", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case MsgRefresh:
			// The result reaches every client through the subscription.
			go func() {
				if _, err := s.orch.Refresh(context.Background()); err != nil {
					logger.Get().Warnw("refresh requested over WebSocket failed", "error", err)
				}
			}()
		case MsgDismissWarnings:
			s.orch.DismissWarnings()
		case MsgDismissError:
			s.orch.DismissError()
		case MsgPing:
			client.hub.sendTo(client, WSMessage{Type: MsgPong})
		}
	}
}

// wsWritePump writes queued messages and keepalive pings to the connection.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
