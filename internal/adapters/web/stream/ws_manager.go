// Package stream pushes live peering observations to websocket clients.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts clients without an Origin header and same-host browsers.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && u.Host == r.Host {
		return true
	}
	slog.Warn("websocket origin rejected", "origin", origin)
	return false
}

type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WSManager broadcasts observations to connected clients. Each client chooses
// what it receives with mesh_id, transmitter and kind query parameters.
type WSManager struct {
	clients map[*websocket.Conn]*domain.PeeringFilter
	mu      sync.Mutex
}

func NewWSManager() *WSManager {
	return &WSManager{
		clients: make(map[*websocket.Conn]*domain.PeeringFilter),
	}
}

// HandleWebSocket upgrades the request and registers the client until it disconnects.
func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &domain.PeeringFilter{Transmitter: q.Get("transmitter")}
	filter.WithMeshID(q.Get("mesh_id")).WithKind(q.Get("kind"))
	if err := filter.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = filter
	m.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr, "mesh_id", filter.MeshID, "kind", filter.Kind)

	// Clients never send anything useful; reading detects the disconnect.
	go func() {
		defer m.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Run publishes every observation from feed until ctx is done or feed is closed,
// then disconnects all clients.
func (m *WSManager) Run(ctx context.Context, feed <-chan domain.PeeringObservation) {
	defer m.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case obs, ok := <-feed:
			if !ok {
				return
			}
			m.Publish(obs)
		}
	}
}

// Publish sends obs to every client whose filter matches it.
func (m *WSManager) Publish(obs domain.PeeringObservation) {
	data, err := json.Marshal(WSMessage{Type: "observation", Payload: obs})
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn, filter := range m.clients {
		if !filter.Matches(&obs) {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *WSManager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *WSManager) remove(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[conn]; ok {
		conn.Close()
		delete(m.clients, conn)
		slog.Info("websocket disconnected", "remote", conn.RemoteAddr().String())
	}
}

func (m *WSManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		delete(m.clients, conn)
	}
}
