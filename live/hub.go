// Package live fans incoming responses out to dashboard clients over
// WebSocket, grouped by survey refid. Delivery is at-least-once and
// unbounded; dashboards tolerate reconnect-induced gaps and duplicates.
package live

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"surveyforge/log"
)

var upgrader = websocket.Upgrader{
	// The dashboard may be served from another origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*websocket.Conn]bool // refid -> connections
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]bool),
	}
}

// Subscribe upgrades the request and parks the connection on the refid's
// client set until the peer goes away. The read loop only drains control
// frames; dashboards never send data.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) {
	refid := chi.URLParam(r, "refid")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("ws.upgrade: %s", err)
		return
	}

	h.add(refid, conn)
	defer h.remove(refid, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast marshals the payload once and sends it to every client
// watching the refid, dropping connections that fail to take the write.
func (h *Hub) Broadcast(refid string, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("ws.broadcast.marshal: %s", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[refid]))
	for conn := range h.clients[refid] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debugf("ws.broadcast.write: %s", err)
			conn.Close()
			h.remove(refid, conn)
		}
	}
}

// ClientCount reports how many dashboards watch a refid.
func (h *Hub) ClientCount(refid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[refid])
}

func (h *Hub) add(refid string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[refid] == nil {
		h.clients[refid] = make(map[*websocket.Conn]bool)
	}
	h.clients[refid][conn] = true
}

func (h *Hub) remove(refid string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[refid], conn)
	if len(h.clients[refid]) == 0 {
		delete(h.clients, refid)
	}
	conn.Close()
}
