// Package ws fans live dialog events out to admin consoles and webchat
// widgets over websockets.
package ws

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks live websocket connections. Admin connections receive every
// dialog event; webchat connections receive only replies for their session.
// Writes that fail prune the connection lazily.
type Hub struct {
	logger *slog.Logger

	mu       sync.Mutex
	admins   map[int64]map[*websocket.Conn]struct{}  // keyed by admin id
	sessions map[string]map[*websocket.Conn]struct{} // keyed by webchat session id
}

// NewHub creates an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		logger:   log.With(slog.String("service", "ws")),
		admins:   make(map[int64]map[*websocket.Conn]struct{}),
		sessions: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// RegisterAdmin adds a console connection for the admin.
func (h *Hub) RegisterAdmin(adminID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.admins[adminID]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.admins[adminID] = set
	}
	set[conn] = struct{}{}
}

// UnregisterAdmin removes a console connection.
func (h *Hub) UnregisterAdmin(adminID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.admins[adminID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.admins, adminID)
		}
	}
}

// RegisterSession adds a widget connection for the webchat session.
func (h *Hub) RegisterSession(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[sessionID]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.sessions[sessionID] = set
	}
	set[conn] = struct{}{}
}

// UnregisterSession removes a widget connection.
func (h *Hub) UnregisterSession(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.sessions[sessionID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.sessions, sessionID)
		}
	}
}

// BroadcastToAdmins sends payload to connected consoles. With no adminIDs it
// reaches every console; otherwise only the listed admins. It reports the
// number of connections that accepted the write.
func (h *Hub) BroadcastToAdmins(payload any, adminIDs ...int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	var wanted map[int64]struct{}
	if len(adminIDs) > 0 {
		wanted = make(map[int64]struct{}, len(adminIDs))
		for _, id := range adminIDs {
			wanted[id] = struct{}{}
		}
	}
	reached := 0
	for adminID, set := range h.admins {
		if wanted != nil {
			if _, ok := wanted[adminID]; !ok {
				continue
			}
		}
		for conn := range set {
			if err := conn.WriteJSON(payload); err != nil {
				h.logger.Debug("pruning dead admin connection",
					slog.Int64("admin_id", adminID),
					slog.String("error", err.Error()))
				_ = conn.Close()
				delete(set, conn)
				continue
			}
			reached++
		}
		if len(set) == 0 {
			delete(h.admins, adminID)
		}
	}
	return reached
}

// PushToSession sends payload to every widget connection of the session. It
// reports the number of connections that accepted the write.
func (h *Hub) PushToSession(sessionID string, payload any) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[sessionID]
	if !ok {
		return 0
	}
	reached := 0
	for conn := range set {
		if err := conn.WriteJSON(payload); err != nil {
			h.logger.Debug("pruning dead webchat connection",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()))
			_ = conn.Close()
			delete(set, conn)
			continue
		}
		reached++
	}
	if len(set) == 0 {
		delete(h.sessions, sessionID)
	}
	return reached
}

// AdminConnections reports the number of live console connections.
func (h *Hub) AdminConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.admins {
		n += len(set)
	}
	return n
}
