package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"social-service/internal/models"
	"social-service/internal/observability"
)

// Hub maintains active websocket rooms: one room per chat and one feed
// stream per user for notifications and presence updates.
type Hub struct {
	chatRooms    map[string]map[*websocket.Conn]bool
	feedStreams  map[string]map[*websocket.Conn]bool
	chatConnInfo map[string]map[*websocket.Conn]ConnInfo
	feedConnInfo map[string]map[*websocket.Conn]ConnInfo
	writeLocks   map[*websocket.Conn]*sync.Mutex
	mu           sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		chatRooms:    make(map[string]map[*websocket.Conn]bool),
		feedStreams:  make(map[string]map[*websocket.Conn]bool),
		chatConnInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		feedConnInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		writeLocks:   make(map[*websocket.Conn]*sync.Mutex),
	}
}

// connTarget pairs a connection with its write lock. Broadcasts iterate a
// snapshot of these instead of the live room map, and all writes to one
// connection go through the lock: a conn may be written to from an HTTP
// handler and a presence subscription goroutine at the same time, and
// gorilla/websocket allows only one concurrent writer.
type connTarget struct {
	conn *websocket.Conn
	mu   *sync.Mutex
}

func (t connTarget) write(payload []byte) error {
	if t.mu != nil {
		t.mu.Lock()
		defer t.mu.Unlock()
	}
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

// snapshot copies a room's connections under the read lock so callers can
// iterate and write without holding it.
func (h *Hub) snapshot(rooms map[string]map[*websocket.Conn]bool, key string) []connTarget {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := rooms[key]
	targets := make([]connTarget, 0, len(conns))
	for conn := range conns {
		targets = append(targets, connTarget{conn: conn, mu: h.writeLocks[conn]})
	}
	return targets
}

// AddChatClient registers a websocket connection to a chat room.
func (h *Hub) AddChatClient(chatID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.chatRooms[chatID]; !ok {
		h.chatRooms[chatID] = make(map[*websocket.Conn]bool)
	}
	h.chatRooms[chatID][conn] = true
	if _, ok := h.chatConnInfo[chatID]; !ok {
		h.chatConnInfo[chatID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.chatConnInfo[chatID][conn] = info
	if _, ok := h.writeLocks[conn]; !ok {
		h.writeLocks[conn] = &sync.Mutex{}
	}
}

// RemoveChatClient removes a chat websocket connection.
func (h *Hub) RemoveChatClient(chatID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.chatRooms[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.chatRooms, chatID)
		}
	}
	if infos, ok := h.chatConnInfo[chatID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.chatConnInfo, chatID)
		}
	}
	delete(h.writeLocks, conn)
}

// BroadcastChatMessage sends a message to all clients in a chat.
func (h *Hub) BroadcastChatMessage(chatID string, msg models.Message) {
	event := models.ChatEvent{Type: "message", Message: &msg}
	payload, _ := json.Marshal(event)
	for _, target := range h.snapshot(h.chatRooms, chatID) {
		if err := target.write(payload); err != nil {
			slog.Warn("websocket write error", "err", err)
			target.conn.Close()
			h.publishWSError("chat", chatID, target.conn, err)
			h.RemoveChatClient(chatID, target.conn)
		}
	}
}

// AddFeedClient registers a websocket connection to a user's feed stream.
func (h *Hub) AddFeedClient(userID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.feedStreams[userID]; !ok {
		h.feedStreams[userID] = make(map[*websocket.Conn]bool)
	}
	h.feedStreams[userID][conn] = true
	if _, ok := h.feedConnInfo[userID]; !ok {
		h.feedConnInfo[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.feedConnInfo[userID][conn] = info
	if _, ok := h.writeLocks[conn]; !ok {
		h.writeLocks[conn] = &sync.Mutex{}
	}
}

// RemoveFeedClient removes a feed websocket connection.
func (h *Hub) RemoveFeedClient(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.feedStreams[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.feedStreams, userID)
		}
	}
	if infos, ok := h.feedConnInfo[userID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.feedConnInfo, userID)
		}
	}
	delete(h.writeLocks, conn)
}

// PushFeedEvent sends an event to all of the user's feed connections.
func (h *Hub) PushFeedEvent(userID string, event models.FeedEvent) {
	payload, _ := json.Marshal(event)
	for _, target := range h.snapshot(h.feedStreams, userID) {
		if err := target.write(payload); err != nil {
			slog.Warn("websocket write error", "err", err)
			target.conn.Close()
			h.publishWSError("feed", userID, target.conn, err)
			h.RemoveFeedClient(userID, target.conn)
		}
	}
}

func (h *Hub) publishWSError(kind, resourceID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(kind, resourceID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"resource_id": resourceID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(kind, "ws_error")
}

func (h *Hub) getConnInfo(kind, resourceID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if kind == "chat" {
		if infos, ok := h.chatConnInfo[resourceID]; ok {
			info, exists := infos[conn]
			return info, exists
		}
		return ConnInfo{}, false
	}
	if infos, ok := h.feedConnInfo[resourceID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}

func wsRoutingKey(kind string) string {
	if kind == "feed" {
		return "ws_events.feeds"
	}
	return "ws_events.chats"
}
