package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"club-chat-service/internal/models"
	"club-chat-service/internal/observability"
)

// Hub maintains active websocket rooms, one per group.
type Hub struct {
	rooms    map[int64]map[*websocket.Conn]bool
	connInfo map[int64]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[int64]map[*websocket.Conn]bool),
		connInfo: make(map[int64]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection to a group room.
func (h *Hub) AddClient(groupID int64, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[groupID]; !ok {
		h.rooms[groupID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[groupID][conn] = true
	if _, ok := h.connInfo[groupID]; !ok {
		h.connInfo[groupID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[groupID][conn] = info
}

// RemoveClient removes a group websocket connection.
func (h *Hub) RemoveClient(groupID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[groupID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, groupID)
		}
	}
	if infos, ok := h.connInfo[groupID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, groupID)
		}
	}
}

// BroadcastMessage sends a new message to all clients in the group room.
func (h *Hub) BroadcastMessage(groupID int64, msg models.Message) {
	h.broadcast(groupID, models.GroupEvent{Type: models.EventMessage, Message: &msg})
}

// BroadcastEdit notifies clients that a message was edited.
func (h *Hub) BroadcastEdit(groupID int64, msg models.Message) {
	h.broadcast(groupID, models.GroupEvent{Type: models.EventMessageEdited, Message: &msg})
}

// BroadcastDeletion notifies clients of a tombstoned message.
func (h *Hub) BroadcastDeletion(groupID, messageID int64) {
	h.broadcast(groupID, models.GroupEvent{Type: models.EventDeleteForAll, MessageID: messageID})
}

// BroadcastReaction notifies clients of a reaction toggle.
func (h *Hub) BroadcastReaction(groupID, messageID, memberID int64, emoji string, added bool) {
	h.broadcast(groupID, models.GroupEvent{
		Type:      models.EventReaction,
		MessageID: messageID,
		MemberID:  memberID,
		Emoji:     emoji,
		Added:     added,
	})
}

// BroadcastMembership notifies clients of roster changes.
func (h *Hub) BroadcastMembership(groupID int64, eventType string, memberID int64, membership *models.Membership) {
	h.broadcast(groupID, models.GroupEvent{
		Type:       eventType,
		MemberID:   memberID,
		Membership: membership,
	})
}

func (h *Hub) broadcast(groupID int64, event models.GroupEvent) {
	conns := h.connsSnapshot(groupID)

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveClient(groupID, conn)
			h.publishWSError(groupID, conn, err)
		}
	}
}

// connsSnapshot copies the room's connections so writes happen outside the
// lock and a concurrent AddClient/RemoveClient cannot mutate the map
// mid-iteration.
func (h *Hub) connsSnapshot(groupID int64) []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[groupID]))
	for conn := range h.rooms[groupID] {
		conns = append(conns, conn)
	}
	return conns
}

func (h *Hub) publishWSError(groupID int64, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(groupID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "group",
			"resource_id": groupID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"member_id": info.MemberID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.groups", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("group", "ws_error")
}

func (h *Hub) getConnInfo(groupID int64, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[groupID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
