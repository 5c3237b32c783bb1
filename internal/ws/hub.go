package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"chatster/backend/internal/models"
	"chatster/backend/internal/repository"
	"chatster/backend/internal/service"
	"chatster/backend/internal/session"
	"chatster/backend/pkg/logger"
)

// Hub is the realtime gateway: it owns the room subscription table, resolves
// connections to users through the session registry, and asks the
// conversation service to authorize every event before acting on it.
type Hub struct {
	registry      *session.Registry
	conversations *service.ConversationService
	logger        *logger.Logger

	mu          sync.RWMutex
	rooms       map[uint]map[*Client]bool
	clientRooms map[*Client]map[uint]bool
	clientsByID map[string]*Client
}

// NewHub creates a hub wired to an explicit session registry and
// conversation service instance.
func NewHub(registry *session.Registry, conversations *service.ConversationService, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Hub{
		registry:      registry,
		conversations: conversations,
		logger:        log,
		rooms:         make(map[uint]map[*Client]bool),
		clientRooms:   make(map[*Client]map[uint]bool),
		clientsByID:   make(map[string]*Client),
	}
}

// register records an authenticated connection in the hub and the session
// registry.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clientsByID[c.ID] = c
	h.mu.Unlock()

	h.registry.Register(c.ID, c.UserID)
	activeConnections.Inc()

	h.logger.Info("Connection registered", "connection_id", c.ID, "user_id", c.UserID)
}

// unregister removes the connection from the session registry and from every
// room it was subscribed to, atomically with respect to broadcasts.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, known := h.clientsByID[c.ID]; !known {
		h.mu.Unlock()
		return
	}
	delete(h.clientsByID, c.ID)
	for roomID := range h.clientRooms[c] {
		delete(h.rooms[roomID], c)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(h.clientRooms, c)
	h.mu.Unlock()

	if userID, ok := h.registry.Unregister(c.ID); ok {
		h.logger.Info("Connection unregistered", "connection_id", c.ID, "user_id", userID)
	}
	activeConnections.Dec()

	// Broadcast snapshots the room before sending, so a send may still be in
	// flight for this client. closeSend makes those sends drop the frame
	// rather than hit a closed channel.
	c.closeSend()
}

// dispatch routes one inbound event to its handler. Each event type is
// registered exactly once.
func (h *Hub) dispatch(c *Client, envelope Envelope) {
	eventsTotal.WithLabelValues(envelope.Type).Inc()

	switch envelope.Type {
	case EventJoinConversation:
		h.handleJoin(c, envelope.Payload)
	case EventLeaveConversation:
		h.handleLeave(c, envelope.Payload)
	case EventSendMessage:
		h.handleSendMessage(c, envelope.Payload)
	default:
		h.logger.Warn("Unknown event type", "type", envelope.Type, "connection_id", c.ID)
		c.sendError("unknown event type")
	}
}

// handleJoin subscribes a member's connection to a room's broadcast group.
func (h *Hub) handleJoin(c *Client, raw json.RawMessage) {
	var payload RoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ConversationID == 0 {
		c.sendError("invalid join_conversation payload")
		return
	}

	member, err := h.conversations.IsMember(c.UserID, payload.ConversationID)
	if err != nil {
		c.sendError(h.eventErrorText(err))
		return
	}
	if !member {
		c.sendError("not a member of this conversation")
		return
	}

	h.mu.Lock()
	if h.rooms[payload.ConversationID] == nil {
		h.rooms[payload.ConversationID] = make(map[*Client]bool)
	}
	h.rooms[payload.ConversationID][c] = true
	if h.clientRooms[c] == nil {
		h.clientRooms[c] = make(map[uint]bool)
	}
	h.clientRooms[c][payload.ConversationID] = true
	h.mu.Unlock()

	h.logger.Debug("Joined room", "connection_id", c.ID, "conversation_id", payload.ConversationID)
}

// handleLeave drops the room subscription if present. Leaving never requires
// authorization, mirroring durable self-removal.
func (h *Hub) handleLeave(c *Client, raw json.RawMessage) {
	var payload RoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ConversationID == 0 {
		c.sendError("invalid leave_conversation payload")
		return
	}

	h.mu.Lock()
	if room := h.rooms[payload.ConversationID]; room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, payload.ConversationID)
		}
	}
	if subs := h.clientRooms[c]; subs != nil {
		delete(subs, payload.ConversationID)
	}
	h.mu.Unlock()
}

// handleSendMessage persists a message and fans it out to the room.
// Membership, not room subscription, is the requirement: a member may send
// without having joined, and only currently subscribed connections receive
// the broadcast.
func (h *Hub) handleSendMessage(c *Client, raw json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ConversationID == 0 {
		c.sendError("invalid send_message payload")
		return
	}

	message, err := h.conversations.SendMessage(payload.ConversationID, c.UserID, payload.Message)
	if err != nil {
		c.sendError(h.eventErrorText(err))
		return
	}

	h.Broadcast(payload.ConversationID, EventNewMessage, models.NewMessageDTO(message))
}

// Broadcast sends an event to every connection subscribed to the room at
// the time of the call. Connections joining mid-broadcast receive only
// subsequent events.
func (h *Hub) Broadcast(conversationID uint, eventType string, payload any) {
	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.rooms[conversationID]))
	for client := range h.rooms[conversationID] {
		subscribers = append(subscribers, client)
	}
	h.mu.RUnlock()

	for _, client := range subscribers {
		client.sendEvent(eventType, payload)
	}
	broadcastsTotal.Inc()
}

// NotifyNewConversation delivers a targeted notice to a single user's
// current connection, independent of room subscriptions. Returns false when
// the user is offline.
func (h *Hub) NotifyNewConversation(userID uint, conversation models.ConversationDTO) bool {
	connID, online := h.registry.LookupConnection(userID)
	if !online {
		return false
	}

	h.mu.RLock()
	client := h.clientsByID[connID]
	h.mu.RUnlock()

	if client == nil {
		return false
	}

	client.sendEvent(EventNewConversation, conversation)
	return true
}

// RoomSize reports the current number of subscribers for a room.
func (h *Hub) RoomSize(conversationID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[conversationID])
}

// eventErrorText maps service errors to client-safe error strings. Internal
// errors are logged and reported generically.
func (h *Hub) eventErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrNotMember):
		return "unauthorized: not a member of this conversation"
	case errors.Is(err, service.ErrEmptyContent):
		return "message content must not be empty"
	case errors.Is(err, repository.ErrConversationNotFound):
		return "conversation not found"
	case errors.Is(err, repository.ErrUserNotFound):
		return "user not found"
	default:
		h.logger.LogError(err, "Realtime event failed")
		return "internal error"
	}
}
