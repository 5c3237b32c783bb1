package ws

import (
	"encoding/json"
)

// Event types exchanged with clients. The wire format is a JSON envelope
// {type, payload} in both directions.
const (
	// client -> server
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"

	// server -> client
	EventAuthError       = "auth_error"
	EventNewMessage      = "new_message"
	EventNewConversation = "new_conversation"
	EventError           = "error"
)

// Envelope is the wire frame for every realtime event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RoomPayload carries the conversation id for join/leave events.
type RoomPayload struct {
	ConversationID uint `json:"conversation_id"`
}

// SendMessagePayload carries an outbound chat message from a client.
type SendMessagePayload struct {
	ConversationID uint   `json:"conversation_id"`
	Message        string `json:"message"`
}

// ErrorPayload is sent to the offending connection only.
type ErrorPayload struct {
	Error string `json:"error"`
}

// AuthErrorPayload precedes a forced disconnect.
type AuthErrorPayload struct {
	Message string `json:"message"`
}

func marshalEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}
