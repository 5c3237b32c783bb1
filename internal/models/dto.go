package models

import (
	"time"
)

// ConversationDTO is the wire shape for a conversation summary.
type ConversationDTO struct {
	ID       uint   `json:"id"`
	ChatName string `json:"chat_name"`
}

// ConversationAccessDTO extends ConversationDTO with the caller's access flag,
// used by the discovery listing.
type ConversationAccessDTO struct {
	ConversationDTO
	CanAccess bool `json:"can_access"`
}

// MessageDTO is the wire shape for a message, broadcast as the new_message
// payload and returned by the message page endpoint.
type MessageDTO struct {
	ID             uint   `json:"id"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
	ConversationID uint   `json:"conversation_id"`
	SenderName     string `json:"sender_name"`
}

// UserDTO is the wire shape for a user profile.
type UserDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewConversationDTO builds a ConversationDTO from a Conversation entity.
func NewConversationDTO(c *Conversation) ConversationDTO {
	return ConversationDTO{ID: c.ID, ChatName: c.ChatName}
}

// NewConversationAccessDTO builds the discovery view of a conversation.
func NewConversationAccessDTO(c *Conversation, canAccess bool) ConversationAccessDTO {
	return ConversationAccessDTO{ConversationDTO: NewConversationDTO(c), CanAccess: canAccess}
}

// NewMessageDTO builds a MessageDTO from a Message entity. The sender must be
// preloaded; sender attribution survives the sender leaving the conversation.
func NewMessageDTO(m *Message) MessageDTO {
	return MessageDTO{
		ID:             m.ID,
		Content:        m.Content,
		Timestamp:      m.Timestamp.UTC().Format(time.RFC3339Nano),
		ConversationID: m.ConversationID,
		SenderName:     m.Sender.Username,
	}
}

// NewUserDTO builds a UserDTO from a User entity.
func NewUserDTO(u *User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, Email: u.Email}
}
