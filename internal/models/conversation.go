package models

import (
	"time"
)

// Conversation is a multi-party chat. Membership is the durable
// conversation_participants join table, distinct from any live room state.
type Conversation struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ChatName string `gorm:"not null" json:"chat_name"`

	Users    []User    `gorm:"many2many:conversation_participants;" json:"-"`
	Messages []Message `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// Message is an immutable chat message. Timestamp is server-assigned on
// creation; retrieval orders by (timestamp desc, id desc).
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Content        string    `gorm:"not null" json:"content"`
	Timestamp      time.Time `gorm:"index:idx_messages_conv_ts,priority:2" json:"timestamp"`
	ConversationID uint      `gorm:"not null;index:idx_messages_conv_ts,priority:1" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}

// CreateConversationRequest is the request body for creating a conversation
type CreateConversationRequest struct {
	ChatName       string `json:"chat_name" binding:"required"`
	ParticipantIDs []uint `json:"participant_ids" binding:"required"`
}

// AddMemberRequest is the request body for adding a member to a conversation
type AddMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}
