package repository

import (
	"errors"
	"time"

	"chatster/backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotMember            = errors.New("user is not a member of the conversation")
)

// ConversationRepository is the durable store behind the conversation engine.
// Every mutating operation runs as a single transaction.
type ConversationRepository interface {
	Create(chatName string, creatorID uint) (*models.Conversation, error)
	GetByID(id uint) (*models.Conversation, error)
	GetByUserID(userID uint) ([]models.Conversation, error)
	GetAll() ([]models.Conversation, error)
	Delete(id uint) error

	AddUser(conversationID, userID uint) (bool, error)
	RemoveUser(conversationID, userID uint) (*models.Conversation, error)
	Members(conversationID uint) ([]models.User, error)
	MemberIDs(conversationID uint) ([]uint, error)
	IsMember(conversationID, userID uint) (bool, error)

	AddMessage(conversationID, senderID uint, content string) (*models.Message, error)
	MessageSlice(conversationID uint, limit, offset int) ([]models.Message, error)
}

type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// Create persists a new conversation and its creator membership atomically.
func (r *GormConversationRepository) Create(chatName string, creatorID uint) (*models.Conversation, error) {
	var conversation models.Conversation

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := tx.First(&creator, creatorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		conversation = models.Conversation{ChatName: chatName}
		if err := tx.Create(&conversation).Error; err != nil {
			return err
		}

		return tx.Exec(
			"INSERT INTO conversation_participants (conversation_id, user_id) VALUES (?, ?)",
			conversation.ID, creator.ID,
		).Error
	})
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *GormConversationRepository) GetByID(id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.First(&conversation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *GormConversationRepository) GetByUserID(userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Find(&conversations).Error
	return conversations, err
}

func (r *GormConversationRepository) GetAll() ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.Find(&conversations).Error
	return conversations, err
}

// Delete removes a conversation together with its messages and memberships.
func (r *GormConversationRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var conversation models.Conversation
		if err := tx.First(&conversation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}

		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM conversation_participants WHERE conversation_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&conversation).Error
	})
}

// AddUser records a membership. The insert is atomic check-and-insert so
// concurrent adds for the same pair cannot produce duplicates. Returns false
// without error when the user is already a member.
func (r *GormConversationRepository) AddUser(conversationID, userID uint) (bool, error) {
	added := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Conversation{}, conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}
		if err := tx.First(&models.User{}, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		res := tx.Exec(
			"INSERT INTO conversation_participants (conversation_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			conversationID, userID,
		)
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected > 0
		return nil
	})

	return added, err
}

// RemoveUser drops a membership. A conversation left with zero members stays
// queryable rather than being auto-deleted.
func (r *GormConversationRepository) RemoveUser(conversationID, userID uint) (*models.Conversation, error) {
	var conversation models.Conversation

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&conversation, conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}

		res := tx.Exec(
			"DELETE FROM conversation_participants WHERE conversation_id = ? AND user_id = ?",
			conversationID, userID,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotMember
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *GormConversationRepository) Members(conversationID uint) ([]models.User, error) {
	if _, err := r.GetByID(conversationID); err != nil {
		return nil, err
	}

	var users []models.User
	err := r.db.
		Joins("JOIN conversation_participants cp ON cp.user_id = users.id").
		Where("cp.conversation_id = ?", conversationID).
		Find(&users).Error
	return users, err
}

func (r *GormConversationRepository) MemberIDs(conversationID uint) ([]uint, error) {
	if _, err := r.GetByID(conversationID); err != nil {
		return nil, err
	}

	var ids []uint
	err := r.db.Table("conversation_participants").
		Where("conversation_id = ?", conversationID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *GormConversationRepository) IsMember(conversationID, userID uint) (bool, error) {
	var count int64
	err := r.db.Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// AddMessage persists a message with a server-assigned timestamp. The sender
// is verified but does not have to be a member; the membership gate belongs
// to the service layer.
func (r *GormConversationRepository) AddMessage(conversationID, senderID uint, content string) (*models.Message, error) {
	var message models.Message

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Conversation{}, conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}

		var sender models.User
		if err := tx.First(&sender, senderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		message = models.Message{
			Content:        content,
			Timestamp:      time.Now().UTC(),
			ConversationID: conversationID,
			SenderID:       senderID,
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		message.Sender = sender
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// MessageSlice returns a page of messages ordered newest first. Ties on equal
// timestamps break on descending id so pagination windows stay stable.
func (r *GormConversationRepository) MessageSlice(conversationID uint, limit, offset int) ([]models.Message, error) {
	if _, err := r.GetByID(conversationID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := r.db.Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}
