package service

import (
	"errors"
	"strings"

	"chatster/backend/internal/models"
	"chatster/backend/internal/repository"
	"chatster/backend/pkg/logger"
)

var (
	ErrNotMember      = errors.New("user is not a member of this conversation")
	ErrEmptyContent   = errors.New("message content must not be empty")
	ErrEmptyChatName  = errors.New("chat name must not be empty")
	ErrNoParticipants = errors.New("participant list must not be empty")
)

// DefaultMessagePageLimit bounds the message page size.
const DefaultMessagePageLimit = 30

// ConversationService enforces the invariants the store does not know about:
// every mutating or room-sensitive operation is gated on membership before it
// is honored.
type ConversationService struct {
	repo   repository.ConversationRepository
	cache  MemberCache
	logger *logger.Logger
}

// NewConversationService creates a new conversation service. The cache may be
// nil, in which case every membership check hits the store.
func NewConversationService(repo repository.ConversationRepository, cache MemberCache, log *logger.Logger) *ConversationService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &ConversationService{repo: repo, cache: cache, logger: log}
}

// IsMember is the single authorization primitive. It reads through the
// member cache when one is configured and repopulates it on a miss.
func (s *ConversationService) IsMember(userID, conversationID uint) (bool, error) {
	if s.cache != nil {
		if ids, ok := s.cache.Members(conversationID); ok {
			for _, id := range ids {
				if id == userID {
					return true, nil
				}
			}
			return false, nil
		}
	}

	ids, err := s.repo.MemberIDs(conversationID)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		s.cache.Store(conversationID, ids)
	}

	for _, id := range ids {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// SendMessage validates and persists a message on behalf of a member.
func (s *ConversationService) SendMessage(conversationID, userID uint, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	member, err := s.IsMember(userID, conversationID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	return s.repo.AddMessage(conversationID, userID, content)
}

// CreateConversation creates a conversation owned by the first participant
// and adds the remaining participants best effort: a failure adding one does
// not roll back the conversation or abort the others. The returned slice
// holds the ids of participants actually added beyond the creator.
func (s *ConversationService) CreateConversation(chatName string, participantIDs []uint) (*models.Conversation, []uint, error) {
	if strings.TrimSpace(chatName) == "" {
		return nil, nil, ErrEmptyChatName
	}
	if len(participantIDs) == 0 {
		return nil, nil, ErrNoParticipants
	}

	creatorID := participantIDs[0]
	conversation, err := s.repo.Create(chatName, creatorID)
	if err != nil {
		return nil, nil, err
	}

	var added []uint
	for _, id := range participantIDs[1:] {
		if id == creatorID {
			continue
		}
		ok, err := s.repo.AddUser(conversation.ID, id)
		if err != nil {
			s.logger.Warn("Skipping participant that could not be added",
				"conversation_id", conversation.ID,
				"user_id", id,
				"error", err.Error(),
			)
			continue
		}
		if ok {
			added = append(added, id)
		}
	}

	if s.cache != nil {
		s.cache.Invalidate(conversation.ID)
	}

	return conversation, added, nil
}

// AddUser adds target to the conversation on behalf of actor, who must be a
// member. Adding an existing member is a no-op reported as added=false.
func (s *ConversationService) AddUser(conversationID, actorID, targetID uint) (bool, error) {
	member, err := s.IsMember(actorID, conversationID)
	if err != nil {
		return false, err
	}
	if !member {
		return false, ErrNotMember
	}

	added, err := s.repo.AddUser(conversationID, targetID)
	if err != nil {
		return false, err
	}

	if added && s.cache != nil {
		s.cache.Invalidate(conversationID)
	}
	return added, nil
}

// RemoveUser removes target from the conversation. A user may always remove
// themself; removing anyone else requires the actor to be a member.
func (s *ConversationService) RemoveUser(conversationID, actorID, targetID uint) (*models.Conversation, error) {
	if actorID != targetID {
		member, err := s.IsMember(actorID, conversationID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, ErrNotMember
		}
	}

	conversation, err := s.repo.RemoveUser(conversationID, targetID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(conversationID)
	}
	return conversation, nil
}

// Conversation fetches a single conversation by id.
func (s *ConversationService) Conversation(conversationID uint) (*models.Conversation, error) {
	return s.repo.GetByID(conversationID)
}

// Conversations lists the conversations the user belongs to.
func (s *ConversationService) Conversations(userID uint) ([]models.Conversation, error) {
	return s.repo.GetByUserID(userID)
}

// AllConversations is the discovery view: every conversation, flagged with
// whether the caller can access it.
func (s *ConversationService) AllConversations(userID uint) ([]models.ConversationAccessDTO, error) {
	conversations, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	out := make([]models.ConversationAccessDTO, 0, len(conversations))
	for i := range conversations {
		member, err := s.IsMember(userID, conversations[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.NewConversationAccessDTO(&conversations[i], member))
	}
	return out, nil
}

// Members lists the member ids of a conversation.
func (s *ConversationService) Members(conversationID uint) ([]uint, error) {
	return s.repo.MemberIDs(conversationID)
}

// Messages returns a page of messages, newest first, for a member. Limit is
// clamped to DefaultMessagePageLimit and offset is clamped to zero.
func (s *ConversationService) Messages(conversationID, userID uint, limit, offset int) ([]models.Message, error) {
	member, err := s.IsMember(userID, conversationID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	if limit <= 0 || limit > DefaultMessagePageLimit {
		limit = DefaultMessagePageLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.MessageSlice(conversationID, limit, offset)
}

// DeleteConversation removes a conversation with its messages and
// memberships. Only members may delete.
func (s *ConversationService) DeleteConversation(conversationID, actorID uint) error {
	member, err := s.IsMember(actorID, conversationID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}

	if err := s.repo.Delete(conversationID); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(conversationID)
	}
	return nil
}
