package api

import (
	"errors"
	"net/http"
	"strconv"

	"chatster/backend/internal/models"
	"chatster/backend/internal/repository"
	"chatster/backend/internal/service"
	"chatster/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RealtimeNotifier delivers targeted notices to online users. Implemented by
// the websocket hub.
type RealtimeNotifier interface {
	NotifyNewConversation(userID uint, conversation models.ConversationDTO) bool
}

// ConversationController handles conversation-related API endpoints
type ConversationController struct {
	service  *service.ConversationService
	notifier RealtimeNotifier
	logger   *logger.Logger
}

// NewConversationController creates a new conversation controller
func NewConversationController(service *service.ConversationService, notifier RealtimeNotifier, log *logger.Logger) *ConversationController {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &ConversationController{
		service:  service,
		notifier: notifier,
		logger:   log,
	}
}

// RegisterRoutesV1 registers conversation routes on an authenticated group
func (ctrl *ConversationController) RegisterRoutesV1(group *gin.RouterGroup) {
	conversations := group.Group("/conversations")
	{
		conversations.GET("", ctrl.ListMine)
		conversations.GET("/all", ctrl.ListAll)
		conversations.POST("", ctrl.Create)
		conversations.GET("/:id/messages", ctrl.GetMessages)
		conversations.POST("/:id/members", ctrl.AddMember)
		conversations.DELETE("/:id/members/:userId", ctrl.RemoveMember)
		conversations.DELETE("/:id", ctrl.Delete)
	}
}

// ListMine returns the conversations the caller belongs to
func (ctrl *ConversationController) ListMine(c *gin.Context) {
	userID := c.MustGet("userId").(uint)

	conversations, err := ctrl.service.Conversations(userID)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	out := make([]models.ConversationDTO, 0, len(conversations))
	for i := range conversations {
		out = append(out, models.NewConversationDTO(&conversations[i]))
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

// ListAll returns every conversation with the caller's access flag
func (ctrl *ConversationController) ListAll(c *gin.Context) {
	userID := c.MustGet("userId").(uint)

	conversations, err := ctrl.service.AllConversations(userID)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// Create creates a conversation. The caller is always the creator; any
// participant that cannot be added is skipped without failing the request.
func (ctrl *ConversationController) Create(c *gin.Context) {
	userID := c.MustGet("userId").(uint)

	var req models.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	// The caller is the creator regardless of the submitted ordering.
	participantIDs := make([]uint, 0, len(req.ParticipantIDs)+1)
	participantIDs = append(participantIDs, userID)
	for _, id := range req.ParticipantIDs {
		if id != userID {
			participantIDs = append(participantIDs, id)
		}
	}

	conversation, added, err := ctrl.service.CreateConversation(req.ChatName, participantIDs)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	dto := models.NewConversationDTO(conversation)
	for _, addedID := range added {
		ctrl.notifier.NotifyNewConversation(addedID, dto)
	}

	c.JSON(http.StatusCreated, gin.H{"conversation": dto})
}

// GetMessages returns a page of messages, newest first
func (ctrl *ConversationController) GetMessages(c *gin.Context) {
	userID := c.MustGet("userId").(uint)

	conversationID, ok := ctrl.pathID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := ctrl.service.Messages(conversationID, userID, limit, offset)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	out := make([]models.MessageDTO, 0, len(messages))
	for i := range messages {
		out = append(out, models.NewMessageDTO(&messages[i]))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// AddMember adds a user to a conversation and notifies them if online
func (ctrl *ConversationController) AddMember(c *gin.Context) {
	userID := c.MustGet("userId").(uint)

	conversationID, ok := ctrl.pathID(c, "id")
	if !ok {
		return
	}

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	added, err := ctrl.service.AddUser(conversationID, userID, req.UserID)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	if added {
		if conversation, err := ctrl.service.Conversation(conversationID); err == nil {
			ctrl.notifier.NotifyNewConversation(req.UserID, models.NewConversationDTO(conversation))
		}
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// RemoveMember removes a user from a conversation
func (ctrl *ConversationController) RemoveMember(c *gin.Context) {
	userID := c.MustGet("userId").(uint)

	conversationID, ok := ctrl.pathID(c, "id")
	if !ok {
		return
	}

	targetID64, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	conversation, err := ctrl.service.RemoveUser(conversationID, userID, uint(targetID64))
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": models.NewConversationDTO(conversation)})
}

// Delete removes a conversation with its messages and memberships
func (ctrl *ConversationController) Delete(c *gin.Context) {
	userID := c.MustGet("userId").(uint)

	conversationID, ok := ctrl.pathID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.service.DeleteConversation(conversationID, userID); err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (ctrl *ConversationController) pathID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return 0, false
	}
	return uint(id), true
}

// respondError maps service and store errors onto HTTP responses. Authz and
// validation failures are scoped to the caller; nothing here is broadcast.
func (ctrl *ConversationController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this conversation"})
	case errors.Is(err, service.ErrEmptyChatName),
		errors.Is(err, service.ErrNoParticipants),
		errors.Is(err, service.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, repository.ErrNotMember):
		c.JSON(http.StatusNotFound, gin.H{"error": "User is not a member of this conversation"})
	default:
		ctrl.logger.Error("Conversation request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
