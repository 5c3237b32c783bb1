package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatster/backend/internal/models"
	"chatster/backend/internal/repository"
	"chatster/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeNotifier records targeted notices instead of delivering them.
type fakeNotifier struct {
	notified []uint
	online   bool
}

func (f *fakeNotifier) NotifyNewConversation(userID uint, _ models.ConversationDTO) bool {
	f.notified = append(f.notified, userID)
	return f.online
}

type apiFixture struct {
	engine   *gin.Engine
	db       *gorm.DB
	service  *service.ConversationService
	notifier *fakeNotifier
	// authAs is the user id injected in place of JWT middleware.
	authAs uint
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}))

	f := &apiFixture{
		db:       db,
		notifier: &fakeNotifier{online: true},
	}
	f.service = service.NewConversationService(repository.NewGormConversationRepository(db), nil, nil)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set("userId", f.authAs)
		c.Next()
	})

	ctrl := NewConversationController(f.service, f.notifier, nil)
	ctrl.RegisterRoutesV1(engine.Group("/api/v1"))
	f.engine = engine
	return f
}

func (f *apiFixture) seedUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	require.NoError(t, f.db.Create(&user).Error)
	return &user
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestCreateConversationEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	f.authAs = alice.ID

	w := f.do(t, http.MethodPost, "/api/v1/conversations", models.CreateConversationRequest{
		ChatName:       "general",
		ParticipantIDs: []uint{bob.ID, alice.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Conversation models.ConversationDTO `json:"conversation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "general", resp.Conversation.ChatName)

	// Only the added participant is notified, not the creator.
	assert.Equal(t, []uint{bob.ID}, f.notifier.notified)

	// Both users are members.
	for _, id := range []uint{alice.ID, bob.ID} {
		member, err := f.service.IsMember(id, resp.Conversation.ID)
		require.NoError(t, err)
		assert.True(t, member)
	}
}

func TestCreateConversationValidationErrors(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.seedUser(t, "alice")
	f.authAs = alice.ID

	w := f.do(t, http.MethodPost, "/api/v1/conversations", gin.H{"participant_ids": []uint{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/conversations", gin.H{"chat_name": "  ", "participant_ids": []uint{alice.ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMineAndAll(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	_, _, err := f.service.CreateConversation("mine", []uint{alice.ID})
	require.NoError(t, err)
	_, _, err = f.service.CreateConversation("other", []uint{bob.ID})
	require.NoError(t, err)

	f.authAs = alice.ID

	w := f.do(t, http.MethodGet, "/api/v1/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var mine struct {
		Conversations []models.ConversationDTO `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine.Conversations, 1)
	assert.Equal(t, "mine", mine.Conversations[0].ChatName)

	w = f.do(t, http.MethodGet, "/api/v1/conversations/all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var all struct {
		Conversations []models.ConversationAccessDTO `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all.Conversations, 2)
	for _, dto := range all.Conversations {
		assert.Equal(t, dto.ChatName == "mine", dto.CanAccess)
	}
}

func TestGetMessagesEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.seedUser(t, "alice")
	mallory := f.seedUser(t, "mallory")

	conv, _, err := f.service.CreateConversation("general", []uint{alice.ID})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.service.SendMessage(conv.ID, alice.ID, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	f.authAs = alice.ID
	w := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/messages?limit=2&offset=1", conv.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []models.MessageDTO `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "msg-3", resp.Messages[0].Content)
	assert.Equal(t, "msg-2", resp.Messages[1].Content)
	assert.Equal(t, "alice", resp.Messages[0].SenderName)

	// Non-members are rejected with 403.
	f.authAs = mallory.ID
	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/messages", conv.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown conversation is 404 even before the membership gate.
	f.authAs = alice.ID
	w = f.do(t, http.MethodGet, "/api/v1/conversations/999/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Garbage path id is 400.
	w = f.do(t, http.MethodGet, "/api/v1/conversations/abc/messages", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddMemberEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	mallory := f.seedUser(t, "mallory")

	conv, _, err := f.service.CreateConversation("general", []uint{alice.ID})
	require.NoError(t, err)

	// A non-member cannot add people.
	f.authAs = mallory.ID
	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/members", conv.ID), models.AddMemberRequest{UserID: bob.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	f.authAs = alice.ID
	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/members", conv.ID), models.AddMemberRequest{UserID: bob.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"added":true`)
	assert.Equal(t, []uint{bob.ID}, f.notifier.notified)

	// Re-adding reports added=false and sends no notice.
	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/members", conv.ID), models.AddMemberRequest{UserID: bob.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"added":false`)
	assert.Equal(t, []uint{bob.ID}, f.notifier.notified)

	// Unknown target user is 404.
	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/members", conv.ID), models.AddMemberRequest{UserID: 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveMemberEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	mallory := f.seedUser(t, "mallory")

	conv, _, err := f.service.CreateConversation("general", []uint{alice.ID, bob.ID})
	require.NoError(t, err)

	// A non-member cannot remove someone else.
	f.authAs = mallory.ID
	w := f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/conversations/%d/members/%d", conv.ID, bob.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Self-removal works for members.
	f.authAs = bob.ID
	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/conversations/%d/members/%d", conv.ID, bob.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	member, err := f.service.IsMember(bob.ID, conv.ID)
	require.NoError(t, err)
	assert.False(t, member)

	// Removing an already absent member is 404.
	f.authAs = alice.ID
	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/conversations/%d/members/%d", conv.ID, bob.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteConversationEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.seedUser(t, "alice")
	mallory := f.seedUser(t, "mallory")

	conv, _, err := f.service.CreateConversation("doomed", []uint{alice.ID})
	require.NoError(t, err)

	f.authAs = mallory.ID
	w := f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/conversations/%d", conv.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	f.authAs = alice.ID
	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/conversations/%d", conv.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/conversations/%d", conv.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
