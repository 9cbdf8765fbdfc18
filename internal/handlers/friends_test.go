package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/fanout"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

func setupFriendRouter(handler *FriendHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})
	r.POST("/friends/requests", handler.SendRequest)
	r.POST("/friends/requests/:request_id/accept", handler.AcceptRequest)
	r.POST("/friends/requests/:request_id/reject", handler.RejectRequest)
	r.DELETE("/friends/:user_id", handler.RemoveFriend)
	r.GET("/friends", handler.ListFriends)
	r.GET("/friends/requests", handler.ListRequests)
	r.GET("/users/:user_id/friendship", handler.FriendStatus)
	return r
}

func TestSendFriendRequestSuccess(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	writer := fanout.NewWriter(nil, nil, notifications, nil)
	handler := NewFriendHandler(friends, users, notifications, writer)
	router := setupFriendRouter(handler)

	users.On("GetByID", mock.Anything, "u1").Return(models.User{ID: "u1", Name: "Ann"}, nil).Once()
	users.On("GetByID", mock.Anything, "u2").Return(models.User{ID: "u2", Name: "Bob"}, nil).Once()
	friends.On("AreFriends", mock.Anything, "u1", "u2").Return(false, nil).Once()
	friends.On("CreateRequest", mock.Anything, mock.MatchedBy(func(r models.FriendRequest) bool {
		return r.SenderID == "u1" && r.RecipientID == "u2" && r.Status == models.FriendRequestPending
	})).Return(models.FriendRequest{ID: "r1", SenderID: "u1", RecipientID: "u2", Status: models.FriendRequestPending}, nil).Once()
	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.RecipientID == "u2" && n.Type == models.NotificationFriendRequest
	})).Return(models.Notification{ID: "n1"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"recipient_id":"u2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	friends.AssertExpectations(t)
	users.AssertExpectations(t)
	notifications.AssertExpectations(t)
}

func TestSendFriendRequestToSelf(t *testing.T) {
	handler := NewFriendHandler(new(mocks.FriendRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.NotificationRepositoryMock), fanout.NewWriter(nil, nil, nil, nil))
	router := setupFriendRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"recipient_id":"u1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendFriendRequestAlreadyFriends(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	handler := NewFriendHandler(friends, users, new(mocks.NotificationRepositoryMock), fanout.NewWriter(nil, nil, nil, nil))
	router := setupFriendRouter(handler)

	users.On("GetByID", mock.Anything, "u1").Return(models.User{ID: "u1"}, nil).Once()
	users.On("GetByID", mock.Anything, "u2").Return(models.User{ID: "u2"}, nil).Once()
	friends.On("AreFriends", mock.Anything, "u1", "u2").Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"recipient_id":"u2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	friends.AssertExpectations(t)
}

func TestAcceptRequestSuccess(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	writer := fanout.NewWriter(nil, nil, notifications, nil)
	handler := NewFriendHandler(friends, users, notifications, writer)
	router := setupFriendRouter(handler)

	pending := models.FriendRequest{ID: "r1", SenderID: "u2", RecipientID: "u1", Status: models.FriendRequestPending}
	accepted := pending
	accepted.Status = models.FriendRequestAccepted

	friends.On("GetRequest", mock.Anything, "r1").Return(pending, nil).Once()
	friends.On("AcceptRequest", mock.Anything, "r1").Return(accepted, nil).Once()
	notifications.On("DeleteFriendRequestNotice", mock.Anything, "u1", "u2").Return(nil).Once()
	users.On("GetByID", mock.Anything, "u1").Return(models.User{ID: "u1", Name: "Ann"}, nil).Once()
	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.RecipientID == "u2" && n.Type == models.NotificationGlobal
	})).Return(models.Notification{ID: "n2"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/r1/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	friends.AssertExpectations(t)
	notifications.AssertExpectations(t)
}

func TestAcceptRequestWrongRecipient(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(friends, new(mocks.UserRepositoryMock), new(mocks.NotificationRepositoryMock), fanout.NewWriter(nil, nil, nil, nil))
	router := setupFriendRouter(handler)

	friends.On("GetRequest", mock.Anything, "r1").Return(models.FriendRequest{
		ID: "r1", SenderID: "u1", RecipientID: "u9", Status: models.FriendRequestPending,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/r1/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	friends.AssertExpectations(t)
}

func TestRemoveFriendIdempotent(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(friends, new(mocks.UserRepositoryMock), new(mocks.NotificationRepositoryMock), fanout.NewWriter(nil, nil, nil, nil))
	router := setupFriendRouter(handler)

	friends.On("RemoveFriendship", mock.Anything, "u1", "u5").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/friends/u5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	friends.AssertExpectations(t)
}

func TestRemoveFriendSelf(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(friends, new(mocks.UserRepositoryMock), new(mocks.NotificationRepositoryMock), fanout.NewWriter(nil, nil, nil, nil))
	router := setupFriendRouter(handler)

	friends.On("RemoveFriendship", mock.Anything, "u1", "u1").Return(repositories.ErrSelfFriendship).Once()

	req := httptest.NewRequest(http.MethodDelete, "/friends/u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	friends.AssertExpectations(t)
}

func TestListFriendsFullPageReportsMore(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(friends, new(mocks.UserRepositoryMock), new(mocks.NotificationRepositoryMock), fanout.NewWriter(nil, nil, nil, nil))
	router := setupFriendRouter(handler)

	now := time.Now()
	entries := []models.FriendEntry{
		{User: models.User{ID: "u2"}, PairID: "u1_u2", FriendedAt: now},
		{User: models.User{ID: "u3"}, PairID: "u1_u3", FriendedAt: now.Add(-time.Minute)},
	}
	friends.On("ListFriends", mock.Anything, "u1", mock.Anything, 2).Return(entries, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends?limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["has_more"])
	assert.NotEmpty(t, resp["next_cursor"])
	friends.AssertExpectations(t)
}

func TestListFriendsInvalidCursor(t *testing.T) {
	handler := NewFriendHandler(new(mocks.FriendRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.NotificationRepositoryMock), fanout.NewWriter(nil, nil, nil, nil))
	router := setupFriendRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/friends?cursor=%21%21not-base64%21%21", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFriendStatus(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewFriendHandler(friends, new(mocks.UserRepositoryMock), new(mocks.NotificationRepositoryMock), fanout.NewWriter(nil, nil, nil, nil))
	router := setupFriendRouter(handler)

	friends.On("AreFriends", mock.Anything, "u1", "u2").Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/u2/friendship", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, true, data["friends"])
	friends.AssertExpectations(t)
}
