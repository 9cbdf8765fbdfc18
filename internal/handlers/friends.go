package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"social-service/internal/fanout"
	"social-service/internal/models"
	"social-service/internal/pagination"
	"social-service/internal/repositories"
)

// FriendHandler manages friend requests and the friend list.
type FriendHandler struct {
	friends       repositories.FriendRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	writer        *fanout.Writer
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friends repositories.FriendRepository, users repositories.UserRepository, notifications repositories.NotificationRepository, writer *fanout.Writer) *FriendHandler {
	return &FriendHandler{friends: friends, users: users, notifications: notifications, writer: writer}
}

// SendRequest creates a pending friend request and notifies the recipient.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	userID := currentUserID(c)
	if req.RecipientID == userID {
		respondError(c, http.StatusBadRequest, "cannot befriend yourself")
		return
	}

	sender, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if _, err := h.users.GetByID(c.Request.Context(), req.RecipientID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load user")
		return
	}

	already, err := h.friends.AreFriends(c.Request.Context(), userID, req.RecipientID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to check friendship")
		return
	}
	if already {
		respondError(c, http.StatusConflict, "already friends")
		return
	}

	request, err := h.friends.CreateRequest(c.Request.Context(), models.FriendRequest{
		ID:          uuid.NewString(),
		SenderID:    userID,
		RecipientID: req.RecipientID,
		Status:      models.FriendRequestPending,
	})
	if errors.Is(err, repositories.ErrDuplicateRequest) {
		respondError(c, http.StatusConflict, "request already pending")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not create request")
		return
	}

	_, _ = h.writer.Notify(c.Request.Context(), userID, req.RecipientID,
		sender.Name+" sent you a friend request", models.NotificationFriendRequest)

	respondData(c, http.StatusCreated, request)
}

// AcceptRequest turns a pending request into a friendship. Only the
// recipient may accept.
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	request, ok := h.authorizedRequest(c)
	if !ok {
		return
	}

	accepted, err := h.friends.AcceptRequest(c.Request.Context(), request.ID)
	if !h.respondRequestError(c, err) {
		return
	}

	// The request notice is consumed along with the request itself.
	_ = h.notifications.DeleteFriendRequestNotice(c.Request.Context(), accepted.RecipientID, accepted.SenderID)
	recipient, err := h.users.GetByID(c.Request.Context(), accepted.RecipientID)
	if err == nil {
		_, _ = h.writer.Notify(c.Request.Context(), accepted.RecipientID, accepted.SenderID,
			recipient.Name+" accepted your friend request", models.NotificationGlobal)
	}

	respondData(c, http.StatusOK, accepted)
}

// RejectRequest declines a pending request. Only the recipient may reject.
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	request, ok := h.authorizedRequest(c)
	if !ok {
		return
	}

	rejected, err := h.friends.RejectRequest(c.Request.Context(), request.ID)
	if !h.respondRequestError(c, err) {
		return
	}

	_ = h.notifications.DeleteFriendRequestNotice(c.Request.Context(), rejected.RecipientID, rejected.SenderID)
	respondData(c, http.StatusOK, rejected)
}

// RemoveFriend deletes the friendship. Removing a non-friend is a no-op.
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	err := h.friends.RemoveFriendship(c.Request.Context(), currentUserID(c), c.Param("user_id"))
	if errors.Is(err, repositories.ErrSelfFriendship) {
		respondError(c, http.StatusBadRequest, "cannot unfriend yourself")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not remove friend")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFriends returns the caller's friends, newest friendships first.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	cursor, size, ok := pageParams(c)
	if !ok {
		return
	}

	entries, err := h.friends.ListFriends(c.Request.Context(), currentUserID(c), cursor, size)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load friends")
		return
	}

	var last pagination.Cursor
	if len(entries) > 0 {
		tail := entries[len(entries)-1]
		last = pagination.Cursor{CreatedAt: tail.FriendedAt, ID: tail.PairID}
	}
	respondPage(c, entries, pagination.PageOf(len(entries), size, last))
}

// ListRequests returns pending requests addressed to the caller.
func (h *FriendHandler) ListRequests(c *gin.Context) {
	cursor, size, ok := pageParams(c)
	if !ok {
		return
	}

	requests, err := h.friends.ListIncomingRequests(c.Request.Context(), currentUserID(c), cursor, size)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load requests")
		return
	}

	var last pagination.Cursor
	if len(requests) > 0 {
		tail := requests[len(requests)-1]
		last = pagination.Cursor{CreatedAt: tail.CreatedAt, ID: tail.ID}
	}
	respondPage(c, requests, pagination.PageOf(len(requests), size, last))
}

// FriendStatus reports whether the caller and the named user are friends.
func (h *FriendHandler) FriendStatus(c *gin.Context) {
	friends, err := h.friends.AreFriends(c.Request.Context(), currentUserID(c), c.Param("user_id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to check friendship")
		return
	}
	respondData(c, http.StatusOK, gin.H{"friends": friends})
}

func (h *FriendHandler) authorizedRequest(c *gin.Context) (models.FriendRequest, bool) {
	request, err := h.friends.GetRequest(c.Request.Context(), c.Param("request_id"))
	if errors.Is(err, repositories.ErrRequestNotFound) {
		respondError(c, http.StatusNotFound, "request not found")
		return models.FriendRequest{}, false
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load request")
		return models.FriendRequest{}, false
	}
	if request.RecipientID != currentUserID(c) {
		respondError(c, http.StatusForbidden, "not the request recipient")
		return models.FriendRequest{}, false
	}
	return request, true
}

// respondRequestError writes the response for Accept/Reject failures and
// reports whether the caller may proceed.
func (h *FriendHandler) respondRequestError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, repositories.ErrRequestNotFound):
		respondError(c, http.StatusNotFound, "request not found")
	case errors.Is(err, repositories.ErrRequestNotPending):
		respondError(c, http.StatusConflict, "request already resolved")
	default:
		respondError(c, http.StatusInternalServerError, "could not update request")
	}
	return false
}
