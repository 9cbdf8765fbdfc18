package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/pagination"
	"social-service/internal/repositories"
)

// NotificationHandler manages the caller's notification feed. Every
// operation is scoped to the authenticated recipient; one user can never
// read or mutate another user's notifications.
type NotificationHandler struct {
	notifications repositories.NotificationRepository
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(notifications repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first, paged by cursor.
func (h *NotificationHandler) List(c *gin.Context) {
	cursor, size, ok := pageParams(c)
	if !ok {
		return
	}

	items, err := h.notifications.ListForRecipient(c.Request.Context(), currentUserID(c), cursor, size)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	var last pagination.Cursor
	if len(items) > 0 {
		tail := items[len(items)-1]
		last = pagination.Cursor{CreatedAt: tail.CreatedAt, ID: tail.ID}
	}
	respondPage(c, items, pagination.PageOf(len(items), size, last))
}

// MarkRead flips the read flag on one of the caller's notifications.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	err := h.notifications.MarkRead(c.Request.Context(), currentUserID(c), c.Param("notification_id"))
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		respondError(c, http.StatusNotFound, "notification not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not update notification")
		return
	}
	respondMessage(c, http.StatusOK, "marked read")
}

// Delete removes one of the caller's notifications.
func (h *NotificationHandler) Delete(c *gin.Context) {
	err := h.notifications.Delete(c.Request.Context(), currentUserID(c), c.Param("notification_id"))
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		respondError(c, http.StatusNotFound, "notification not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}

// UnreadCount returns how many unread notifications the caller has.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to count notifications")
		return
	}
	respondData(c, http.StatusOK, gin.H{"unread": count})
}
