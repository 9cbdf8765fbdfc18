package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/presence"
)

// PresenceHandler exposes the presence tracker over HTTP for clients that
// do not hold a feed websocket.
type PresenceHandler struct {
	tracker *presence.Tracker
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(tracker *presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

// Get returns a user's presence record. Unknown users read as offline.
func (h *PresenceHandler) Get(c *gin.Context) {
	record, err := h.tracker.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load presence")
		return
	}
	respondData(c, http.StatusOK, record)
}

// GoOnline marks the caller online.
func (h *PresenceHandler) GoOnline(c *gin.Context) {
	var req struct {
		Location string `json:"location"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.tracker.GoOnline(c.Request.Context(), currentUserID(c), req.Location); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update presence")
		return
	}
	respondMessage(c, http.StatusOK, "online")
}

// Heartbeat refreshes the caller's liveness window.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	if err := h.tracker.Heartbeat(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to refresh presence")
		return
	}
	c.Status(http.StatusNoContent)
}

// GoOffline marks the caller offline.
func (h *PresenceHandler) GoOffline(c *gin.Context) {
	if err := h.tracker.GoOffline(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update presence")
		return
	}
	respondMessage(c, http.StatusOK, "offline")
}
