package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
	"social-service/internal/pagination"
	"social-service/internal/repositories"
)

// ProfileHandler manages profile endpoints.
type ProfileHandler struct {
	users repositories.UserRepository
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(users repositories.UserRepository) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Me returns the authenticated user's profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), currentUserID(c))
	if errors.Is(err, repositories.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}
	respondData(c, http.StatusOK, user)
}

// UpdateMe applies a partial update to the caller's profile.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var upd models.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUserID(c), upd)
	if errors.Is(err, repositories.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}
	respondData(c, http.StatusOK, user)
}

// GetUser returns another user's public profile.
func (h *ProfileHandler) GetUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("user_id"))
	if errors.Is(err, repositories.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load user")
		return
	}
	respondData(c, http.StatusOK, user)
}

// Search lists users whose username starts with the given prefix, newest
// first, paged by cursor.
func (h *ProfileHandler) Search(c *gin.Context) {
	cursor, size, ok := pageParams(c)
	if !ok {
		return
	}

	users, err := h.users.SearchByUsernamePrefix(c.Request.Context(), c.Query("q"), cursor, size)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to search users")
		return
	}

	var last pagination.Cursor
	if len(users) > 0 {
		tail := users[len(users)-1]
		last = pagination.Cursor{CreatedAt: tail.CreatedAt, ID: tail.ID}
	}
	respondPage(c, users, pagination.PageOf(len(users), size, last))
}
