package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"social-service/internal/auth"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// AuthHandler manages registration, sessions and credential changes.
type AuthHandler struct {
	svc     *auth.Service
	emitter *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler. emitter may be nil.
func NewAuthHandler(svc *auth.Service, emitter *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{svc: svc, emitter: emitter}
}

// Register creates an account and returns the user with an initial token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string     `json:"email" binding:"required,email"`
		Password  string     `json:"password" binding:"required"`
		Name      string     `json:"name" binding:"required"`
		Username  string     `json:"username" binding:"required"`
		BirthDate *time.Time `json:"birth_date"`
		Gender    string     `json:"gender"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.svc.Register(c.Request.Context(), auth.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Username:  req.Username,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
	})
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, repositories.ErrEmailTaken), errors.Is(err, repositories.ErrUsernameTaken):
		respondError(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "could not create account")
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO", "account registered", requestIDFromContext(c), &user.ID)
	respondData(c, http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login verifies credentials and returns a fresh token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(c, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not sign in")
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO", "signed in", requestIDFromContext(c), &user.ID)
	respondData(c, http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout revokes the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		respondError(c, http.StatusUnauthorized, "missing authorization")
		return
	}
	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}
	respondMessage(c, http.StatusOK, "signed out")
}

// RequestPasswordReset issues a one-time reset token. The response does not
// reveal whether the email exists.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svc.CreatePasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, http.StatusInternalServerError, "could not issue reset token")
		return
	}
	respondMessage(c, http.StatusOK, "if the account exists, a reset token has been issued")
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrResetTokenInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrWeakPassword):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "could not reset password")
		return
	}
	respondMessage(c, http.StatusOK, "password updated")
}

// UpdateEmail changes the account email after re-checking the password.
func (h *AuthHandler) UpdateEmail(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
		NewEmail string `json:"new_email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.svc.UpdateEmail(c.Request.Context(), currentUserID(c), req.Password, req.NewEmail)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, repositories.ErrEmailTaken):
		respondError(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "could not update email")
		return
	}
	respondMessage(c, http.StatusOK, "email updated")
}

// UpdatePassword rotates the password after verifying the current one.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.svc.UpdatePassword(c.Request.Context(), currentUserID(c), req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, auth.ErrWeakPassword):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "could not update password")
		return
	}
	respondMessage(c, http.StatusOK, "password updated")
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
