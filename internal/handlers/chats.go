package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/blobstore"
	"social-service/internal/fanout"
	"social-service/internal/models"
	"social-service/internal/pagination"
	"social-service/internal/repositories"
)

// FileResolver resolves an uploaded file id to its descriptor so messages
// can carry file references.
type FileResolver interface {
	Metadata(ctx context.Context, fileID string) (models.FileMeta, error)
}

// ChatHandler manages private chat endpoints.
type ChatHandler struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	friends  repositories.FriendRepository
	writer   *fanout.Writer
	files    FileResolver
}

// NewChatHandler builds a ChatHandler. files may be nil when attachments
// are disabled.
func NewChatHandler(chats repositories.ChatRepository, messages repositories.MessageRepository, users repositories.UserRepository, friends repositories.FriendRepository, writer *fanout.Writer, files FileResolver) *ChatHandler {
	return &ChatHandler{chats: chats, messages: messages, users: users, friends: friends, writer: writer, files: files}
}

// StartChat creates or returns the chat with the named peer. Both sides
// converge on the same chat id regardless of who starts.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		PeerID string `json:"peer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	userID := currentUserID(c)
	if req.PeerID == userID {
		respondError(c, http.StatusBadRequest, "cannot chat with yourself")
		return
	}

	friends, err := h.friends.AreFriends(c.Request.Context(), userID, req.PeerID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to validate friendship")
		return
	}
	if !friends {
		respondError(c, http.StatusForbidden, "users are not friends")
		return
	}

	me, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}
	peer, err := h.users.GetByID(c.Request.Context(), req.PeerID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load user")
		return
	}

	chat, err := h.writer.EnsureChat(c.Request.Context(), userID, req.PeerID, me.Name, peer.Name)
	if errors.Is(err, fanout.ErrSelfChat) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not create chat")
		return
	}

	respondData(c, http.StatusOK, gin.H{"chat_id": chat.ID})
}

// ListChats returns the caller's chat summaries, newest first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	cursor, size, ok := pageParams(c)
	if !ok {
		return
	}

	summaries, err := h.chats.ListSummaries(c.Request.Context(), currentUserID(c), cursor, size)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load chats")
		return
	}

	var last pagination.Cursor
	if len(summaries) > 0 {
		tail := summaries[len(summaries)-1]
		last = pagination.Cursor{CreatedAt: tail.CreatedAt, ID: tail.ChatID}
	}
	respondPage(c, summaries, pagination.PageOf(len(summaries), size, last))
}

// ListMessages returns messages of a chat, newest first, paged by cursor.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	chatID := c.Param("chat_id")
	userID := currentUserID(c)

	member, err := h.chats.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to verify membership")
		return
	}
	if !member {
		respondError(c, http.StatusForbidden, "not a chat member")
		return
	}

	cursor, size, ok := pageParams(c)
	if !ok {
		return
	}

	msgs, err := h.messages.ListByChat(c.Request.Context(), chatID, cursor, size)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load messages")
		return
	}

	var last pagination.Cursor
	if len(msgs) > 0 {
		tail := msgs[len(msgs)-1]
		last = pagination.Cursor{CreatedAt: tail.CreatedAt, ID: tail.ID}
	}
	respondPage(c, msgs, pagination.PageOf(len(msgs), size, last))
}

// PostMessage appends a message to the chat, broadcasts it, and notifies
// the recipient.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	chatID := c.Param("chat_id")
	userID := currentUserID(c)

	chat, err := h.chats.GetChat(c.Request.Context(), chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		respondError(c, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load chat")
		return
	}
	if !chat.HasParticipant(userID) {
		respondError(c, http.StatusForbidden, "not a chat member")
		return
	}

	var req struct {
		Content string `json:"content"`
		FileID  string `json:"file_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	msg := models.Message{
		ChatID:      chatID,
		SenderID:    userID,
		RecipientID: chat.PeerOf(userID),
		Content:     req.Content,
	}
	if req.FileID != "" {
		if h.files == nil {
			respondError(c, http.StatusBadRequest, "attachments are not enabled")
			return
		}
		meta, err := h.files.Metadata(c.Request.Context(), req.FileID)
		if errors.Is(err, blobstore.ErrFileNotFound) {
			respondError(c, http.StatusNotFound, "file not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to resolve file")
			return
		}
		msg.FileURL = meta.URL
		msg.FileType = meta.Type
		msg.FileSize = meta.Size
		msg.FileName = meta.Name
	}

	created, err := h.writer.AppendMessage(c.Request.Context(), msg)
	if errors.Is(err, fanout.ErrEmptyMessage) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to store message")
		return
	}

	_, _ = h.writer.Notify(c.Request.Context(), created.SenderID, created.RecipientID,
		messagePreview(created), models.NotificationMessage)

	respondData(c, http.StatusCreated, created)
}

func messagePreview(msg models.Message) string {
	if msg.Content == "" {
		return "sent you a file"
	}
	const max = 80
	runes := []rune(msg.Content)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return msg.Content
}
