package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/middleware"
	"social-service/internal/models"
	"social-service/internal/pagination"
	"social-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error) {
	args := m.Called(ctx, id, upd)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepositoryMock) UpdateEmail(ctx context.Context, id string, email string) error {
	args := m.Called(ctx, id, email)
	return args.Error(0)
}

func (m *UserRepositoryMock) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *UserRepositoryMock) SearchByUsernamePrefix(ctx context.Context, prefix string, after pagination.Cursor, pageSize int) ([]models.User, error) {
	args := m.Called(ctx, prefix, after, pageSize)
	var out []models.User
	if val := args.Get(0); val != nil {
		out = val.([]models.User)
	}
	return out, args.Error(1)
}

type FriendRepositoryMock struct {
	mock.Mock
}

func (m *FriendRepositoryMock) AddFriendship(ctx context.Context, userA, userB string) error {
	args := m.Called(ctx, userA, userB)
	return args.Error(0)
}

func (m *FriendRepositoryMock) RemoveFriendship(ctx context.Context, userA, userB string) error {
	args := m.Called(ctx, userA, userB)
	return args.Error(0)
}

func (m *FriendRepositoryMock) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) ListFriends(ctx context.Context, userID string, after pagination.Cursor, pageSize int) ([]models.FriendEntry, error) {
	args := m.Called(ctx, userID, after, pageSize)
	var out []models.FriendEntry
	if val := args.Get(0); val != nil {
		out = val.([]models.FriendEntry)
	}
	return out, args.Error(1)
}

func (m *FriendRepositoryMock) CreateRequest(ctx context.Context, req models.FriendRequest) (models.FriendRequest, error) {
	args := m.Called(ctx, req)
	var out models.FriendRequest
	if val := args.Get(0); val != nil {
		out = val.(models.FriendRequest)
	}
	return out, args.Error(1)
}

func (m *FriendRepositoryMock) GetRequest(ctx context.Context, id string) (models.FriendRequest, error) {
	args := m.Called(ctx, id)
	var out models.FriendRequest
	if val := args.Get(0); val != nil {
		out = val.(models.FriendRequest)
	}
	return out, args.Error(1)
}

func (m *FriendRepositoryMock) AcceptRequest(ctx context.Context, id string) (models.FriendRequest, error) {
	args := m.Called(ctx, id)
	var out models.FriendRequest
	if val := args.Get(0); val != nil {
		out = val.(models.FriendRequest)
	}
	return out, args.Error(1)
}

func (m *FriendRepositoryMock) RejectRequest(ctx context.Context, id string) (models.FriendRequest, error) {
	args := m.Called(ctx, id)
	var out models.FriendRequest
	if val := args.Get(0); val != nil {
		out = val.(models.FriendRequest)
	}
	return out, args.Error(1)
}

func (m *FriendRepositoryMock) ListIncomingRequests(ctx context.Context, recipientID string, after pagination.Cursor, pageSize int) ([]models.FriendRequest, error) {
	args := m.Called(ctx, recipientID, after, pageSize)
	var out []models.FriendRequest
	if val := args.Get(0); val != nil {
		out = val.([]models.FriendRequest)
	}
	return out, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	var out models.Notification
	if val := args.Get(0); val != nil {
		out = val.(models.Notification)
	}
	return out, args.Error(1)
}

func (m *NotificationRepositoryMock) ListForRecipient(ctx context.Context, recipientID string, after pagination.Cursor, pageSize int) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID, after, pageSize)
	var out []models.Notification
	if val := args.Get(0); val != nil {
		out = val.([]models.Notification)
	}
	return out, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, recipientID, id string) error {
	args := m.Called(ctx, recipientID, id)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) Delete(ctx context.Context, recipientID, id string) error {
	args := m.Called(ctx, recipientID, id)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) DeleteFriendRequestNotice(ctx context.Context, recipientID, senderID string) error {
	args := m.Called(ctx, recipientID, senderID)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateIfAbsent(ctx context.Context, chat models.Chat) (models.Chat, error) {
	args := m.Called(ctx, chat)
	var out models.Chat
	if val := args.Get(0); val != nil {
		out = val.(models.Chat)
	}
	return out, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var out models.Chat
	if val := args.Get(0); val != nil {
		out = val.(models.Chat)
	}
	return out, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) UpsertSummaries(ctx context.Context, chat models.Chat, peerNames map[string]string) error {
	args := m.Called(ctx, chat, peerNames)
	return args.Error(0)
}

func (m *ChatRepositoryMock) ListSummaries(ctx context.Context, ownerID string, after pagination.Cursor, pageSize int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, ownerID, after, pageSize)
	var out []models.ChatSummary
	if val := args.Get(0); val != nil {
		out = val.([]models.ChatSummary)
	}
	return out, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListByChat(ctx context.Context, chatID string, after pagination.Cursor, pageSize int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, after, pageSize)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

type TokenValidatorMock struct {
	mock.Mock
}

func (m *TokenValidatorMock) Authenticate(ctx context.Context, rawToken string) (string, error) {
	args := m.Called(ctx, rawToken)
	return args.String(0), args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) BroadcastChatMessage(chatID string, msg models.Message) {
	m.Called(chatID, msg)
}

func (m *BroadcasterMock) PushFeedEvent(userID string, event models.FeedEvent) {
	m.Called(userID, event)
}

type FileResolverMock struct {
	mock.Mock
}

func (m *FileResolverMock) Metadata(ctx context.Context, fileID string) (models.FileMeta, error) {
	args := m.Called(ctx, fileID)
	var out models.FileMeta
	if val := args.Get(0); val != nil {
		out = val.(models.FileMeta)
	}
	return out, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.FriendRepository = (*FriendRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ middleware.TokenValidator = (*TokenValidatorMock)(nil)
