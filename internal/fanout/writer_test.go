package fanout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/mocks"
	"social-service/internal/models"
)

func TestPairIDDeterministic(t *testing.T) {
	assert.Equal(t, models.PairID("a", "b"), models.PairID("b", "a"))
	assert.Equal(t, "a_b", models.PairID("b", "a"))
	assert.NotEqual(t, models.PairID("a", "b"), models.PairID("a", "c"))
}

func TestEnsureChatWritesBothSummaries(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	writer := NewWriter(chats, nil, nil, nil)

	want := models.Chat{ID: "u1_u2", User1ID: "u1", User2ID: "u2"}
	chats.On("CreateIfAbsent", mock.Anything, want).Return(want, nil).Once()
	chats.On("UpsertSummaries", mock.Anything, want, map[string]string{"u1": "Ann", "u2": "Bob"}).Return(nil).Once()

	chat, err := writer.EnsureChat(context.Background(), "u1", "u2", "Ann", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "u1_u2", chat.ID)
	chats.AssertExpectations(t)
}

func TestEnsureChatConvergesRegardlessOfCallerOrder(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	writer := NewWriter(chats, nil, nil, nil)

	stored := models.Chat{ID: "u1_u2", User1ID: "u1", User2ID: "u2"}
	chats.On("CreateIfAbsent", mock.Anything, mock.MatchedBy(func(c models.Chat) bool {
		return c.ID == "u1_u2"
	})).Return(stored, nil).Twice()
	chats.On("UpsertSummaries", mock.Anything, stored, mock.Anything).Return(nil).Twice()

	first, err := writer.EnsureChat(context.Background(), "u1", "u2", "Ann", "Bob")
	require.NoError(t, err)
	second, err := writer.EnsureChat(context.Background(), "u2", "u1", "Bob", "Ann")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	chats.AssertExpectations(t)
}

func TestEnsureChatRejectsSelfChat(t *testing.T) {
	writer := NewWriter(new(mocks.ChatRepositoryMock), nil, nil, nil)

	_, err := writer.EnsureChat(context.Background(), "u1", "u1", "Ann", "Ann")
	assert.ErrorIs(t, err, ErrSelfChat)
}

func TestAppendMessageCreatesMissingChat(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	writer := NewWriter(chats, messages, nil, broadcaster)

	chat := models.Chat{ID: "u1_u2", User1ID: "u1", User2ID: "u2"}
	chats.On("CreateIfAbsent", mock.Anything, chat).Return(chat, nil).Once()
	chats.On("UpsertSummaries", mock.Anything, chat, map[string]string(nil)).Return(nil).Once()
	messages.On("Create", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.ChatID == "u1_u2" && m.ID != "" && m.Content == "hi"
	})).Return(models.Message{ID: "m1", ChatID: "u1_u2", SenderID: "u1", RecipientID: "u2", Content: "hi"}, nil).Once()
	broadcaster.On("BroadcastChatMessage", "u1_u2", mock.Anything).Once()

	created, err := writer.AppendMessage(context.Background(), models.Message{
		SenderID:    "u1",
		RecipientID: "u2",
		Content:     "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", created.ID)
	chats.AssertExpectations(t)
	messages.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestAppendMessageRejectsEmpty(t *testing.T) {
	writer := NewWriter(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), nil, nil)

	_, err := writer.AppendMessage(context.Background(), models.Message{SenderID: "u1", RecipientID: "u2"})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAppendMessageRequiresParticipants(t *testing.T) {
	writer := NewWriter(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), nil, nil)

	_, err := writer.AppendMessage(context.Background(), models.Message{SenderID: "u1", Content: "hi"})
	assert.ErrorIs(t, err, ErrMissingParticipants)
}

func TestNotifyWritesOwnerScopedNotification(t *testing.T) {
	notifications := new(mocks.NotificationRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	writer := NewWriter(nil, nil, notifications, broadcaster)

	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.RecipientID == "u2" && n.SenderID == "u1" && n.Type == models.NotificationMessage && n.ID != ""
	})).Return(models.Notification{ID: "n1", RecipientID: "u2", Type: models.NotificationMessage}, nil).Once()
	broadcaster.On("PushFeedEvent", "u2", mock.MatchedBy(func(e models.FeedEvent) bool {
		return e.Type == "notification" && e.Notification != nil
	})).Once()

	created, err := writer.Notify(context.Background(), "u1", "u2", "hello", models.NotificationMessage)
	require.NoError(t, err)
	assert.Equal(t, "n1", created.ID)
	notifications.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestNotifyRejectsUnknownKind(t *testing.T) {
	writer := NewWriter(nil, nil, new(mocks.NotificationRepositoryMock), nil)

	_, err := writer.Notify(context.Background(), "u1", "u2", "hello", "poke")
	assert.ErrorIs(t, err, ErrUnknownNotification)
}
