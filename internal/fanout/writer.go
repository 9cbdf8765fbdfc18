package fanout

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

var (
	ErrSelfChat            = errors.New("cannot open a chat with yourself")
	ErrEmptyMessage        = errors.New("message needs text or a file")
	ErrUnknownNotification = errors.New("unknown notification type")
	ErrMissingParticipants = errors.New("message needs sender and recipient")
)

// Broadcaster pushes realtime events to connected clients. The writer
// treats delivery as fire-and-forget; durable state is what the store says.
type Broadcaster interface {
	BroadcastChatMessage(chatID string, msg models.Message)
	PushFeedEvent(userID string, event models.FeedEvent)
}

// Writer performs the fan-out writes that keep "my chats" and "my
// notifications" single-owner-scoped reads: on notable events it duplicates
// a small summary into each interested party's own scope instead of leaving
// list views to scan shared collections.
type Writer struct {
	chats         repositories.ChatRepository
	messages      repositories.MessageRepository
	notifications repositories.NotificationRepository
	broadcaster   Broadcaster
}

// NewWriter constructs a Writer. broadcaster may be nil in contexts with no
// realtime delivery (tests, batch jobs).
func NewWriter(chats repositories.ChatRepository, messages repositories.MessageRepository, notifications repositories.NotificationRepository, broadcaster Broadcaster) *Writer {
	return &Writer{chats: chats, messages: messages, notifications: notifications, broadcaster: broadcaster}
}

// EnsureChat creates the chat for the unordered pair if it does not exist
// and upserts a summary into both participants' scopes. Safe to call from
// both sides concurrently: the deterministic id and the guarded insert make
// racing callers converge on one chat, and re-adding a summary is a no-op.
func (w *Writer) EnsureChat(ctx context.Context, userA, userB, nameA, nameB string) (models.Chat, error) {
	if userA == userB {
		return models.Chat{}, ErrSelfChat
	}

	chat, err := w.chats.CreateIfAbsent(ctx, models.Chat{
		ID:      models.PairID(userA, userB),
		User1ID: userA,
		User2ID: userB,
	})
	if err != nil {
		return models.Chat{}, err
	}

	names := map[string]string{userA: nameA, userB: nameB}
	if err := w.chats.UpsertSummaries(ctx, chat, names); err != nil {
		return models.Chat{}, err
	}

	observability.IncFanout("chat_summary")
	_ = observability.PublishEvent(ctx, "fanout.chats", observability.EventEnvelope{
		EventType: "fanout",
		EventName: "chat_ensured",
		Payload:   map[string]interface{}{"chat_id": chat.ID},
	}, nil)
	return chat, nil
}

// AppendMessage appends to the chat's message sequence. If the chat does
// not exist yet (first message raced ahead of EnsureChat) it is created
// with this message as its singleton sequence.
func (w *Writer) AppendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	if msg.Content == "" && !msg.HasFile() {
		return models.Message{}, ErrEmptyMessage
	}
	if msg.SenderID == "" || msg.RecipientID == "" {
		return models.Message{}, ErrMissingParticipants
	}
	if msg.SenderID == msg.RecipientID {
		return models.Message{}, ErrSelfChat
	}

	if msg.ChatID == "" {
		msg.ChatID = models.PairID(msg.SenderID, msg.RecipientID)
	}
	chat, err := w.chats.CreateIfAbsent(ctx, models.Chat{
		ID:      msg.ChatID,
		User1ID: msg.SenderID,
		User2ID: msg.RecipientID,
	})
	if err != nil {
		return models.Message{}, err
	}
	if err := w.chats.UpsertSummaries(ctx, chat, nil); err != nil {
		return models.Message{}, err
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	created, err := w.messages.Create(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}

	if w.broadcaster != nil {
		w.broadcaster.BroadcastChatMessage(created.ChatID, created)
	}
	observability.IncFanout("message")
	_ = observability.PublishEvent(ctx, "fanout.messages", observability.EventEnvelope{
		EventType: "fanout",
		EventName: "message_appended",
		Payload:   map[string]interface{}{"chat_id": created.ChatID, "message_id": created.ID},
	}, nil)
	return created, nil
}

// Notify writes a notification owned by the recipient. It does not fan out
// further: a notification's owner is by definition its one reader.
func (w *Writer) Notify(ctx context.Context, senderID, recipientID, message, kind string) (models.Notification, error) {
	switch kind {
	case models.NotificationMessage, models.NotificationFriendRequest, models.NotificationGlobal:
	default:
		return models.Notification{}, ErrUnknownNotification
	}

	created, err := w.notifications.Create(ctx, models.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Message:     message,
		Type:        kind,
	})
	if err != nil {
		return models.Notification{}, err
	}

	if w.broadcaster != nil {
		w.broadcaster.PushFeedEvent(recipientID, models.FeedEvent{
			Type:         "notification",
			Notification: &created,
		})
	}
	observability.IncFanout("notification")
	_ = observability.PublishEvent(ctx, "fanout.notifications", observability.EventEnvelope{
		EventType: "fanout",
		EventName: "notification_created",
		Payload:   map[string]interface{}{"notification_id": created.ID, "type": created.Type},
	}, nil)
	return created, nil
}
