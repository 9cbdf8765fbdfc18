package ws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/presence"
	"social-service/internal/repositories"
)

// ChatWebSocketHandler handles chat room websocket connections.
type ChatWebSocketHandler struct {
	hub       *Hub
	chatRepo  repositories.ChatRepository
	validator middleware.TokenValidator
	tracker   *presence.Tracker
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, chatRepo repositories.ChatRepository, validator middleware.TokenValidator, tracker *presence.Tracker) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, chatRepo: chatRepo, validator: validator, tracker: tracker}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client in the chat room.
// Frames received from the client refresh the presence liveness window.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID := c.Param("chat_id")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid chat id"})
		return
	}

	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := authenticateWS(c, h.validator)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
		return
	}

	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "not authorized for chat"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddChatClient(chatID, conn, info)

	observability.IncWSActive("chat")
	observability.IncWSEvent("chat", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload("chat", chatID, "ws_connect", info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveChatClient(chatID, conn)
			observability.DecWSActive("chat")
			observability.IncWSEvent("chat", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload("chat", chatID, "ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("chat", "ws_error")
					_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload:   wsEventPayload("chat", chatID, "ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
					}, observability.BuildHeaders(requestID, traceID))
				}
				return
			}
			if h.tracker != nil {
				_ = h.tracker.Heartbeat(context.Background(), userID)
			}
		}
	}()
}

func authenticateWS(c *gin.Context, validator middleware.TokenValidator) (string, error) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		if len(header) > 7 {
			token = header[7:]
		}
	}
	if token == "" {
		return "", fmt.Errorf("missing token")
	}
	return validator.Authenticate(c.Request.Context(), token)
}

func wsEventPayload(kind, resourceID, event string, info ConnInfo, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"resource_id": resourceID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
