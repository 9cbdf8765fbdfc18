package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"social-service/internal/middleware"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/presence"
)

// FeedWebSocketHandler handles the per-user feed stream. The feed socket is
// the session socket: connecting marks the user online, client frames act
// as heartbeats, and disconnecting marks the user offline. Notifications
// land on the stream through the hub; presence changes of watched users
// land through tracker subscriptions.
type FeedWebSocketHandler struct {
	hub       *Hub
	validator middleware.TokenValidator
	tracker   *presence.Tracker
}

// NewFeedWebSocketHandler constructs a FeedWebSocketHandler.
func NewFeedWebSocketHandler(hub *Hub, validator middleware.TokenValidator, tracker *presence.Tracker) *FeedWebSocketHandler {
	return &FeedWebSocketHandler{hub: hub, validator: validator, tracker: tracker}
}

// Handle upgrades the connection and registers the user's feed stream.
// ?watch=a,b,c subscribes the stream to those users' presence changes.
func (h *FeedWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := authenticateWS(c, h.validator)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
		return
	}

	watched := []string{}
	if raw := c.Query("watch"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" && id != userID {
				watched = append(watched, id)
			}
		}
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
	h.hub.AddFeedClient(userID, conn, info)

	unsubscribes := make([]func(), 0, len(watched))
	for _, watchedID := range watched {
		id := watchedID
		unsubscribe, err := h.tracker.Subscribe(context.Background(), id, func(record models.Presence) {
			h.hub.PushFeedEvent(userID, models.FeedEvent{
				Type:     "presence",
				UserID:   id,
				Presence: &record,
			})
		})
		if err != nil {
			continue
		}
		unsubscribes = append(unsubscribes, unsubscribe)
	}

	_ = h.tracker.GoOnline(context.Background(), userID, c.Query("location"))

	observability.IncWSActive("feed")
	observability.IncWSEvent("feed", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.feeds", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload("feed", userID, "ws_connect", info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	go func() {
		var closeReason string
		defer func() {
			for _, unsubscribe := range unsubscribes {
				unsubscribe()
			}
			h.hub.RemoveFeedClient(userID, conn)
			_ = h.tracker.GoOffline(context.Background(), userID)
			observability.DecWSActive("feed")
			observability.IncWSEvent("feed", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.feeds", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload("feed", userID, "ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("feed", "ws_error")
				}
				return
			}
			_ = h.tracker.Heartbeat(context.Background(), userID)
		}
	}()
}
