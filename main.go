package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"social-service/internal/auth"
	"social-service/internal/blobstore"
	"social-service/internal/config"
	"social-service/internal/db"
	"social-service/internal/fanout"
	"social-service/internal/handlers"
	"social-service/internal/logging"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/presence"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

func main() {
	cfg := config.Load()
	logging.NewLogger(cfg.ServiceName, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to init tracing", "err", err)
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("failed to connect to db", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		slog.Error("failed to connect to mongo", "err", err)
		os.Exit(1)
	}
	defer mongoClient.Disconnect(context.Background())

	blobs, err := blobstore.NewStore(mongoClient.Database(cfg.MongoDatabase))
	if err != nil {
		slog.Error("failed to init blob store", "err", err)
		os.Exit(1)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.logs", cfg.ServiceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	friendRepo := repositories.NewFriendRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.ServiceName, cfg.TokenTTL)
	authService := auth.NewService(userRepo, tokens, rdb, cfg.ResetTokenTTL)

	tracker := presence.NewTracker(rdb, cfg.PresenceTTL)
	go tracker.RunReaper(ctx, cfg.PresenceSweep)

	hub := ws.NewHub()
	writer := fanout.NewWriter(chatRepo, messageRepo, notificationRepo, hub)

	authHandler := handlers.NewAuthHandler(authService, emitter)
	profileHandler := handlers.NewProfileHandler(userRepo)
	friendHandler := handlers.NewFriendHandler(friendRepo, userRepo, notificationRepo, writer)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, userRepo, friendRepo, writer, blobs)
	fileHandler := handlers.NewFileHandler(blobs, cfg.MaxUploadBytes)
	presenceHandler := handlers.NewPresenceHandler(tracker)

	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, authService, tracker)
	feedWS := ws.NewFeedWebSocketHandler(hub, authService, tracker)

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/logout", authHandler.Logout)
	router.POST("/auth/password-reset", authHandler.RequestPasswordReset)
	router.POST("/auth/password-reset/confirm", authHandler.ConfirmPasswordReset)

	authMiddleware := middleware.AuthMiddleware(authService)
	authed := router.Group("/", authMiddleware)

	authed.PUT("/auth/email", authHandler.UpdateEmail)
	authed.PUT("/auth/password", authHandler.UpdatePassword)

	authed.GET("/me", profileHandler.Me)
	authed.PUT("/me", profileHandler.UpdateMe)
	authed.GET("/users", profileHandler.Search)
	authed.GET("/users/:user_id", profileHandler.GetUser)
	authed.GET("/users/:user_id/friendship", friendHandler.FriendStatus)

	authed.GET("/friends", friendHandler.ListFriends)
	authed.DELETE("/friends/:user_id", friendHandler.RemoveFriend)
	authed.POST("/friends/requests", friendHandler.SendRequest)
	authed.GET("/friends/requests", friendHandler.ListRequests)
	authed.POST("/friends/requests/:request_id/accept", friendHandler.AcceptRequest)
	authed.POST("/friends/requests/:request_id/reject", friendHandler.RejectRequest)

	authed.GET("/notifications", notificationHandler.List)
	authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	authed.POST("/notifications/:notification_id/read", notificationHandler.MarkRead)
	authed.DELETE("/notifications/:notification_id", notificationHandler.Delete)

	authed.POST("/chats", chatHandler.StartChat)
	authed.GET("/chats", chatHandler.ListChats)
	authed.GET("/chats/:chat_id/messages", chatHandler.ListMessages)
	authed.POST("/chats/:chat_id/messages", chatHandler.PostMessage)

	authed.POST("/files", fileHandler.Upload)
	authed.GET("/files", fileHandler.ListMine)
	authed.GET("/files/:file_id", fileHandler.Download)
	authed.GET("/files/:file_id/meta", fileHandler.Meta)
	authed.DELETE("/files/:file_id", fileHandler.Delete)

	authed.GET("/presence/:user_id", presenceHandler.Get)
	authed.POST("/presence/online", presenceHandler.GoOnline)
	authed.POST("/presence/heartbeat", presenceHandler.Heartbeat)
	authed.POST("/presence/offline", presenceHandler.GoOffline)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	router.GET("/ws/feed", feedWS.Handle)

	handlers.RegisterDebugRoutes(router, emitter, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "err", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown failed", "err", err)
	}
}
