package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"club-chat-service/internal/config"
	"club-chat-service/internal/db"
	"club-chat-service/internal/handlers"
	"club-chat-service/internal/middleware"
	"club-chat-service/internal/notifier"
	"club-chat-service/internal/observability"
	"club-chat-service/internal/rabbitmq"
	"club-chat-service/internal/readtracker"
	"club-chat-service/internal/repositories"
	"club-chat-service/internal/telemetry"
	"club-chat-service/internal/ws"
)

func main() {
	cfg := config.Load()

	shutdownTracing, err := observability.SetupTracing(context.Background(), "club-chat-service", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	} else {
		log.Printf("ws event publishing disabled: %v", err)
	}

	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.chat", "club-chat-service", cfg.Environment)
	events := notifier.New(publisher)

	groupRepo := repositories.NewGroupRepo(database)
	membershipRepo := repositories.NewMembershipRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)

	var tracker *readtracker.Tracker
	if cfg.RedisURL != "" {
		cache, err := readtracker.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Printf("unread cache disabled: %v", err)
			tracker = readtracker.New(messageRepo, nil)
		} else {
			defer cache.Close()
			tracker = readtracker.New(messageRepo, cache)
		}
	} else {
		tracker = readtracker.New(messageRepo, nil)
	}

	hub := ws.NewHub()
	verifier := middleware.NewTokenVerifier(cfg.JWTSecret)

	groupHandler := handlers.NewGroupHandler(groupRepo, tracker, auditEmitter, events)
	membershipHandler := handlers.NewMembershipHandler(membershipRepo, tracker, hub, auditEmitter, events)
	messageHandler := handlers.NewMessageHandler(messageRepo, tracker, hub, auditEmitter, events)
	reactionHandler := handlers.NewReactionHandler(reactionRepo, messageRepo, hub, events)
	groupWS := ws.NewGroupWebSocketHandler(hub, groupRepo, verifier)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("club-chat-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.POST("/groups", authMiddleware, groupHandler.CreateGroup)
	router.GET("/groups", authMiddleware, groupHandler.ListGroups)
	router.GET("/groups/:group_id", authMiddleware, groupHandler.GetGroup)
	router.PATCH("/groups/:group_id", authMiddleware, groupHandler.UpdateGroup)
	router.DELETE("/groups/:group_id", authMiddleware, groupHandler.DeleteGroup)

	router.GET("/groups/:group_id/members", authMiddleware, membershipHandler.ListMembers)
	router.POST("/groups/:group_id/members", authMiddleware, membershipHandler.AddMember)
	router.POST("/groups/:group_id/join", authMiddleware, membershipHandler.JoinGroup)
	router.DELETE("/groups/:group_id/members/:member_id", authMiddleware, membershipHandler.RemoveMember)
	router.POST("/groups/:group_id/members/:member_id/promote", authMiddleware, membershipHandler.PromoteToAdmin)
	router.POST("/groups/:group_id/members/:member_id/demote", authMiddleware, membershipHandler.DemoteToMember)
	router.POST("/groups/:group_id/transfer-ownership", authMiddleware, membershipHandler.TransferOwnership)
	router.POST("/groups/:group_id/leave", authMiddleware, membershipHandler.LeaveGroup)
	router.PATCH("/groups/:group_id/membership", authMiddleware, membershipHandler.UpdateSettings)
	router.POST("/groups/:group_id/read", authMiddleware, membershipHandler.MarkRead)

	router.GET("/groups/:group_id/messages", authMiddleware, messageHandler.ListMessages)
	router.POST("/groups/:group_id/messages", authMiddleware, messageHandler.PostMessage)
	router.PATCH("/groups/:group_id/messages/:message_id", authMiddleware, messageHandler.EditMessage)
	router.DELETE("/groups/:group_id/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)

	router.POST("/messages/:message_id/reactions", authMiddleware, reactionHandler.ToggleReaction)
	router.GET("/messages/:message_id/reactions", authMiddleware, reactionHandler.ListReactions)

	router.GET("/ws/groups/:group_id", groupWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugEndpoint)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
