package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"chat-realtime/internal/auth"
	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
	"chat-realtime/internal/logger"
	"chat-realtime/internal/models"
	"chat-realtime/internal/notification"
	"chat-realtime/internal/repositories/postgres"
	"chat-realtime/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// Seeds two users with a shared conversation, prints connection tokens for
// both and stores a first message so a notification task is queued.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logg := logger.New(cfg.Log.Level, cfg.Log.Format)
	logg.Info("Starting database seeding...")

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logg.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db, logg); err != nil {
		logg.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	userRepo := postgres.NewUserRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	pushToken := "ExponentPushToken[seed-bob]"
	testUsers := []*models.User{
		{Username: "alice", Email: "alice@notify.com", FirstName: "Alice", LastName: "Nguyen", PushEnabled: lo.ToPtr(true)},
		{Username: "bob", Email: "bob@notify.com", FirstName: "Bob", LastName: "Tran", PushToken: &pushToken, PushEnabled: lo.ToPtr(true)},
	}
	for _, user := range testUsers {
		if err := userRepo.Create(ctx, user); err != nil {
			logg.Error("Failed to create user", "username", user.Username, "error", err)
			os.Exit(1)
		}
		logg.Info("Created user", "username", user.Username, "id", user.ID)
	}
	alice, bob := testUsers[0], testUsers[1]

	conversation := &models.Conversation{SenderID: alice.ID, RecipientID: bob.ID}
	if err := conversationRepo.Create(ctx, conversation); err != nil {
		logg.Error("Failed to create conversation", "error", err)
		os.Exit(1)
	}
	logg.Info("Created conversation", "id", conversation.ID)

	// With the memory backend the task stays in this process and is
	// dropped on exit; use redis or kafka to hand it to a running server.
	var rdb *redis.Client
	if cfg.Notification.Queue == "redis" {
		if rdb, err = database.NewRedisConnection(cfg.Redis); err != nil {
			logg.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}
	queue, err := notification.NewQueue(cfg.Notification, cfg.Kafka, rdb)
	if err != nil {
		logg.Error("Failed to open notification queue", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	chat := services.NewChatService(conversationRepo, messageRepo, notification.NewNotifier(queue, logg), logg)
	message, err := chat.Send(ctx, conversation.ID, alice.ID, "Hi Bob! This is the seeded first message of our conversation.")
	if err != nil {
		logg.Error("Failed to send seed message", "error", err)
		os.Exit(1)
	}
	logg.Info("Created message", "id", message.ID)

	for _, user := range testUsers {
		token, err := auth.IssueToken(cfg.JWT.Secret, user.ID, 24*time.Hour)
		if err != nil {
			logg.Error("Failed to issue token", "username", user.Username, "error", err)
			os.Exit(1)
		}
		fmt.Printf("%s (id %d): ws://%s/ws?token=%s\n", user.Username, user.ID, cfg.Server.Addr(), token)
	}
	fmt.Printf("conversation topic: %d\n", conversation.ID)

	logg.Info("Database seeding completed successfully!")
}
