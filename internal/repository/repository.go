package repository

import (
	"context"
	"time"

	"chatrelay/backend/internal/model"
)

// DefaultMessageLimit caps how many messages one history query returns.
const DefaultMessageLimit = 50

// Repository defines the interface for data storage operations.
// This interface makes it easy to switch database implementations.
type Repository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error

	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error)
	GetConversations(ctx context.Context, userID string) ([]*model.Conversation, error)
	UpdateConversationTitle(ctx context.Context, conversationID, userID, newTitle string) error
	DeleteConversation(ctx context.Context, conversationID, userID string) error

	AddMessage(ctx context.Context, message *model.Message) error
	GetMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)

	// DeleteConversationsOlderThan removes conversations (and, via cascade,
	// their messages) last updated before the cutoff. Returns how many
	// conversations were removed.
	DeleteConversationsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
