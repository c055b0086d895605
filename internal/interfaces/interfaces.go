package interfaces

import (
	"context"

	"chatrelay/backend/internal/model"
	"chatrelay/backend/internal/service"
)

// This file defines the interfaces for our core services.
// Depending on these interfaces, instead of concrete implementations, allows
// for decoupling (e.g., API layer from Service layer) and easier testing via
// mocking.

// AuthService defines the contract for account and credential logic.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (string, *model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
	VerifyToken(ctx context.Context, token string) (*model.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// ConversationService defines the contract for conversation CRUD, scoped by
// the owning user.
type ConversationService interface {
	Create(ctx context.Context, userID, title string) (*model.Conversation, error)
	List(ctx context.Context, userID string) ([]*model.Conversation, error)
	Get(ctx context.Context, conversationID, userID string) (*model.FullConversation, error)
	UpdateTitle(ctx context.Context, conversationID, userID, newTitle string) error
	Delete(ctx context.Context, conversationID, userID string) error
}

// ChatService defines the contract for the model listing and the streaming
// chat pipeline.
type ChatService interface {
	ListModels(ctx context.Context) *service.ModelCatalog
	History(ctx context.Context, conversationID, userID string) ([]model.Message, error)
	StreamMessage(ctx context.Context, req *service.StreamRequest, streamChan chan<- model.StreamResponse)
}
