package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	app_errors "chatrelay/backend/internal/errors"
	"chatrelay/backend/internal/model"
	"chatrelay/backend/internal/repository"
)

const defaultConversationTitle = "New Conversation"

// ConversationService handles CRUD on conversations, always scoped by the
// owning user. A conversation belonging to someone else is reported as not
// found, never as forbidden, so existence is not leaked.
type ConversationService struct {
	repo repository.Repository
}

func NewConversationService(repo repository.Repository) *ConversationService {
	return &ConversationService{repo: repo}
}

func (s *ConversationService) Create(ctx context.Context, userID, title string) (*model.Conversation, error) {
	if title == "" {
		title = defaultConversationTitle
	}
	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("could not create conversation: %w", err)
	}
	return conv, nil
}

func (s *ConversationService) List(ctx context.Context, userID string) ([]*model.Conversation, error) {
	return s.repo.GetConversations(ctx, userID)
}

// Get retrieves a conversation's metadata and all its messages.
func (s *ConversationService) Get(ctx context.Context, conversationID, userID string) (*model.FullConversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	messages, err := s.repo.GetMessages(ctx, conversationID, repository.DefaultMessageLimit)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	return &model.FullConversation{Conversation: *conv, Messages: messages}, nil
}

func (s *ConversationService) UpdateTitle(ctx context.Context, conversationID, userID, newTitle string) error {
	if newTitle == "" {
		return fmt.Errorf("%w: title cannot be empty", app_errors.ErrValidation)
	}
	return translateNotFound(s.repo.UpdateConversationTitle(ctx, conversationID, userID, newTitle))
}

func (s *ConversationService) Delete(ctx context.Context, conversationID, userID string) error {
	return translateNotFound(s.repo.DeleteConversation(ctx, conversationID, userID))
}

func translateNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: conversation", app_errors.ErrNotFound)
	}
	return err
}
