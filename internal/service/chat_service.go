package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatrelay/backend/internal/assembler"
	"chatrelay/backend/internal/extract"
	"chatrelay/backend/internal/llm"
	"chatrelay/backend/internal/model"
	"chatrelay/backend/internal/repository"
)

// DefaultModel is used when a stream request does not name a model.
const DefaultModel = "deepseek-v2:16b"

// ModelRouter resolves a model identifier to its provider. Satisfied by
// *llm.Router.
type ModelRouter interface {
	Resolve(modelID string) (llm.Provider, error)
	ListAvailable(ctx context.Context) map[string][]string
}

// ChatService drives one chat turn end to end: file extraction, context
// assembly, provider streaming, and persistence of the exchanged messages.
type ChatService struct {
	repo         repository.Repository
	router       ModelRouter
	systemPrompt string
}

// StreamRequest is one incoming chat turn.
type StreamRequest struct {
	ConversationID string
	UserID         string
	Message        string
	Model          string
	Files          []UploadedFile
}

// UploadedFile is one multipart attachment, read fully into memory.
type UploadedFile struct {
	Filename string
	MimeType string
	Data     []byte
}

// ModelCatalog is the aggregated model listing returned to clients.
type ModelCatalog struct {
	Models  map[string][]string `json:"models"`
	Default string              `json:"default"`
}

func NewChatService(repo repository.Repository, router ModelRouter, systemPrompt string) *ChatService {
	return &ChatService{repo: repo, router: router, systemPrompt: systemPrompt}
}

// ListModels aggregates available models across all configured providers.
func (s *ChatService) ListModels(ctx context.Context) *ModelCatalog {
	return &ModelCatalog{Models: s.router.ListAvailable(ctx), Default: DefaultModel}
}

// History returns a conversation's messages, ownership-checked.
func (s *ChatService) History(ctx context.Context, conversationID, userID string) ([]model.Message, error) {
	if _, err := s.repo.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, translateNotFound(err)
	}
	return s.repo.GetMessages(ctx, conversationID, repository.DefaultMessageLimit)
}

// StreamMessage processes a new chat turn and streams the model's response.
//
// The sequence is fixed: the model is resolved first, so an unsupported model
// fails before anything is persisted; the user's literal message (without
// injected file text) is saved before the provider is invoked, so a
// mid-stream failure never loses the user's turn; and a failed generation
// persists no assistant row at all; partial output is discarded.
//
// All outcomes, including failures, are reported on streamChan; the channel
// is closed when the turn is over.
func (s *ChatService) StreamMessage(ctx context.Context, req *StreamRequest, streamChan chan<- model.StreamResponse) {
	defer close(streamChan)

	if req.Model == "" {
		req.Model = DefaultModel
	}
	provider, err := s.router.Resolve(req.Model)
	if err != nil {
		streamChan <- model.StreamResponse{Error: err.Error(), Done: true}
		return
	}

	conv, err := s.repo.GetConversation(ctx, req.ConversationID, req.UserID)
	if err != nil {
		slog.Warn("Conversation lookup failed", "conversation_id", req.ConversationID, "error", err)
		streamChan <- model.StreamResponse{Error: "Conversation not found", Done: true}
		return
	}

	docs, images := s.processFiles(req.Files)

	userMessage := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        req.Message,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.AddMessage(ctx, userMessage); err != nil {
		slog.Error("Failed to save user message", "conversation_id", conv.ID, "error", err)
		streamChan <- model.StreamResponse{Error: "Could not save message", Done: true}
		return
	}

	history, err := s.repo.GetMessages(ctx, conv.ID, repository.DefaultMessageLimit)
	if err != nil {
		slog.Error("Failed to load history", "conversation_id", conv.ID, "error", err)
		streamChan <- model.StreamResponse{Error: "Could not load conversation history", Done: true}
		return
	}

	turns := assembler.FromMessages(history)
	assembler.MergeAttachments(turns, req.Message, docs, images, provider.SupportsVision())
	windowed := assembler.Window(turns, s.systemPrompt, assembler.ContextWindowSize)

	llmReq := &llm.Request{Model: req.Model, Turns: windowed}
	llmChan := make(chan llm.StreamChunk)
	go func() {
		if err := provider.Stream(ctx, llmReq, llmChan); err != nil {
			slog.Warn("Provider stream ended with error", "model", req.Model, "error", err)
		}
	}()

	var fullResponse strings.Builder
	finished := false
	for chunk := range llmChan {
		if chunk.Error != "" {
			slog.Warn("Stream error from provider", "model", req.Model, "error", chunk.Error)
			streamChan <- model.StreamResponse{Error: chunk.Error, Done: true}
			return
		}
		if chunk.Done {
			finished = true
			continue
		}
		fullResponse.WriteString(chunk.Content)
		streamChan <- model.StreamResponse{Content: chunk.Content}
	}
	if !finished {
		// Channel closed without a terminal chunk; treat as provider failure
		// and leave no assistant row behind.
		streamChan <- model.StreamResponse{Error: "Stream ended unexpectedly", Done: true}
		return
	}

	modelID := req.Model
	assistantMessage := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        fullResponse.String(),
		Model:          &modelID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.AddMessage(ctx, assistantMessage); err != nil {
		slog.Error("Failed to save assistant message", "conversation_id", conv.ID, "error", err)
		streamChan <- model.StreamResponse{Error: "Could not save response", Done: true}
		return
	}
	streamChan <- model.StreamResponse{Done: true}

	if conv.Title == defaultConversationTitle {
		go s.generateTitle(context.Background(), conv, provider, req.Model, req.Message, assistantMessage.Content)
	}
}

// processFiles extracts every attachment, splitting documents from images.
// A file that fails validation or extraction is logged and skipped; one bad
// attachment never aborts the request.
func (s *ChatService) processFiles(files []UploadedFile) (docs, images []*extract.Artifact) {
	for _, f := range files {
		artifact, err := extract.Process(f.Data, f.Filename, f.MimeType)
		if err != nil {
			slog.Warn("Skipping attachment", "filename", f.Filename, "error", err)
			continue
		}
		if artifact.IsImage {
			images = append(images, artifact)
		} else {
			docs = append(docs, artifact)
		}
	}
	return docs, images
}

// generateTitle asks the provider for a short conversation title after the
// first successful exchange. The request reuses the model that served the
// chat, since that is the only model this provider is known to accept.
// Best-effort: failures only log.
func (s *ChatService) generateTitle(ctx context.Context, conv *model.Conversation, provider llm.Provider, modelID, userQuery, assistantResponse string) {
	prompt := fmt.Sprintf(
		"Based on the following conversation, suggest a short title of at most five words. Respond with only the title.\n\n---\nUser: %s\n\nAssistant: %s\n---",
		truncate(userQuery, 150),
		truncate(assistantResponse, 200),
	)
	req := &llm.Request{
		Model: modelID,
		Turns: []llm.Turn{
			{Role: model.RoleSystem, Content: llm.TextContent("You are an expert at creating short, concise titles for conversations.")},
			{Role: model.RoleUser, Content: llm.TextContent(prompt)},
		},
	}
	resp, err := provider.Complete(ctx, req)
	if err != nil {
		slog.Warn("Failed to generate title", "conversation_id", conv.ID, "error", err)
		return
	}
	title := strings.Trim(strings.TrimSpace(resp), `"'`)
	if title == "" {
		return
	}
	if err := s.repo.UpdateConversationTitle(ctx, conv.ID, conv.UserID, truncate(title, 100)); err != nil {
		slog.Warn("Failed to update generated title", "conversation_id", conv.ID, "error", err)
	}
}

// truncate shortens a string to a specified number of runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
