package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	app_errors "chatrelay/backend/internal/errors"
	"chatrelay/backend/internal/interfaces"
	"chatrelay/backend/internal/model"
	"chatrelay/backend/internal/service"
)

// maxUploadBytes bounds the whole multipart request body. Individual file
// limits are enforced later, during extraction.
const maxUploadBytes = 64 << 20

// ChatHandler handles HTTP requests for model listing and chat streaming.
type ChatHandler struct {
	service interfaces.ChatService
}

func NewChatHandler(svc interfaces.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// HandleListModels godoc
// @Summary      List available models
// @Description  Aggregates models across all configured providers, grouped by provider name.
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.ModelCatalog
// @Router       /v1/models [get]
func (h *ChatHandler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.ListModels(r.Context()))
}

// HandleHistory godoc
// @Summary      Get the message history of a conversation
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        conversationID  path  string  true  "Conversation ID"
// @Success      200  {array}   model.Message
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/chat/{conversationID}/history [get]
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	conversationID := chi.URLParam(r, "conversationID")

	messages, err := h.service.History(r.Context(), conversationID, user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, messages)
}

// HandleStream godoc
// @Summary      Send a message and stream the model's reply
// @Description  Accepts a multipart form with the message text, an optional model override, and optional file attachments. The reply is relayed as Server-Sent Events; every event is a JSON object with optional "content", "error", and "done" fields, and the final event always has "done" set.
// @Tags         Chat
// @Accept       multipart/form-data
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        conversationID  path      string  true   "Conversation ID"
// @Param        message         formData  string  true   "User message"
// @Param        model           formData  string  false  "Model identifier"
// @Param        files           formData  file    false  "Attachments"
// @Success      200  {object}  model.StreamResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/chat/{conversationID}/stream [post]
func (h *ChatHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	conversationID := chi.URLParam(r, "conversationID")

	req, err := parseStreamRequest(r, conversationID, user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter is not a Flusher")
		respondWithError(w, fmt.Errorf("streaming unsupported by server"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The request context is handed to the service, so a client disconnect
	// cancels the upstream provider call as well.
	streamChan := make(chan model.StreamResponse)
	go h.service.StreamMessage(r.Context(), req, streamChan)

	for event := range streamChan {
		if r.Context().Err() != nil {
			slog.Info("Client disconnected mid-stream", "conversation_id", conversationID)
			// Drain so the service goroutine can finish and clean up.
			for range streamChan {
			}
			return
		}
		if err := writeStreamEvent(w, event); err != nil {
			slog.Warn("Failed to write stream event, client likely disconnected", "error", err)
			for range streamChan {
			}
			return
		}
	}
}

// parseStreamRequest reads the multipart form into a service request. Every
// attachment is read fully into memory; size and type limits are applied by
// the extraction layer.
func parseStreamRequest(r *http.Request, conversationID, userID string) (*service.StreamRequest, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("%w: could not parse multipart form: %v", app_errors.ErrValidation, err)
	}

	message := r.FormValue("message")
	if message == "" {
		return nil, fmt.Errorf("%w: message must not be empty", app_errors.ErrValidation)
	}

	req := &service.StreamRequest{
		ConversationID: conversationID,
		UserID:         userID,
		Message:        message,
		Model:          r.FormValue("model"),
	}

	if r.MultipartForm == nil {
		return req, nil
	}
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("could not open uploaded file %q: %w", header.Filename, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("could not read uploaded file %q: %w", header.Filename, err)
		}
		req.Files = append(req.Files, service.UploadedFile{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return req, nil
}
