package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	app_errors "chatrelay/backend/internal/errors"
	"chatrelay/backend/internal/interfaces"
)

// ConversationHandler handles HTTP requests for conversation CRUD.
type ConversationHandler struct {
	service interfaces.ConversationService
}

func NewConversationHandler(svc interfaces.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: svc}
}

// CreateConversationRequest is the DTO for creating a conversation.
type CreateConversationRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// UpdateConversationRequest is the DTO for renaming a conversation.
type UpdateConversationRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// HandleCreate godoc
// @Summary      Create a conversation
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  CreateConversationRequest  false  "Optional title"
// @Success      201  {object}  model.Conversation
// @Failure      400  {object}  ErrorResponse
// @Router       /v1/conversations [post]
func (h *ConversationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	var req CreateConversationRequest
	// An empty body is allowed; the service fills in a default title.
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
			return
		}
		if err := validateRequest(req); err != nil {
			respondWithError(w, err)
			return
		}
	}

	conversation, err := h.service.Create(r.Context(), user.ID, req.Title)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, conversation)
}

// HandleList godoc
// @Summary      List the current user's conversations
// @Tags         Conversations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Conversation
// @Router       /v1/conversations [get]
func (h *ConversationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	conversations, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conversations)
}

// HandleGet godoc
// @Summary      Get a conversation with its messages
// @Tags         Conversations
// @Produce      json
// @Security     BearerAuth
// @Param        conversationID  path  string  true  "Conversation ID"
// @Success      200  {object}  model.FullConversation
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [get]
func (h *ConversationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	conversationID := chi.URLParam(r, "conversationID")

	conversation, err := h.service.Get(r.Context(), conversationID, user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conversation)
}

// HandleUpdateTitle godoc
// @Summary      Rename a conversation
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        conversationID  path  string                     true  "Conversation ID"
// @Param        request         body  UpdateConversationRequest  true  "New title"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [put]
func (h *ConversationHandler) HandleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	conversationID := chi.URLParam(r, "conversationID")

	var req UpdateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.service.UpdateTitle(r.Context(), conversationID, user.ID, req.Title); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "conversation updated"})
}

// HandleDelete godoc
// @Summary      Delete a conversation and its messages
// @Tags         Conversations
// @Produce      json
// @Security     BearerAuth
// @Param        conversationID  path  string  true  "Conversation ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [delete]
func (h *ConversationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	conversationID := chi.URLParam(r, "conversationID")

	if err := h.service.Delete(r.Context(), conversationID, user.ID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "conversation deleted"})
}
