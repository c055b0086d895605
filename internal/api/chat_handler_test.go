package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatrelay/backend/internal/api"
	app_errors "chatrelay/backend/internal/errors"
	"chatrelay/backend/internal/interfaces/mocks"
	"chatrelay/backend/internal/model"
	"chatrelay/backend/internal/service"
)

// multipartBody builds a multipart form with the given fields and one
// optional file part named "files".
func multipartBody(t *testing.T, fields map[string]string, filename string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("files", filename)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

// parseSSE decodes every `data:` line of an SSE body.
func parseSSE(t *testing.T, body string) []model.StreamResponse {
	t.Helper()
	var events []model.StreamResponse
	for _, line := range strings.Split(body, "\n") {
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev model.StreamResponse
		require.NoError(t, json.Unmarshal([]byte(data), &ev))
		events = append(events, ev)
	}
	return events
}

func TestChatHandler_HandleListModels(t *testing.T) {
	chatSvc := mocks.NewMockChatService(t)
	handler := api.NewChatHandler(chatSvc)

	catalog := &service.ModelCatalog{
		Models:  map[string][]string{"ollama": {"llama3.2"}},
		Default: "deepseek-v2:16b",
	}
	chatSvc.On("ListModels", mock.Anything).Return(catalog).Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rr := httptest.NewRecorder()
	withAuth(t, testUser, handler.HandleListModels).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp service.ModelCatalog
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "deepseek-v2:16b", resp.Default)
}

func TestChatHandler_HandleHistory(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		chatSvc := mocks.NewMockChatService(t)
		handler := api.NewChatHandler(chatSvc)

		messages := []model.Message{{ID: "m1", Role: model.RoleUser, Content: "hi"}}
		chatSvc.On("History", mock.Anything, "conv1", "u1").Return(messages, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/chat/conv1/history", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "conv1"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleHistory).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - not found", func(t *testing.T) {
		chatSvc := mocks.NewMockChatService(t)
		handler := api.NewChatHandler(chatSvc)

		chatSvc.On("History", mock.Anything, "missing", "u1").
			Return(nil, fmt.Errorf("%w: conversation", app_errors.ErrNotFound)).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/chat/missing/history", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "missing"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleHistory).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestChatHandler_HandleStream(t *testing.T) {
	t.Run("Success - events relayed as SSE", func(t *testing.T) {
		chatSvc := mocks.NewMockChatService(t)
		handler := api.NewChatHandler(chatSvc)

		chatSvc.On("StreamMessage", mock.Anything, mock.MatchedBy(func(r *service.StreamRequest) bool {
			return r.ConversationID == "conv1" && r.UserID == "u1" &&
				r.Message == "tell me a joke" && r.Model == "llama3.2"
		}), mock.Anything).
			Run(func(args mock.Arguments) {
				ch := args.Get(2).(chan<- model.StreamResponse)
				ch <- model.StreamResponse{Content: "Why did"}
				ch <- model.StreamResponse{Content: " the gopher"}
				ch <- model.StreamResponse{Done: true}
				close(ch)
			}).Once()

		body, contentType := multipartBody(t, map[string]string{
			"message": "tell me a joke",
			"model":   "llama3.2",
		}, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/conv1/stream", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "conv1"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleStream).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

		events := parseSSE(t, rr.Body.String())
		require.Len(t, events, 3)
		assert.Equal(t, "Why did", events[0].Content)
		assert.Equal(t, " the gopher", events[1].Content)
		assert.True(t, events[2].Done)
	})

	t.Run("Attachments are forwarded", func(t *testing.T) {
		chatSvc := mocks.NewMockChatService(t)
		handler := api.NewChatHandler(chatSvc)

		chatSvc.On("StreamMessage", mock.Anything, mock.MatchedBy(func(r *service.StreamRequest) bool {
			return len(r.Files) == 1 &&
				r.Files[0].Filename == "notes.txt" &&
				string(r.Files[0].Data) == "remember the milk"
		}), mock.Anything).
			Run(func(args mock.Arguments) {
				ch := args.Get(2).(chan<- model.StreamResponse)
				ch <- model.StreamResponse{Done: true}
				close(ch)
			}).Once()

		body, contentType := multipartBody(t, map[string]string{"message": "summarize"},
			"notes.txt", []byte("remember the milk"))
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/conv1/stream", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "conv1"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleStream).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - missing message", func(t *testing.T) {
		chatSvc := mocks.NewMockChatService(t)
		handler := api.NewChatHandler(chatSvc)

		body, contentType := multipartBody(t, map[string]string{"model": "llama3.2"}, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/conv1/stream", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "conv1"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleStream).ServeHTTP(rr, req)

		// Rejected before the stream starts, so a plain JSON error.
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		chatSvc.AssertNotCalled(t, "StreamMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Service errors arrive as stream events", func(t *testing.T) {
		chatSvc := mocks.NewMockChatService(t)
		handler := api.NewChatHandler(chatSvc)

		chatSvc.On("StreamMessage", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				ch := args.Get(2).(chan<- model.StreamResponse)
				ch <- model.StreamResponse{Error: "Conversation not found", Done: true}
				close(ch)
			}).Once()

		body, contentType := multipartBody(t, map[string]string{"message": "hi"}, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/ghost/stream", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "ghost"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleStream).ServeHTTP(rr, req)

		// The HTTP status is already 200 by the time the pipeline fails.
		assert.Equal(t, http.StatusOK, rr.Code)
		events := parseSSE(t, rr.Body.String())
		require.Len(t, events, 1)
		assert.Equal(t, "Conversation not found", events[0].Error)
		assert.True(t, events[0].Done)
	})
}
