package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatrelay/backend/internal/api"
	app_errors "chatrelay/backend/internal/errors"
	"chatrelay/backend/internal/interfaces/mocks"
	"chatrelay/backend/internal/model"
)

// addChiURLParams simulates how the chi router injects URL parameters
// (e.g. `{conversationID}`) into the request's context.
func addChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for key, value := range params {
		chiCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

var testUser = &model.User{ID: "u1", Email: "a@example.com"}

func TestConversationHandler_HandleCreate(t *testing.T) {
	t.Run("Success with title", func(t *testing.T) {
		convSvc := mocks.NewMockConversationService(t)
		handler := api.NewConversationHandler(convSvc)

		conv := &model.Conversation{ID: "conv1", UserID: "u1", Title: "Trip planning"}
		convSvc.On("Create", mock.Anything, "u1", "Trip planning").Return(conv, nil).Once()

		body := `{"title":"Trip planning"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/conversations", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer valid-token")
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleCreate).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp model.Conversation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "conv1", resp.ID)
	})

	t.Run("Success with empty body", func(t *testing.T) {
		convSvc := mocks.NewMockConversationService(t)
		handler := api.NewConversationHandler(convSvc)

		conv := &model.Conversation{ID: "conv1", UserID: "u1", Title: "New Conversation"}
		convSvc.On("Create", mock.Anything, "u1", "").Return(conv, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/v1/conversations", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleCreate).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})
}

func TestConversationHandler_HandleList(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		convSvc := mocks.NewMockConversationService(t)
		handler := api.NewConversationHandler(convSvc)

		convs := []*model.Conversation{{ID: "conv1"}, {ID: "conv2"}}
		convSvc.On("List", mock.Anything, "u1").Return(convs, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleList).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp []*model.Conversation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
	})

	t.Run("Internal error maps to 500", func(t *testing.T) {
		convSvc := mocks.NewMockConversationService(t)
		handler := api.NewConversationHandler(convSvc)

		convSvc.On("List", mock.Anything, "u1").Return(nil, app_errors.ErrInternal).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleList).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "An unexpected internal server error occurred.")
	})
}

func TestConversationHandler_HandleGet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		convSvc := mocks.NewMockConversationService(t)
		handler := api.NewConversationHandler(convSvc)

		full := &model.FullConversation{
			Conversation: model.Conversation{ID: "conv1", Title: "Trip planning"},
			Messages:     []model.Message{{ID: "m1", Content: "hi"}},
		}
		convSvc.On("Get", mock.Anything, "conv1", "u1").Return(full, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/conversations/conv1", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "conv1"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleGet).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Trip planning")
	})

	t.Run("Failure - not found", func(t *testing.T) {
		convSvc := mocks.NewMockConversationService(t)
		handler := api.NewConversationHandler(convSvc)

		convSvc.On("Get", mock.Anything, "missing", "u1").
			Return(nil, fmt.Errorf("%w: conversation", app_errors.ErrNotFound)).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/conversations/missing", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "missing"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleGet).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestConversationHandler_HandleUpdateTitle(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		convSvc := mocks.NewMockConversationService(t)
		handler := api.NewConversationHandler(convSvc)

		convSvc.On("UpdateTitle", mock.Anything, "conv1", "u1", "Renamed").Return(nil).Once()

		body := `{"title":"Renamed"}`
		req := httptest.NewRequest(http.MethodPut, "/v1/conversations/conv1", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "conv1"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleUpdateTitle).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - empty title", func(t *testing.T) {
		convSvc := mocks.NewMockConversationService(t)
		handler := api.NewConversationHandler(convSvc)

		body := `{"title":""}`
		req := httptest.NewRequest(http.MethodPut, "/v1/conversations/conv1", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer valid-token")
		req = addChiURLParams(req, map[string]string{"conversationID": "conv1"})
		rr := httptest.NewRecorder()
		withAuth(t, testUser, handler.HandleUpdateTitle).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		convSvc.AssertNotCalled(t, "UpdateTitle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConversationHandler_HandleDelete(t *testing.T) {
	convSvc := mocks.NewMockConversationService(t)
	handler := api.NewConversationHandler(convSvc)

	convSvc.On("Delete", mock.Anything, "conv1", "u1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/v1/conversations/conv1", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	req = addChiURLParams(req, map[string]string{"conversationID": "conv1"})
	rr := httptest.NewRecorder()
	withAuth(t, testUser, handler.HandleDelete).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
