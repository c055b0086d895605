package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiProvider_Complete(t *testing.T) {
	var capturedPath, capturedKey string
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Bonjour"}]}}]}`))
	}))
	defer server.Close()

	provider := newGeminiProvider(server.URL, "test-key")
	resp, err := provider.Complete(context.Background(), &Request{
		Model: "gemini-1.5-flash",
		Turns: []Turn{
			{Role: "system", Content: TextContent("answer in French")},
			{Role: "user", Content: TextContent("hello")},
			{Role: "assistant", Content: TextContent("Salut")},
			{Role: "user", Content: TextContent("again")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", resp)

	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", capturedPath)
	assert.Equal(t, "test-key", capturedKey)

	// The system turn travels outside the contents array.
	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "answer in French", captured.SystemInstruction.Parts[0].Text)

	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	// Assistant turns are renamed to the "model" role.
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "Salut", captured.Contents[1].Parts[0].Text)
	assert.Equal(t, "user", captured.Contents[2].Role)
}

func TestGeminiProvider_Stream(t *testing.T) {
	var capturedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"Bon\"}]}}]}\n\n" +
				"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"jour\"}]}}]}\n\n"))
	}))
	defer server.Close()

	provider := newGeminiProvider(server.URL, "test-key")
	chunks := drain(t, provider, &Request{
		Model: "gemini-1.5-flash",
		Turns: []Turn{{Role: "user", Content: TextContent("hello")}},
	})

	assert.Equal(t, "/models/gemini-1.5-flash:streamGenerateContent", capturedPath)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Bon", chunks[0].Content)
	assert.Equal(t, "jour", chunks[1].Content)
	assert.True(t, chunks[2].Done)
}

func TestGeminiProvider_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	provider := newGeminiProvider(server.URL, "test-key")
	_, err := provider.Complete(context.Background(), &Request{
		Model: "gemini-1.5-flash",
		Turns: []Turn{{Role: "user", Content: TextContent("hello")}},
	})
	assert.ErrorIs(t, err, ErrUpstreamProtocol)
}
