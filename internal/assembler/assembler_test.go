package assembler_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/backend/internal/assembler"
	"chatrelay/backend/internal/extract"
	"chatrelay/backend/internal/llm"
	"chatrelay/backend/internal/model"
)

func makeTurns(n int) []llm.Turn {
	turns := make([]llm.Turn, 0, n)
	for i := 0; i < n; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		turns = append(turns, llm.Turn{Role: role, Content: llm.TextContent(fmt.Sprintf("turn %d", i))})
	}
	return turns
}

func TestFromMessages(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "hi there"},
	}
	turns := assembler.FromMessages(messages)
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content.FlatText())
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
}

func TestWindow(t *testing.T) {
	t.Run("Short history is passed through whole", func(t *testing.T) {
		turns := makeTurns(4)
		windowed := assembler.Window(turns, "sys", 10)
		require.Len(t, windowed, 5)
		assert.Equal(t, model.RoleSystem, windowed[0].Role)
		assert.Equal(t, "turn 0", windowed[1].Content.FlatText())
		assert.Equal(t, "turn 3", windowed[4].Content.FlatText())
	})

	t.Run("Long history keeps only the most recent turns", func(t *testing.T) {
		turns := makeTurns(25)
		windowed := assembler.Window(turns, "sys", 10)
		require.Len(t, windowed, 11)
		assert.Equal(t, model.RoleSystem, windowed[0].Role)
		// The newest turns survive, the oldest are cut.
		assert.Equal(t, "turn 15", windowed[1].Content.FlatText())
		assert.Equal(t, "turn 24", windowed[10].Content.FlatText())
	})

	t.Run("Zero width falls back to the default", func(t *testing.T) {
		turns := makeTurns(25)
		windowed := assembler.Window(turns, "sys", 0)
		require.Len(t, windowed, assembler.ContextWindowSize+1)
	})

	t.Run("Empty system prompt adds no system turn", func(t *testing.T) {
		turns := makeTurns(2)
		windowed := assembler.Window(turns, "", 10)
		require.Len(t, windowed, 2)
		assert.Equal(t, model.RoleUser, windowed[0].Role)
	})
}

func TestMergeAttachments(t *testing.T) {
	doc := &extract.Artifact{Filename: "notes.txt", Text: "remember the milk"}
	img := &extract.Artifact{Filename: "cat.png", IsImage: true, MediaType: "image/png", Data: "YmFzZTY0"}

	t.Run("Documents are appended as delimited blocks", func(t *testing.T) {
		turns := []llm.Turn{{Role: model.RoleUser, Content: llm.TextContent("summarize this")}}
		assembler.MergeAttachments(turns, "summarize this", []*extract.Artifact{doc}, nil, false)

		got := turns[0].Content.FlatText()
		assert.Contains(t, got, "summarize this\n\nFile Contents:")
		assert.Contains(t, got, "--- File: notes.txt ---")
		assert.Contains(t, got, "remember the milk")
	})

	t.Run("Images become parts for vision providers", func(t *testing.T) {
		turns := []llm.Turn{{Role: model.RoleUser, Content: llm.TextContent("describe")}}
		assembler.MergeAttachments(turns, "describe", nil, []*extract.Artifact{img}, true)

		require.True(t, turns[0].Content.Multipart())
		parts := turns[0].Content.Parts
		require.Len(t, parts, 2)
		assert.Equal(t, llm.PartText, parts[0].Type)
		assert.Equal(t, "describe", parts[0].Text)
		assert.Equal(t, llm.PartImage, parts[1].Type)
		assert.Equal(t, "image/png", parts[1].MediaType)
		assert.Equal(t, "YmFzZTY0", parts[1].Data)
	})

	t.Run("Images are dropped for non-vision providers", func(t *testing.T) {
		turns := []llm.Turn{{Role: model.RoleUser, Content: llm.TextContent("describe")}}
		assembler.MergeAttachments(turns, "describe", nil, []*extract.Artifact{img}, false)

		assert.False(t, turns[0].Content.Multipart())
		assert.Equal(t, "describe", turns[0].Content.FlatText())
	})

	t.Run("Non-user final turn is untouched", func(t *testing.T) {
		turns := []llm.Turn{{Role: model.RoleAssistant, Content: llm.TextContent("earlier reply")}}
		assembler.MergeAttachments(turns, "ignored", []*extract.Artifact{doc}, nil, false)
		assert.Equal(t, "earlier reply", turns[0].Content.FlatText())
	})

	t.Run("No attachments leaves the text as-is", func(t *testing.T) {
		turns := []llm.Turn{{Role: model.RoleUser, Content: llm.TextContent("just chat")}}
		assembler.MergeAttachments(turns, "just chat", nil, nil, true)
		assert.Equal(t, "just chat", turns[0].Content.FlatText())
	})
}
