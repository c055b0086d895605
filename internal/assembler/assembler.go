// Package assembler converts stored conversation rows into the bounded,
// provider-agnostic context sent to a model.
package assembler

import (
	"fmt"
	"strings"

	"chatrelay/backend/internal/extract"
	"chatrelay/backend/internal/llm"
	"chatrelay/backend/internal/model"
)

// ContextWindowSize is the default number of recent turns sent to a model,
// not counting the leading system turn.
const ContextWindowSize = 10

// FromMessages maps stored message rows to plain-text turns, preserving
// insertion order.
func FromMessages(messages []model.Message) []llm.Turn {
	turns := make([]llm.Turn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, llm.Turn{Role: msg.Role, Content: llm.TextContent(msg.Content)})
	}
	return turns
}

// Window returns [systemTurn] + the last w turns, or all turns if fewer than
// w exist. A w of zero or less falls back to the default window size. Turn
// order is preserved and no turn is ever split.
func Window(turns []llm.Turn, systemPrompt string, w int) []llm.Turn {
	if w <= 0 {
		w = ContextWindowSize
	}
	recent := turns
	if len(turns) > w {
		recent = turns[len(turns)-w:]
	}
	out := make([]llm.Turn, 0, len(recent)+1)
	if systemPrompt != "" {
		out = append(out, llm.Turn{Role: model.RoleSystem, Content: llm.TextContent(systemPrompt)})
	}
	return append(out, recent...)
}

// MergeAttachments rewrites the final user turn in place: the text becomes
// userText plus a delimited block per document, and when the target provider
// accepts images the content becomes one text part followed by one image part
// per upload, in upload order. Images are silently dropped for providers
// without vision support.
func MergeAttachments(turns []llm.Turn, userText string, docs, images []*extract.Artifact, vision bool) {
	if len(turns) == 0 {
		return
	}
	last := &turns[len(turns)-1]
	if last.Role != model.RoleUser {
		return
	}

	merged := userText
	if len(docs) > 0 {
		var sb strings.Builder
		for _, doc := range docs {
			fmt.Fprintf(&sb, "\n--- File: %s ---\n%s\n", doc.Filename, doc.Text)
		}
		merged = fmt.Sprintf("%s\n\nFile Contents:%s", userText, sb.String())
	}

	if !vision || len(images) == 0 {
		last.Content = llm.TextContent(merged)
		return
	}

	parts := make([]llm.Part, 0, len(images)+1)
	parts = append(parts, llm.Part{Type: llm.PartText, Text: merged})
	for _, img := range images {
		parts = append(parts, llm.Part{Type: llm.PartImage, MediaType: img.MediaType, Data: img.Data})
	}
	last.Content = llm.Content{Parts: parts}
}
