package session

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/taeskim-42/repstack-backend/internal/provider"
)

// charsPerToken blends roughly 2 chars/token for Korean with 4 chars/token
// for English and code, biased high so compaction triggers before the real
// context window fills. This is a budget estimate, not a tokenizer.
const charsPerToken = 2.5

// EstimateTokens approximates the context size of a history: total character
// count divided by charsPerToken. Plain text counts its raw characters;
// structured content counts the characters of its JSON form with non-ASCII
// preserved.
func EstimateTokens(msgs []provider.Message) int {
	total := 0
	for _, msg := range msgs {
		total += messageChars(msg)
	}
	return int(float64(total) / charsPerToken)
}

func messageChars(msg provider.Message) int {
	if len(msg.Content) == 1 && msg.Content[0].Type == provider.ContentTypeText {
		return utf8.RuneCountInString(msg.Content[0].Text)
	}
	return utf8.RuneCountInString(serializeBlocks(msg.Content))
}

// serializeBlocks renders content blocks as JSON without HTML escaping so
// Korean text is counted at its real character length.
func serializeBlocks(content []provider.Content) string {
	type block struct {
		Type      string          `json:"type"`
		Text      string          `json:"text,omitempty"`
		ID        string          `json:"id,omitempty"`
		Name      string          `json:"name,omitempty"`
		Input     json.RawMessage `json:"input,omitempty"`
		ToolUseID string          `json:"tool_use_id,omitempty"`
		Content   string          `json:"content,omitempty"`
	}

	blocks := make([]block, 0, len(content))
	for _, c := range content {
		switch c.Type {
		case provider.ContentTypeText:
			blocks = append(blocks, block{Type: "text", Text: c.Text})
		case provider.ContentTypeToolUse:
			blocks = append(blocks, block{Type: "tool_use", ID: c.ToolUseID, Name: c.ToolName, Input: c.ToolInput})
		case provider.ContentTypeToolResult:
			blocks = append(blocks, block{Type: "tool_result", ToolUseID: c.ToolUseID, Content: c.ToolResult})
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(blocks); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
