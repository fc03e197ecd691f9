package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taeskim-42/repstack-backend/internal/provider"
)

// HistoryStore implements Store against the backend sessions API.
type HistoryStore struct {
	client *Client
}

func NewHistoryStore(client *Client) *HistoryStore {
	return &HistoryStore{client: client}
}

// wireMessage is the round-trip shape for one persisted message.
// Content is either a JSON string, a {"type":"summary","text":...} object
// (written by the backend after compaction), or an array of wireBlocks.
type wireMessage struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	TokenCount int             `json:"token_count"`
}

type wireBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

func (s *HistoryStore) LoadHistory(ctx context.Context, userID int64) ([]provider.Message, error) {
	resp, err := s.client.Get(ctx, fmt.Sprintf("/sessions/%d/messages", userID), userID, nil)
	if err != nil {
		return nil, err
	}
	if ok, _ := resp["success"].(bool); !ok {
		return nil, nil
	}

	raw, err := json.Marshal(resp["messages"])
	if err != nil {
		return nil, fmt.Errorf("re-encode messages: %w", err)
	}
	var rows []wireMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	var history []provider.Message
	for _, row := range rows {
		msg, ok := decodeRow(row)
		if !ok {
			continue
		}
		history = append(history, msg)
	}
	return history, nil
}

func (s *HistoryStore) SaveMessages(ctx context.Context, userID int64, msgs []provider.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return s.post(ctx, fmt.Sprintf("/sessions/%d/messages", userID), userID, msgs)
}

func (s *HistoryStore) ReplaceHistory(ctx context.Context, userID int64, msgs []provider.Message) error {
	return s.post(ctx, fmt.Sprintf("/sessions/%d/summarize", userID), userID, msgs)
}

func (s *HistoryStore) post(ctx context.Context, path string, userID int64, msgs []provider.Message) error {
	payload := make([]wireMessage, 0, len(msgs))
	for _, msg := range msgs {
		row, err := encodeRow(msg)
		if err != nil {
			return err
		}
		payload = append(payload, row)
	}

	resp, err := s.client.Post(ctx, path, userID, map[string]any{"messages": payload})
	if err != nil {
		return err
	}
	if ok, _ := resp["success"].(bool); !ok {
		return fmt.Errorf("backend rejected %s", path)
	}
	return nil
}

// encodeRow converts a message to the wire shape. Tool-result batches are
// written with role "tool_result" so the backend can tell them apart from
// real user turns; they come back as role user on load.
func encodeRow(msg provider.Message) (wireMessage, error) {
	role := string(msg.Role)
	if msg.Role == provider.RoleUser && msg.HasToolResult() {
		role = "tool_result"
	}

	content, err := encodeContent(msg)
	if err != nil {
		return wireMessage{}, fmt.Errorf("encode %s message: %w", role, err)
	}
	return wireMessage{Role: role, Content: content, TokenCount: msg.TokenCount}, nil
}

// encodeContent writes a plain user text message as a JSON string and
// everything else as an array of tagged blocks.
func encodeContent(msg provider.Message) (json.RawMessage, error) {
	if msg.Role == provider.RoleUser && len(msg.Content) == 1 && msg.Content[0].Type == provider.ContentTypeText {
		return json.Marshal(msg.Content[0].Text)
	}

	blocks := make([]wireBlock, 0, len(msg.Content))
	for _, c := range msg.Content {
		switch c.Type {
		case provider.ContentTypeText:
			blocks = append(blocks, wireBlock{Type: "text", Text: c.Text})
		case provider.ContentTypeToolUse:
			input := c.ToolInput
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			blocks = append(blocks, wireBlock{Type: "tool_use", ID: c.ToolUseID, Name: c.ToolName, Input: input})
		case provider.ContentTypeToolResult:
			blocks = append(blocks, wireBlock{Type: "tool_result", ToolUseID: c.ToolUseID, Content: c.ToolResult, IsError: c.IsError})
		}
	}
	return json.Marshal(blocks)
}

// decodeRow converts one wire row back to a message. Returns false for rows
// that decode to nothing usable (empty strings, empty block lists, unknown
// content shapes): the session must never hydrate an empty-content message.
func decodeRow(row wireMessage) (provider.Message, bool) {
	role := provider.Role(row.Role)
	if row.Role == "tool_result" {
		role = provider.RoleUser
	}
	if role != provider.RoleUser && role != provider.RoleAssistant {
		return provider.Message{}, false
	}

	// Plain string content.
	var text string
	if err := json.Unmarshal(row.Content, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return provider.Message{}, false
		}
		return provider.Message{Role: role, Content: []provider.Content{{Type: provider.ContentTypeText, Text: text}}, TokenCount: row.TokenCount}, true
	}

	// Summary object stored by the backend: flatten to plain text.
	var summary struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(row.Content, &summary); err == nil && summary.Type == "summary" {
		if strings.TrimSpace(summary.Text) == "" {
			return provider.Message{}, false
		}
		return provider.Message{Role: role, Content: []provider.Content{{Type: provider.ContentTypeText, Text: summary.Text}}, TokenCount: row.TokenCount}, true
	}

	// Block list.
	var blocks []wireBlock
	if err := json.Unmarshal(row.Content, &blocks); err != nil {
		return provider.Message{}, false
	}
	var content []provider.Content
	for _, b := range blocks {
		switch b.Type {
		case "text":
			content = append(content, provider.Content{Type: provider.ContentTypeText, Text: b.Text})
		case "tool_use":
			content = append(content, provider.Content{Type: provider.ContentTypeToolUse, ToolUseID: b.ID, ToolName: b.Name, ToolInput: b.Input})
		case "tool_result":
			content = append(content, provider.Content{Type: provider.ContentTypeToolResult, ToolUseID: b.ToolUseID, ToolResult: b.Content, IsError: b.IsError})
		}
	}
	if len(content) == 0 {
		return provider.Message{}, false
	}
	return provider.Message{Role: role, Content: content, TokenCount: row.TokenCount}, true
}
