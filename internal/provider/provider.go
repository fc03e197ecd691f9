// Package provider defines the unified message model and the interface to
// hosted LLM APIs. Each adapter (anthropic.go, openai.go) converts the unified
// request into its vendor's format and normalizes the response back into the
// tagged Content union before it reaches the rest of the system.
package provider

import (
	"context"
	"encoding/json"
)

// ── Message types ────────────────────────────────────────────────────────────

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ContentType string

const (
	ContentTypeText       ContentType = "text"
	ContentTypeToolUse    ContentType = "tool_use"
	ContentTypeToolResult ContentType = "tool_result"
)

// Content is a single content block within a message.
type Content struct {
	Type       ContentType
	Text       string          // text
	ToolUseID  string          // tool_use / tool_result
	ToolName   string          // tool_use
	ToolInput  json.RawMessage // tool_use
	ToolResult string          // tool_result
	IsError    bool            // tool_result
}

// Message is a single message in the conversation history.
// The model API knows only user and assistant roles; a batch of tool results
// is a user message whose blocks are all tool_result.
type Message struct {
	Role       Role
	Content    []Content
	TokenCount int // output tokens reported by the API, 0 when unknown
}

// TextMessage builds a message with a single text block.
func TextMessage(role Role, text string) Message {
	return Message{
		Role:    role,
		Content: []Content{{Type: ContentTypeText, Text: text}},
	}
}

// Text concatenates the text blocks of a message.
func (m Message) Text() string {
	var out string
	for _, c := range m.Content {
		if c.Type != ContentTypeText {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += c.Text
	}
	return out
}

// HasToolUse reports whether the message carries any tool_use block.
func (m Message) HasToolUse() bool {
	for _, c := range m.Content {
		if c.Type == ContentTypeToolUse {
			return true
		}
	}
	return false
}

// HasToolResult reports whether the message carries any tool_result block.
func (m Message) HasToolResult() bool {
	for _, c := range m.Content {
		if c.Type == ContentTypeToolResult {
			return true
		}
	}
	return false
}

// Empty reports whether the message has no usable content: no blocks at all,
// or only text blocks that are empty strings.
func (m Message) Empty() bool {
	for _, c := range m.Content {
		if c.Type != ContentTypeText || c.Text != "" {
			return false
		}
	}
	return true
}

// ── Tool schema ──────────────────────────────────────────────────────────────

// ToolSchema describes a tool sent to the LLM (JSON Schema format).
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema properties
	Required    []string
}

// ── Request / response ───────────────────────────────────────────────────────

// ChatRequest is the unified request format sent to a provider.
type ChatRequest struct {
	Model        string
	Messages     []Message
	Tools        []ToolSchema
	SystemPrompt string
	MaxTokens    int
}

type StopReason string

const (
	StopReasonEndTurn StopReason = "end_turn"
	StopReasonToolUse StopReason = "tool_use"
)

// Usage records token consumption for one API call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ChatResponse is a complete model response, normalized to the tagged union.
type ChatResponse struct {
	StopReason StopReason
	Content    []Content
	Usage      Usage
}

// ToolCalls returns the tool_use blocks of the response, in request order.
func (r *ChatResponse) ToolCalls() []Content {
	var calls []Content
	for _, c := range r.Content {
		if c.Type == ContentTypeToolUse {
			calls = append(calls, c)
		}
	}
	return calls
}

// ── Provider interface ───────────────────────────────────────────────────────

// Provider is the unified interface for all LLM backends. Implementors are
// responsible for converting the unified ChatRequest into the vendor request
// and for normalizing the vendor response content into []Content with an
// explicit per-block-type conversion (never attribute probing).
type Provider interface {
	// Chat performs one blocking request/response exchange with the model.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the provider identifier, e.g. "anthropic", "openai".
	Name() string

	// DefaultModel returns the model used when ChatRequest.Model is empty.
	DefaultModel() string
}
