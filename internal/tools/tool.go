// Package tools defines the fitness tool catalog exposed to the model and the
// registry that dispatches tool calls against the backend API.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/taeskim-42/repstack-backend/internal/provider"
	"github.com/taeskim-42/repstack-backend/internal/store"
)

// ErrUnknownTool is returned when the model calls a name the registry does
// not carry.
var ErrUnknownTool = errors.New("unknown tool")

// Handler executes one tool call for one user.
type Handler func(ctx context.Context, userID int64, input json.RawMessage) (any, error)

// Definition describes one callable tool: the model-facing schema and the
// handler that proxies the call to the backend.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema properties
	Required    []string
	Handler     Handler
}

// Schema returns the provider-facing schema for this definition.
func (d Definition) Schema() provider.ToolSchema {
	return provider.ToolSchema{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Parameters,
		Required:    d.Required,
	}
}

// decodeInput parses a tool input object into a map. Nil or empty input
// decodes to an empty map so optional-only tools accept a bare call.
func decodeInput(input json.RawMessage) (map[string]any, error) {
	body := map[string]any{}
	if len(input) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(input, &body); err != nil {
		return nil, fmt.Errorf("decode tool input: %w", err)
	}
	return body, nil
}

// postProxy builds a handler that forwards the tool input verbatim as the
// POST body of a backend endpoint.
func postProxy(client *store.Client, path string) Handler {
	return func(ctx context.Context, userID int64, input json.RawMessage) (any, error) {
		body, err := decodeInput(input)
		if err != nil {
			return nil, err
		}
		return client.Post(ctx, path, userID, body)
	}
}
