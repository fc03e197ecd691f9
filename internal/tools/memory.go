package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taeskim-42/repstack-backend/internal/store"
)

// MemoryTools read and write the user's long-term memory.
func MemoryTools(client *store.Client) []Definition {
	return []Definition{
		{
			Name: "read_memory",
			Description: "Read stored long-term memory about the user (key facts, personality, " +
				"milestones). Use at session start to recall user context.",
			Parameters: map[string]any{},
			Handler: func(ctx context.Context, userID int64, _ json.RawMessage) (any, error) {
				return client.Get(ctx, fmt.Sprintf("/users/%d/memory", userID), userID, nil)
			},
		},
		{
			Name: "write_memory",
			Description: "Store a new observation or fact about the user for long-term memory. " +
				"Use when you learn something important about the user.",
			Parameters: map[string]any{
				"type": map[string]any{
					"type":        "string",
					"enum":        []string{"fact", "personality_profile", "milestone"},
					"description": "Type of memory to store",
				},
				"category": map[string]any{
					"type":        "string",
					"description": "Category for facts (e.g., injury, goal, preference, habit)",
				},
				"content": map[string]any{"type": "string", "description": "The content to remember"},
			},
			Required: []string{"type", "content"},
			Handler: func(ctx context.Context, userID int64, input json.RawMessage) (any, error) {
				body, err := decodeInput(input)
				if err != nil {
					return nil, err
				}
				return client.Post(ctx, fmt.Sprintf("/users/%d/memory", userID), userID, body)
			},
		},
	}
}
