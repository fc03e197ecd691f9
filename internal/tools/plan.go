package tools

import (
	"context"
	"encoding/json"

	"github.com/taeskim-42/repstack-backend/internal/store"
)

// PlanTools explain the long-term training program.
func PlanTools(client *store.Client) []Definition {
	return []Definition{
		{
			Name: "explain_plan",
			Description: "Explain the user's long-term training program. Use when user asks about " +
				"their program structure, phases, or progress.",
			Parameters: map[string]any{},
			Handler: func(ctx context.Context, userID int64, _ json.RawMessage) (any, error) {
				return client.Get(ctx, "/programs/explain", userID, nil)
			},
		},
	}
}
