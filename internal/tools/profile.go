package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/taeskim-42/repstack-backend/internal/store"
)

// ProfileTools read the user's profile, training history, and today's routine.
func ProfileTools(client *store.Client) []Definition {
	return []Definition{
		{
			Name: "get_user_profile",
			Description: "Get user's profile including level, goals, injuries, and fitness info. " +
				"Use to personalize advice.",
			Parameters: map[string]any{},
			Handler: func(ctx context.Context, userID int64, _ json.RawMessage) (any, error) {
				return client.Get(ctx, fmt.Sprintf("/users/%d/profile", userID), userID, nil)
			},
		},
		{
			Name: "get_training_history",
			Description: "Get user's recent training history summary. Use to understand their " +
				"recent activity and progress.",
			Parameters: map[string]any{
				"days": map[string]any{"type": "integer", "description": "Number of days to look back (default 7)"},
			},
			Handler: func(ctx context.Context, userID int64, input json.RawMessage) (any, error) {
				var in struct {
					Days int `json:"days"`
				}
				if len(input) > 0 {
					if err := json.Unmarshal(input, &in); err != nil {
						return nil, fmt.Errorf("decode tool input: %w", err)
					}
				}
				params := url.Values{}
				if in.Days > 0 {
					params.Set("days", strconv.Itoa(in.Days))
				}
				return client.Get(ctx, fmt.Sprintf("/users/%d/history", userID), userID, params)
			},
		},
		{
			Name:        "get_today_routine",
			Description: "Check if user already has a routine for today.",
			Parameters:  map[string]any{},
			Handler: func(ctx context.Context, userID int64, _ json.RawMessage) (any, error) {
				return client.Get(ctx, fmt.Sprintf("/users/%d/today_routine", userID), userID, nil)
			},
		},
	}
}
