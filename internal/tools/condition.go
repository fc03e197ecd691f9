package tools

import "github.com/taeskim-42/repstack-backend/internal/store"

// ConditionTools analyze the user's daily readiness.
func ConditionTools(client *store.Client) []Definition {
	return []Definition{
		{
			Name: "check_condition",
			Description: "Analyze and record the user's daily condition. Use when user describes " +
				"how they feel today.",
			Parameters: map[string]any{
				"condition_text": map[string]any{"type": "string", "description": "User's condition description"},
			},
			Required: []string{"condition_text"},
			Handler:  postProxy(client, "/conditions/check"),
		},
	}
}
