package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/taeskim-42/repstack-backend/internal/store"
)

// KnowledgeTools search the curated fitness knowledge base. The backend
// returns a ready-to-inject context_prompt string; the raw response is the
// fallback when that field is missing.
func KnowledgeTools(client *store.Client) []Definition {
	return []Definition{
		{
			Name: "search_fitness_knowledge",
			Description: "Search the fitness knowledge base (curated from expert YouTube channels). " +
				"Use for exercise technique, form checks, routine design, nutrition/recovery questions.",
			Parameters: map[string]any{
				"query": map[string]any{"type": "string", "description": "Search query in Korean"},
				"knowledge_types": map[string]any{
					"type": "string",
					"description": "Comma-separated types: exercise_technique, form_check, " +
						"routine_design, nutrition_recovery",
				},
				"muscle_group": map[string]any{"type": "string", "description": "Target muscle group filter"},
				"limit":        map[string]any{"type": "integer", "description": "Max results (default 5)"},
			},
			Required: []string{"query"},
			Handler: func(ctx context.Context, userID int64, input json.RawMessage) (any, error) {
				var in struct {
					Query          string `json:"query"`
					KnowledgeTypes string `json:"knowledge_types"`
					MuscleGroup    string `json:"muscle_group"`
					Limit          int    `json:"limit"`
				}
				if err := json.Unmarshal(input, &in); err != nil {
					return nil, fmt.Errorf("decode tool input: %w", err)
				}

				params := url.Values{}
				params.Set("query", in.Query)
				if in.KnowledgeTypes != "" {
					params.Set("knowledge_types", in.KnowledgeTypes)
				}
				if in.MuscleGroup != "" {
					params.Set("muscle_group", in.MuscleGroup)
				}
				if in.Limit > 0 {
					params.Set("limit", strconv.Itoa(in.Limit))
				}

				resp, err := client.Get(ctx, "/knowledge/search", userID, params)
				if err != nil {
					return nil, err
				}
				if prompt, ok := resp["context_prompt"].(string); ok && prompt != "" {
					return prompt, nil
				}
				return resp, nil
			},
		},
	}
}
