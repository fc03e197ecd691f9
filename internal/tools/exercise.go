package tools

import "github.com/taeskim-42/repstack-backend/internal/store"

// ExerciseTools record completed sets.
func ExerciseTools(client *store.Client) []Definition {
	return []Definition{
		{
			Name: "record_exercise",
			Description: "Record an exercise set. Use when the user tells you what exercise they " +
				"did with weight and reps.",
			Parameters: map[string]any{
				"exercise_name": map[string]any{"type": "string", "description": "Name of exercise"},
				"weight_kg":     map[string]any{"type": "number", "description": "Weight in kg"},
				"reps":          map[string]any{"type": "integer", "description": "Number of reps"},
				"set_number":    map[string]any{"type": "integer", "description": "Set number"},
			},
			Required: []string{"exercise_name", "reps"},
			Handler:  postProxy(client, "/exercises/record"),
		},
	}
}
