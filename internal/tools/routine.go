package tools

import "github.com/taeskim-42/repstack-backend/internal/store"

// RoutineTools manage the user's daily workout routine through the backend
// routine endpoints.
func RoutineTools(client *store.Client) []Definition {
	return []Definition{
		{
			Name: "generate_routine",
			Description: "Generate today's workout routine for the user. Call this when user asks " +
				"for a routine, wants to start working out, or asks what exercises to do today.",
			Parameters: map[string]any{
				"goal":      map[string]any{"type": "string", "description": "Optional workout goal"},
				"condition": map[string]any{"type": "string", "description": "Optional condition notes"},
			},
			Handler: postProxy(client, "/routines/generate"),
		},
		{
			Name:        "replace_exercise",
			Description: "Replace an exercise in the current routine with a different one.",
			Parameters: map[string]any{
				"exercise_name": map[string]any{"type": "string", "description": "Name of exercise to replace"},
				"reason":        map[string]any{"type": "string", "description": "Why user wants to replace"},
			},
			Required: []string{"exercise_name"},
			Handler:  postProxy(client, "/routines/replace_exercise"),
		},
		{
			Name:        "add_exercise",
			Description: "Add a new exercise to the current routine.",
			Parameters: map[string]any{
				"exercise_name": map[string]any{"type": "string", "description": "Name of exercise to add"},
				"sets":          map[string]any{"type": "integer", "description": "Number of sets"},
				"reps":          map[string]any{"type": "integer", "description": "Number of reps"},
				"target_muscle": map[string]any{"type": "string", "description": "Target muscle group"},
			},
			Required: []string{"exercise_name"},
			Handler:  postProxy(client, "/routines/add_exercise"),
		},
		{
			Name:        "delete_exercise",
			Description: "Remove an exercise from the current routine.",
			Parameters: map[string]any{
				"exercise_name": map[string]any{"type": "string", "description": "Name of exercise to delete"},
			},
			Required: []string{"exercise_name"},
			Handler:  postProxy(client, "/routines/delete_exercise"),
		},
	}
}
