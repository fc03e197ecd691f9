package tools

import "github.com/taeskim-42/repstack-backend/internal/store"

// WorkoutTools close out a workout session.
func WorkoutTools(client *store.Client) []Definition {
	return []Definition{
		{
			Name: "complete_workout",
			Description: "Mark the current workout session as complete. Use when user says " +
				"they're done working out.",
			Parameters: map[string]any{
				"notes": map[string]any{"type": "string", "description": "Optional completion notes"},
			},
			Handler: postProxy(client, "/workouts/complete"),
		},
	}
}
