package tools

import "github.com/taeskim-42/repstack-backend/internal/store"

// FeedbackTools forward workout feedback for program adjustment.
func FeedbackTools(client *store.Client) []Definition {
	return []Definition{
		{
			Name: "submit_feedback",
			Description: "Submit workout feedback from the user. Use when user shares how the " +
				"workout felt (too hard, too easy, just right, etc.).",
			Parameters: map[string]any{
				"feedback_text": map[string]any{"type": "string", "description": "User's feedback about the workout"},
				"rating":        map[string]any{"type": "integer", "description": "Rating 1-5 (1=too easy, 5=too hard)"},
			},
			Required: []string{"feedback_text"},
			Handler:  postProxy(client, "/feedbacks/submit"),
		},
	}
}
