package session

import "github.com/taeskim-42/repstack-backend/internal/provider"

const (
	// trimThreshold is the hard cutoff: histories longer than this are cut
	// down to the most recent trimKeep entries and then repaired.
	trimThreshold = 100
	trimKeep      = 80
)

// Trim bounds the history and repairs it so the next model call never sees a
// malformed window. Histories at or under the threshold pass through as-is.
func Trim(msgs []provider.Message) []provider.Message {
	if len(msgs) <= trimThreshold {
		return msgs
	}
	return Repair(msgs[len(msgs)-trimKeep:])
}

// Repair returns the largest structurally valid suffix of an arbitrary
// message sequence:
//
//  1. tool_result blocks whose tool_use id does not appear in any assistant
//     message of the sequence are dropped (orphaned by truncation), and a
//     user message emptied by that filtering is dropped entirely;
//  2. messages with no usable content are dropped;
//  3. leading messages are dropped until the first one has role user.
//
// Repair is idempotent: repairing a repaired sequence is a no-op.
func Repair(msgs []provider.Message) []provider.Message {
	if len(msgs) == 0 {
		return msgs
	}

	toolUseIDs := make(map[string]struct{})
	for _, msg := range msgs {
		if msg.Role != provider.RoleAssistant {
			continue
		}
		for _, c := range msg.Content {
			if c.Type == provider.ContentTypeToolUse {
				toolUseIDs[c.ToolUseID] = struct{}{}
			}
		}
	}

	cleaned := make([]provider.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Empty() {
			continue
		}
		if msg.Role == provider.RoleUser && msg.HasToolResult() {
			filtered := make([]provider.Content, 0, len(msg.Content))
			for _, c := range msg.Content {
				if c.Type == provider.ContentTypeToolResult {
					if _, ok := toolUseIDs[c.ToolUseID]; !ok {
						continue
					}
				}
				filtered = append(filtered, c)
			}
			if len(filtered) == 0 {
				continue
			}
			cleaned = append(cleaned, provider.Message{Role: msg.Role, Content: filtered, TokenCount: msg.TokenCount})
			continue
		}
		cleaned = append(cleaned, msg)
	}

	for len(cleaned) > 0 && cleaned[0].Role != provider.RoleUser {
		cleaned = cleaned[1:]
	}
	return cleaned
}
