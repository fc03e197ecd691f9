package agent

import (
	"context"
	"encoding/json"

	"github.com/taeskim-42/repstack-backend/internal/provider"
	"github.com/taeskim-42/repstack-backend/internal/session"
	"github.com/taeskim-42/repstack-backend/internal/tools"
)

const (
	// maxIterations bounds model round trips per turn. Hitting the cap ends
	// the turn with whatever the model last said, it is not an error.
	maxIterations = 10

	// responseMaxTokens caps each model reply.
	responseMaxTokens = 2048
)

// Chat processes one user message and returns the agent's reply. The whole
// turn runs under the user's session lock: model calls, tool dispatch,
// trimming, persistence, and compaction.
func (a *Agent) Chat(ctx context.Context, userID int64, message string, userContext UserContext) *Result {
	s := a.cache.Acquire(ctx, userID)
	defer s.Release()

	systemPrompt := BuildSystemPrompt(userContext)

	// Length of the history before this turn touched it, for rollback.
	mark := s.Len()

	userMsg := provider.TextMessage(provider.RoleUser, message)
	s.Append(userMsg)

	// pending tracks what this turn added, for incremental persistence.
	pending := []provider.Message{userMsg}

	var (
		usage   Usage
		reports []ToolCallReport
		final   *provider.ChatResponse
	)

	for i := 0; i < maxIterations; i++ {
		resp, err := a.provider.Chat(ctx, &provider.ChatRequest{
			Model:        a.model,
			Messages:     s.Messages(),
			Tools:        a.tools.Schemas(),
			SystemPrompt: systemPrompt,
			MaxTokens:    responseMaxTokens,
		})
		if err != nil {
			a.log.Error().Err(err).Int64("user_id", userID).Int("iteration", i).Msg("model call failed")
			// Roll back everything this turn appended so the cached history
			// cannot end on a dangling tool_use. Nothing is persisted.
			s.Replace(s.Messages()[:mark])
			return &Result{Success: false, Error: err.Error()}
		}

		usage.InputTokens += resp.Usage.InputTokens
		usage.OutputTokens += resp.Usage.OutputTokens
		final = resp

		assistant := provider.Message{
			Role:       provider.RoleAssistant,
			Content:    resp.Content,
			TokenCount: resp.Usage.OutputTokens,
		}
		s.Append(assistant)
		pending = append(pending, assistant)

		if resp.StopReason != provider.StopReasonToolUse {
			break
		}

		execs := a.tools.Dispatch(ctx, userID, resp.ToolCalls())
		for _, e := range execs {
			reports = append(reports, ToolCallReport{Name: e.Name, Input: e.Input, Result: reportResult(e)})
		}

		resultMsg := tools.ResultMessage(execs)
		s.Append(resultMsg)
		pending = append(pending, resultMsg)
	}

	a.finishTurn(ctx, userID, s, pending)

	return &Result{
		Success:   true,
		Message:   responseText(final),
		ToolCalls: reports,
		Usage:     &usage,
	}
}

// finishTurn runs the end-of-turn maintenance: bound and repair the cached
// history, persist this turn's messages, and compact if over budget. The
// reply is already decided, so store and compaction failures only log.
func (a *Agent) finishTurn(ctx context.Context, userID int64, s *session.Session, pending []provider.Message) {
	s.Replace(session.Trim(s.Messages()))

	if err := a.store.SaveMessages(ctx, userID, pending); err != nil {
		a.log.Error().Err(err).Int64("user_id", userID).Msg("failed to persist turn messages")
	}

	compacted, changed, err := a.compactor.Compact(ctx, userID, s.Messages())
	if err != nil {
		a.log.Error().Err(err).Int64("user_id", userID).Msg("compaction failed")
		return
	}
	if changed {
		s.Replace(compacted)
	}
}

// reportResult is the parsed view of a tool outcome for the front door:
// structured results pass through, JSON strings are decoded, anything else
// stays a string.
func reportResult(e tools.Execution) any {
	if e.Result != nil {
		if s, ok := e.Result.(string); ok {
			return tryParseJSON(s)
		}
		return e.Result
	}
	return tryParseJSON(e.Text)
}

func tryParseJSON(s string) any {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return s
	}
	return parsed
}

// responseText joins the text blocks of the final model response.
func responseText(resp *provider.ChatResponse) string {
	if resp == nil {
		return ""
	}
	msg := provider.Message{Role: provider.RoleAssistant, Content: resp.Content}
	return msg.Text()
}
