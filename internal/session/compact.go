package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taeskim-42/repstack-backend/internal/provider"
	"github.com/taeskim-42/repstack-backend/internal/store"
)

const (
	// compactThreshold is the fraction of the token budget at which
	// compaction kicks in.
	compactThreshold = 0.8

	// compactMinMessages: below this many messages the summarization round
	// trip is not worth it.
	compactMinMessages = 6

	// summaryExcerpt caps how much of each older message goes into the
	// summarization prompt.
	summaryExcerpt = 500

	summaryMarker = "[시스템: 이전 대화 요약]"
	summaryAck    = "네, 이전 대화 내용을 기억하고 있습니다. 계속 도와드릴게요."
)

// Compactor replaces the older partition of an over-budget history with a
// model-generated summary, wholesale-replacing the stored record.
type Compactor struct {
	summarizer Summarizer
	store      store.Store
	maxTokens  int
	log        zerolog.Logger
}

func NewCompactor(sum Summarizer, st store.Store, maxTokens int, log zerolog.Logger) *Compactor {
	return &Compactor{
		summarizer: sum,
		store:      st,
		maxTokens:  maxTokens,
		log:        log.With().Str("component", "compactor").Logger(),
	}
}

// Compact summarizes the older half of msgs when the token estimate is at or
// over 80% of the budget. It returns the history the session should keep and
// whether it changed. On any failure (no safe split, summarization error,
// store replace error) the input history comes back untouched; the estimate
// is recomputed next turn, so compaction retries itself.
func (c *Compactor) Compact(ctx context.Context, userID int64, msgs []provider.Message) ([]provider.Message, bool, error) {
	estimate := EstimateTokens(msgs)
	if float64(estimate) < compactThreshold*float64(c.maxTokens) {
		return msgs, false, nil
	}
	if len(msgs) < compactMinMessages {
		return msgs, false, nil
	}

	split, ok := safeSplit(msgs, len(msgs)/2)
	if !ok {
		c.log.Warn().Int64("user_id", userID).Msg("no safe split point, skipping compaction")
		return msgs, false, nil
	}
	older := msgs[:split]
	recent := msgs[split:]

	c.log.Info().
		Int64("user_id", userID).
		Int("estimated_tokens", estimate).
		Int("older", len(older)).
		Int("recent", len(recent)).
		Msg("compacting history")

	summary, err := c.summarizer.Summarize(ctx, older)
	if err != nil {
		return msgs, false, fmt.Errorf("summarize history: %w", err)
	}

	// The synthetic pair keeps the spliced history starting with a user
	// message and gives the model an acknowledgment turn to anchor on.
	compacted := make([]provider.Message, 0, len(recent)+2)
	compacted = append(compacted,
		provider.TextMessage(provider.RoleUser, summaryMarker+"\n"+summary),
		provider.TextMessage(provider.RoleAssistant, summaryAck),
	)
	compacted = append(compacted, recent...)

	if err := c.store.ReplaceHistory(ctx, userID, compacted); err != nil {
		return msgs, false, fmt.Errorf("replace history: %w", err)
	}
	return compacted, true, nil
}

// safeSplit scans backward from target for a user message that carries no
// tool_result blocks — a genuine free-text turn, not the continuation of a
// tool round trip — so the split never separates an assistant tool_use from
// its paired results. Reports false when no such index exists.
func safeSplit(msgs []provider.Message, target int) (int, bool) {
	for i := target; i > 0; i-- {
		if msgs[i].Role == provider.RoleUser && !msgs[i].HasToolResult() {
			return i, true
		}
	}
	return 0, false
}

// Summarizer generates a factual summary of an older history partition.
type Summarizer interface {
	Summarize(ctx context.Context, messages []provider.Message) (string, error)
}

// LLMSummarizer asks a model to summarize the conversation.
type LLMSummarizer struct {
	Provider provider.Provider
	Model    string // optional cheaper model; empty = provider default
}

const summarizeSystemPrompt = "대화 이력을 요약하는 도우미입니다. 핵심 정보만 간결하게 요약하세요."

const summarizeInstruction = "다음 대화 이력을 간결하게 요약해주세요. " +
	"중요한 정보(운동 기록, 루틴 변경, 피드백, 사용자 선호)를 포함하세요.\n\n"

func (s *LLMSummarizer) Summarize(ctx context.Context, messages []provider.Message) (string, error) {
	var prompt strings.Builder
	prompt.WriteString(summarizeInstruction)
	for _, msg := range messages {
		text := firstText(msg)
		if text == "" {
			continue
		}
		fmt.Fprintf(&prompt, "[%s]: %s\n", msg.Role, truncateRunes(text, summaryExcerpt))
	}

	model := s.Model
	if model == "" {
		model = s.Provider.DefaultModel()
	}

	resp, err := s.Provider.Chat(ctx, &provider.ChatRequest{
		Model:        model,
		Messages:     []provider.Message{provider.TextMessage(provider.RoleUser, prompt.String())},
		SystemPrompt: summarizeSystemPrompt,
		MaxTokens:    1024,
	})
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, c := range resp.Content {
		if c.Type == provider.ContentTypeText {
			out.WriteString(c.Text)
		}
	}
	summary := strings.TrimSpace(out.String())
	if summary == "" {
		return "", fmt.Errorf("summarizer returned empty summary")
	}
	return summary, nil
}

// firstText returns the message's first text block.
func firstText(msg provider.Message) string {
	for _, c := range msg.Content {
		if c.Type == provider.ContentTypeText {
			return c.Text
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
