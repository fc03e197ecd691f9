package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/taeskim-42/repstack-backend/internal/provider"
	"github.com/taeskim-42/repstack-backend/internal/session"
	"github.com/taeskim-42/repstack-backend/internal/tools"
)

// scriptedProvider replays a fixed sequence of responses.
type scriptedProvider struct {
	responses []*provider.ChatResponse
	errs      []error
	requests  []*provider.ChatRequest
}

func (p *scriptedProvider) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	i := len(p.requests)
	p.requests = append(p.requests, req)
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	// Past the script, keep asking for tools. Lets tests exercise the
	// iteration cap without scripting ten entries.
	return p.responses[len(p.responses)-1], nil
}

func (p *scriptedProvider) Name() string         { return "scripted" }
func (p *scriptedProvider) DefaultModel() string { return "scripted-model" }

type recordingStore struct {
	history []provider.Message
	saveErr error
	saved   [][]provider.Message
}

func (s *recordingStore) LoadHistory(ctx context.Context, userID int64) ([]provider.Message, error) {
	return append([]provider.Message(nil), s.history...), nil
}

func (s *recordingStore) SaveMessages(ctx context.Context, userID int64, msgs []provider.Message) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, msgs)
	return nil
}

func (s *recordingStore) ReplaceHistory(ctx context.Context, userID int64, msgs []provider.Message) error {
	return nil
}

type staticSummarizer struct{}

func (staticSummarizer) Summarize(ctx context.Context, msgs []provider.Message) (string, error) {
	return "요약", nil
}

func textResponse(text string, out int) *provider.ChatResponse {
	return &provider.ChatResponse{
		StopReason: provider.StopReasonEndTurn,
		Content:    []provider.Content{{Type: provider.ContentTypeText, Text: text}},
		Usage:      provider.Usage{InputTokens: 10, OutputTokens: out},
	}
}

func toolUseResponse(id, name, input string) *provider.ChatResponse {
	return &provider.ChatResponse{
		StopReason: provider.StopReasonToolUse,
		Content: []provider.Content{
			{Type: provider.ContentTypeText, Text: "잠시만요"},
			{Type: provider.ContentTypeToolUse, ToolUseID: id, ToolName: name, ToolInput: json.RawMessage(input)},
		},
		Usage: provider.Usage{InputTokens: 10, OutputTokens: 5},
	}
}

func testAgent(t *testing.T, p provider.Provider, st *recordingStore, reg *tools.Registry) *Agent {
	t.Helper()
	log := zerolog.Nop()
	cache := session.NewCache(st, log)
	comp := session.NewCompactor(staticSummarizer{}, st, 1<<20, log)
	if reg == nil {
		reg = tools.NewRegistry(log)
	}
	return New(p, cache, st, reg, comp, "", log)
}

func echoRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry(zerolog.Nop())
	reg.Register(tools.Definition{
		Name:        "record_exercise",
		Description: "record a set",
		Parameters:  map[string]any{},
		Handler: func(ctx context.Context, userID int64, input json.RawMessage) (any, error) {
			return map[string]any{"success": true, "user_id": userID}, nil
		},
	})
	reg.Register(tools.Definition{
		Name:        "broken_tool",
		Description: "always fails",
		Parameters:  map[string]any{},
		Handler: func(ctx context.Context, userID int64, input json.RawMessage) (any, error) {
			return nil, errors.New("backend down")
		},
	})
	return reg
}

func TestChatPlainAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{textResponse("오늘은 하체 하는 날이에요", 20)}}
	st := &recordingStore{}
	a := testAgent(t, p, st, nil)

	res := a.Chat(context.Background(), 7, "오늘 뭐 하지?", UserContext{})
	if !res.Success {
		t.Fatalf("turn failed: %s", res.Error)
	}
	if res.Message != "오늘은 하체 하는 날이에요" {
		t.Errorf("message = %q", res.Message)
	}
	if len(res.ToolCalls) != 0 {
		t.Errorf("unexpected tool calls: %+v", res.ToolCalls)
	}
	if res.Usage.OutputTokens != 20 {
		t.Errorf("usage = %+v", res.Usage)
	}

	if len(st.saved) != 1 || len(st.saved[0]) != 2 {
		t.Fatalf("persisted batches = %+v", st.saved)
	}
	if st.saved[0][0].Role != provider.RoleUser || st.saved[0][1].Role != provider.RoleAssistant {
		t.Errorf("persisted roles wrong: %+v", st.saved[0])
	}
	if st.saved[0][1].TokenCount != 20 {
		t.Errorf("assistant token_count = %d, want 20", st.saved[0][1].TokenCount)
	}
}

func TestChatToolRoundTrip(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{
		toolUseResponse("t1", "record_exercise", `{"exercise_name":"스쿼트","reps":5}`),
		textResponse("기록했어요!", 15),
	}}
	st := &recordingStore{}
	a := testAgent(t, p, st, echoRegistry(t))

	res := a.Chat(context.Background(), 7, "스쿼트 5회 했어", UserContext{})
	if !res.Success {
		t.Fatalf("turn failed: %s", res.Error)
	}
	if res.Message != "기록했어요!" {
		t.Errorf("message = %q", res.Message)
	}

	if len(res.ToolCalls) != 1 {
		t.Fatalf("tool calls = %+v", res.ToolCalls)
	}
	report := res.ToolCalls[0]
	if report.Name != "record_exercise" {
		t.Errorf("report name = %q", report.Name)
	}
	result, ok := report.Result.(map[string]any)
	if !ok || result["success"] != true {
		t.Errorf("report result = %#v", report.Result)
	}

	// Usage sums both model calls.
	if res.Usage.InputTokens != 20 || res.Usage.OutputTokens != 20 {
		t.Errorf("usage = %+v", res.Usage)
	}

	// Persisted: user, assistant tool_use, tool results, final assistant.
	if len(st.saved) != 1 || len(st.saved[0]) != 4 {
		t.Fatalf("persisted %d messages, want 4", len(st.saved[0]))
	}
	if !st.saved[0][2].HasToolResult() {
		t.Error("third persisted message should carry tool results")
	}

	// The second model call saw the tool results.
	secondReq := p.requests[1]
	last := secondReq.Messages[len(secondReq.Messages)-1]
	if !last.HasToolResult() || last.Content[0].ToolUseID != "t1" {
		t.Errorf("second request does not end with paired tool results: %+v", last)
	}
}

func TestChatToolFailureIsNonFatal(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{
		toolUseResponse("t1", "broken_tool", `{}`),
		textResponse("지금은 기록이 어려워요. 잠시 후 다시 시도할게요.", 15),
	}}
	st := &recordingStore{}
	a := testAgent(t, p, st, echoRegistry(t))

	res := a.Chat(context.Background(), 7, "기록해줘", UserContext{})
	if !res.Success {
		t.Fatalf("tool failure must not fail the turn: %s", res.Error)
	}
	result, ok := res.ToolCalls[0].Result.(string)
	if !ok || !strings.HasPrefix(result, "Tool error:") {
		t.Errorf("report result = %#v", res.ToolCalls[0].Result)
	}
}

func TestChatModelFailureRollsBack(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("api unavailable")}}
	st := &recordingStore{history: []provider.Message{
		provider.TextMessage(provider.RoleUser, "안녕"),
		provider.TextMessage(provider.RoleAssistant, "안녕하세요"),
	}}
	a := testAgent(t, p, st, nil)

	res := a.Chat(context.Background(), 7, "루틴 만들어줘", UserContext{})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error == "" {
		t.Error("error text missing")
	}
	if len(st.saved) != 0 {
		t.Error("failed turn must not persist anything")
	}
	if info := a.SessionInfo(7); info.MessageCount != 2 {
		t.Errorf("history not rolled back: %+v", info)
	}
}

func TestChatMidLoopModelFailureRollsBackWholeTurn(t *testing.T) {
	p := &scriptedProvider{
		responses: []*provider.ChatResponse{toolUseResponse("t1", "record_exercise", `{}`)},
		errs:      []error{nil, errors.New("api unavailable")},
	}
	st := &recordingStore{}
	a := testAgent(t, p, st, echoRegistry(t))

	res := a.Chat(context.Background(), 7, "기록해줘", UserContext{})
	if res.Success {
		t.Fatal("expected failure")
	}
	// No dangling tool_use tail may survive for the next turn.
	if info := a.SessionInfo(7); info.MessageCount != 0 {
		t.Errorf("history not rolled back: %+v", info)
	}
}

func TestChatIterationCap(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{
		toolUseResponse("t1", "record_exercise", `{}`),
	}}
	st := &recordingStore{}
	a := testAgent(t, p, st, echoRegistry(t))

	res := a.Chat(context.Background(), 7, "계속 기록해줘", UserContext{})
	if !res.Success {
		t.Fatalf("capped turn must still succeed: %s", res.Error)
	}
	if len(p.requests) != maxIterations {
		t.Errorf("model called %d times, want %d", len(p.requests), maxIterations)
	}
}

func TestChatPersistFailureIsNonFatal(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{textResponse("네!", 5)}}
	st := &recordingStore{saveErr: errors.New("db down")}
	a := testAgent(t, p, st, nil)

	res := a.Chat(context.Background(), 7, "안녕", UserContext{})
	if !res.Success {
		t.Fatalf("persistence failure must not fail the turn: %s", res.Error)
	}
}

func TestChatSendsSystemPromptAndTools(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{textResponse("네!", 5)}}
	st := &recordingStore{}
	a := testAgent(t, p, st, echoRegistry(t))

	uc := UserContext{Profile: map[string]any{"name": "태수"}}
	a.Chat(context.Background(), 7, "안녕", uc)

	req := p.requests[0]
	if !strings.Contains(req.SystemPrompt, "태수") {
		t.Error("system prompt missing profile name")
	}
	if len(req.Tools) != 2 {
		t.Errorf("request carried %d tools, want 2", len(req.Tools))
	}
	if req.Model != "scripted-model" {
		t.Errorf("model = %q, want provider default", req.Model)
	}
}

func TestChatTrimsLongHistory(t *testing.T) {
	var history []provider.Message
	for i := 0; i < 120; i++ {
		role := provider.RoleUser
		if i%2 == 1 {
			role = provider.RoleAssistant
		}
		history = append(history, provider.TextMessage(role, fmt.Sprintf("m%d", i)))
	}
	p := &scriptedProvider{responses: []*provider.ChatResponse{textResponse("네!", 5)}}
	st := &recordingStore{history: history}
	a := testAgent(t, p, st, nil)

	res := a.Chat(context.Background(), 7, "안녕", UserContext{})
	if !res.Success {
		t.Fatalf("turn failed: %s", res.Error)
	}
	if info := a.SessionInfo(7); info.MessageCount > 80 {
		t.Errorf("history not trimmed: %d messages", info.MessageCount)
	}
	// Persistence still covers only this turn's messages.
	if len(st.saved) != 1 || len(st.saved[0]) != 2 {
		t.Errorf("persisted batches = %d", len(st.saved))
	}
}

func TestResetSession(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{textResponse("네!", 5)}}
	st := &recordingStore{}
	a := testAgent(t, p, st, nil)

	a.Chat(context.Background(), 7, "안녕", UserContext{})
	if info := a.SessionInfo(7); info.MessageCount == 0 {
		t.Fatal("expected cached messages before reset")
	}
	a.ResetSession(7)
	if info := a.SessionInfo(7); info.MessageCount != 0 || info.Active {
		t.Errorf("post-reset info = %+v", info)
	}
}
