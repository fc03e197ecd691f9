package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"github.com/taeskim-42/repstack-backend/internal/provider"
	"github.com/taeskim-42/repstack-backend/internal/store"
)

// Registry holds the tool catalog and dispatches calls. Schemas are reported
// in registration order so the model sees a stable catalog.
type Registry struct {
	defs  map[string]Definition
	order []string
	log   zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		defs: make(map[string]Definition),
		log:  log.With().Str("component", "tools").Logger(),
	}
}

// DefaultRegistry builds the full fitness catalog backed by the given client.
func DefaultRegistry(client *store.Client, log zerolog.Logger) *Registry {
	r := NewRegistry(log)
	r.Register(RoutineTools(client)...)
	r.Register(ExerciseTools(client)...)
	r.Register(ConditionTools(client)...)
	r.Register(WorkoutTools(client)...)
	r.Register(FeedbackTools(client)...)
	r.Register(PlanTools(client)...)
	r.Register(ProfileTools(client)...)
	r.Register(MemoryTools(client)...)
	r.Register(KnowledgeTools(client)...)
	return r
}

// Register adds definitions to the catalog. Re-registering a name replaces
// the handler but keeps its original position.
func (r *Registry) Register(defs ...Definition) {
	for _, d := range defs {
		if _, ok := r.defs[d.Name]; !ok {
			r.order = append(r.order, d.Name)
		}
		r.defs[d.Name] = d
	}
}

// Schemas returns the catalog in registration order.
func (r *Registry) Schemas() []provider.ToolSchema {
	schemas := make([]provider.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.defs[name].Schema())
	}
	return schemas
}

// Execute runs a single tool by name.
func (r *Registry) Execute(ctx context.Context, userID int64, name string, input json.RawMessage) (any, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return d.Handler(ctx, userID, input)
}

// Execution is the outcome of one dispatched tool call.
type Execution struct {
	ToolUseID string
	Name      string
	Input     json.RawMessage
	Result    any    // handler result, nil when the call failed
	Text      string // the result as the model receives it
	IsError   bool
}

// Dispatch runs every tool call concurrently and returns the outcomes in
// call order. Failures never escape: an unknown tool or a handler error
// becomes a textual error result the model can read and recover from.
func (r *Registry) Dispatch(ctx context.Context, userID int64, calls []provider.Content) []Execution {
	return iter.Map(calls, func(call *provider.Content) Execution {
		return r.dispatchOne(ctx, userID, *call)
	})
}

func (r *Registry) dispatchOne(ctx context.Context, userID int64, call provider.Content) Execution {
	exec := Execution{ToolUseID: call.ToolUseID, Name: call.ToolName, Input: call.ToolInput}

	result, err := r.Execute(ctx, userID, call.ToolName, call.ToolInput)
	if err != nil {
		r.log.Error().Err(err).Int64("user_id", userID).Str("tool", call.ToolName).Msg("tool call failed")
		exec.IsError = true
		if errors.Is(err, ErrUnknownTool) {
			exec.Text = fmt.Sprintf("Unknown tool: %s", call.ToolName)
		} else {
			exec.Text = fmt.Sprintf("Tool error: %v", err)
		}
		return exec
	}

	exec.Result = result
	exec.Text = resultText(result)
	return exec
}

// resultText renders a handler result for the model: strings pass through,
// everything else is serialized as JSON.
func resultText(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}

// ResultMessage assembles the dispatched outcomes into the single user
// message that answers the assistant's tool calls, in call order.
func ResultMessage(execs []Execution) provider.Message {
	content := make([]provider.Content, 0, len(execs))
	for _, e := range execs {
		content = append(content, provider.Content{
			Type:       provider.ContentTypeToolResult,
			ToolUseID:  e.ToolUseID,
			ToolResult: e.Text,
			IsError:    e.IsError,
		})
	}
	return provider.Message{Role: provider.RoleUser, Content: content}
}
