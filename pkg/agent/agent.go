// Package agent runs a tool-calling loop: the model is offered a tool
// registry, each requested call is executed and its result fed back, and
// the loop ends when the model answers without calling a tool.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tools"
)

// DefaultMaxIterations bounds the number of model calls per Run.
const DefaultMaxIterations = 8

// ErrMaxIterations is returned when the model keeps calling tools.
var ErrMaxIterations = errors.New("agent reached max iterations")

// Agent binds a model to a tool registry and a system prompt.
type Agent struct {
	model         *llm.Model
	registry      *tools.Registry
	systemPrompt  string
	maxIterations int
	logger        *zap.Logger
}

type Option func(*Agent)

func WithMaxIterations(n int) Option {
	return func(a *Agent) { a.maxIterations = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// New returns an agent. The model is copied with the registry's tools.
func New(model *llm.Model, registry *tools.Registry, systemPrompt string, opts ...Option) *Agent {
	a := &Agent{
		model:         model.WithTools(registry.LLMTools()),
		registry:      registry,
		systemPrompt:  systemPrompt,
		maxIterations: DefaultMaxIterations,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ToolExecution records one tool call made during a run.
type ToolExecution struct {
	Call     llm.ToolCall
	Output   string
	Err      error
	Duration time.Duration
}

// Result is the outcome of a run.
type Result struct {
	// Messages is the full conversation including the system prompt, tool
	// traffic and the final answer.
	Messages  []llm.Message
	Answer    string
	ToolCalls []ToolExecution
}

// Run drives the loop over the given conversation.
func (a *Agent) Run(ctx context.Context, messages []llm.Message) (*Result, error) {
	conv := make([]llm.Message, 0, len(messages)+1)
	if a.systemPrompt != "" {
		conv = append(conv, llm.SystemMessage(a.systemPrompt))
	}
	conv = append(conv, messages...)

	res := &Result{}
	for i := 0; i < a.maxIterations; i++ {
		reply, err := a.model.Invoke(ctx, conv)
		if err != nil {
			return nil, err
		}
		conv = append(conv, reply)

		if len(reply.ToolCalls) == 0 {
			res.Messages = conv
			res.Answer = reply.Content
			return res, nil
		}

		for _, call := range reply.ToolCalls {
			exec := a.exec(ctx, call)
			res.ToolCalls = append(res.ToolCalls, exec)

			content := exec.Output
			if exec.Err != nil {
				content = "Error: " + exec.Err.Error()
			}
			conv = append(conv, llm.ToolMessage(call, content))
		}
	}

	res.Messages = conv
	return res, fmt.Errorf("%w (%d)", ErrMaxIterations, a.maxIterations)
}

// Ask runs the loop on a single user query.
func (a *Agent) Ask(ctx context.Context, query string) (*Result, error) {
	return a.Run(ctx, []llm.Message{llm.UserMessage(query)})
}

func (a *Agent) exec(ctx context.Context, call llm.ToolCall) ToolExecution {
	name := call.Function.Name
	input := call.Function.Arguments
	if len(input) == 0 {
		input = []byte("{}")
	}

	start := time.Now()
	exec := ToolExecution{Call: call}

	def, ok := a.registry.Get(name)
	if !ok {
		exec.Err = fmt.Errorf("tool not found: %s", name)
	} else {
		exec.Output, exec.Err = def.Function(ctx, input)
	}
	exec.Duration = time.Since(start)

	fields := []zap.Field{
		zap.String("tool_name", name),
		zap.Duration("duration", exec.Duration),
		zap.Int("input_size", len(input)),
		zap.Int("output_size", len(exec.Output)),
	}
	if exec.Err != nil {
		a.logger.Warn("tool_exec", append(fields, zap.Error(exec.Err))...)
	} else {
		a.logger.Debug("tool_exec", fields...)
	}
	return exec
}
