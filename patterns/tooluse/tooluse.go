// Package tooluse answers questions with an agent that can call the
// search_information tool.
package tooluse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/agent"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/chain"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tools"
)

const Name = "tooluse"

const SystemPrompt = `You are a helpful assistant.
When a tool returns information, use it to directly answer the user's question.
Do not explain the tool usage unless asked.`

// ExampleQueries are run concurrently when no query is given. The last one
// falls through to the tool's default response.
var ExampleQueries = []string{
	"What is the capital of France?",
	"What's the weather like in London?",
	"Tell me something about dogs.",
}

// Outcome is the result of one query in RunAll.
type Outcome struct {
	Query     string `json:"query"`
	Answer    string `json:"answer,omitempty"`
	ToolCalls int    `json:"tool_calls"`
	Err       error  `json:"-"`
}

type Runner struct {
	agent *agent.Agent
}

// New returns a runner over reg, or the built-in search tool when reg is nil.
func New(model *llm.Model, reg *tools.Registry, logger *zap.Logger) *Runner {
	if reg == nil {
		reg = tools.NewRegistry(tools.SearchInformationDefinition)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{agent: agent.New(model, reg, SystemPrompt, agent.WithLogger(logger))}
}

// Run answers one query.
func (r *Runner) Run(ctx context.Context, query string) (*agent.Result, error) {
	res, err := r.agent.Ask(tape.WithPattern(ctx, Name), query)
	if err != nil {
		return nil, fmt.Errorf("agent run %q: %w", query, err)
	}
	return res, nil
}

// RunAll answers every query concurrently and waits for all of them. A
// failed query is reported in its Outcome and never aborts the others.
func (r *Runner) RunAll(ctx context.Context, queries []string) []Outcome {
	var run chain.Runnable[string, *agent.Result] = chain.Func[string, *agent.Result](r.Run)
	results := chain.Batch(ctx, run, queries, 0)

	out := make([]Outcome, len(queries))
	for i, res := range results {
		out[i] = Outcome{Query: queries[i], Err: res.Err}
		if res.Err == nil {
			out[i].Answer = res.Value.Answer
			out[i].ToolCalls = len(res.Value.ToolCalls)
		}
	}
	return out
}
