// Package multiagent answers a question with three agents in sequence:
// research collects facts, analysis reasons over them and synthesis writes
// the final answer.
package multiagent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/chain"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/graph"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/prompt"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

const Name = "multiagent"

const ExampleQuery = "What are the advantages of multi-agent systems over single-agent systems?"

// Node names.
const (
	NodeResearch  = "research"
	NodeAnalysis  = "analysis"
	NodeSynthesis = "synthesis"
)

// State is threaded through the three agents.
type State struct {
	Query         string `json:"query"`
	ResearchNotes string `json:"research_notes"`
	Analysis      string `json:"analysis"`
	FinalAnswer   string `json:"final_answer"`
}

var (
	researchPrompt = prompt.FromMessages(
		prompt.System("You are a research agent. Collect key factual points."),
		prompt.Human("{query}"),
	)
	analysisPrompt = prompt.FromMessages(
		prompt.System("You are an analysis agent. Extract insights and reasoning."),
		prompt.Human("Research notes:\n{research_notes}"),
	)
	synthesisPrompt = prompt.FromMessages(
		prompt.System("You are a synthesis agent. Produce a concise final answer."),
		prompt.Human("Question:\n{query}\n\nAnalysis:\n{analysis}"),
	)
)

// Team is the compiled research -> analysis -> synthesis graph.
type Team struct {
	graph  *graph.Graph[State]
	logger *zap.Logger
}

func New(model *llm.Model, logger *zap.Logger) (*Team, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	research := chain.Prompt(model, researchPrompt)
	analysis := chain.Prompt(model, analysisPrompt)
	synthesis := chain.Prompt(model, synthesisPrompt)

	g, err := graph.New[State]().
		AddNode(NodeResearch, func(ctx context.Context, s State) (State, error) {
			out, err := research.Invoke(ctx, prompt.Values{"query": s.Query})
			s.ResearchNotes = out
			return s, err
		}).
		AddNode(NodeAnalysis, func(ctx context.Context, s State) (State, error) {
			out, err := analysis.Invoke(ctx, prompt.Values{"research_notes": s.ResearchNotes})
			s.Analysis = out
			return s, err
		}).
		AddNode(NodeSynthesis, func(ctx context.Context, s State) (State, error) {
			out, err := synthesis.Invoke(ctx, prompt.Values{"query": s.Query, "analysis": s.Analysis})
			s.FinalAnswer = out
			return s, err
		}).
		SetEntryPoint(NodeResearch).
		AddEdge(NodeResearch, NodeAnalysis).
		AddEdge(NodeAnalysis, NodeSynthesis).
		AddEdge(NodeSynthesis, graph.END).
		Compile()
	if err != nil {
		return nil, err
	}
	return &Team{graph: g, logger: logger}, nil
}

// Run answers query and returns the final state.
func (t *Team) Run(ctx context.Context, query string) (*State, error) {
	ctx = tape.WithPattern(ctx, Name)
	final, err := t.graph.Stream(ctx, State{Query: query}, func(step graph.Step[State]) error {
		t.logger.Debug("agent finished", zap.String("node", step.Node))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("multi-agent run: %w", err)
	}
	return &final, nil
}
