// Package memory is a chatbot that remembers a conversation through the
// message history and a rolling summary the model refreshes after each turn.
package memory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/graph"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/logger"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/prompt"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

const Name = "memory"

const (
	DefaultSummarizeAfter = 2

	NodeChatbot    = "chatbot"
	NodeSummarizer = "summarizer"

	basePrompt    = "You are a helpful AI assistant."
	summaryPrompt = "Briefly summarize the conversation, including the old summary (if any) " +
		"and the newly exchanged content. Return only the summary, with no preamble."
)

// State is the conversation record.
type State struct {
	Messages []llm.Message `json:"messages"`
	Summary  string        `json:"summary"`

	summarized bool
}

// SystemPrompt is the chatbot's system message for a given summary.
func SystemPrompt(summary string) string {
	if summary == "" {
		return basePrompt
	}
	return basePrompt + " Here is a summary of the earlier conversation: " + summary
}

var chatPrompt = prompt.FromMessages(
	prompt.System("{system}"),
	prompt.Placeholder("messages"),
)

type Option func(*Memory)

// WithSummarizeAfter refreshes the summary once the history holds more than
// n messages.
func WithSummarizeAfter(n int) Option {
	return func(m *Memory) { m.summarizeAfter = n }
}

// WithKeepLast drops all but the newest n messages after each summary
// refresh. Zero keeps everything.
func WithKeepLast(n int) Option {
	return func(m *Memory) { m.keepLast = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Memory) { m.logger = l }
}

// Memory is the compiled chatbot -> summarizer graph.
type Memory struct {
	chat           *llm.Model
	summarizer     *llm.Model
	summarizeAfter int
	keepLast       int
	logger         *zap.Logger
	graph          *graph.Graph[State]
}

// New builds the graph. When model.OnToken is set chat replies stream
// through it; summaries never do.
func New(model *llm.Model, opts ...Option) (*Memory, error) {
	quiet := *model
	quiet.OnToken = nil

	m := &Memory{
		chat:           model,
		summarizer:     &quiet,
		summarizeAfter: DefaultSummarizeAfter,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.summarizeAfter < 0 || m.keepLast < 0 {
		return nil, fmt.Errorf("summarize-after and keep-last must not be negative")
	}

	g, err := graph.New[State]().
		AddNode(NodeChatbot, m.callModel).
		AddNode(NodeSummarizer, m.summarize).
		SetEntryPoint(NodeChatbot).
		AddEdge(NodeChatbot, NodeSummarizer).
		AddEdge(NodeSummarizer, graph.END).
		Compile()
	if err != nil {
		return nil, err
	}
	m.graph = g
	return m, nil
}

// Step runs one turn over s, whose last message is the new user input.
func (m *Memory) Step(ctx context.Context, s State) (State, error) {
	s.summarized = false
	return m.graph.Invoke(tape.WithPattern(ctx, Name), s)
}

func (m *Memory) callModel(ctx context.Context, s State) (State, error) {
	msgs, err := chatPrompt.Format(prompt.Values{
		"system":   SystemPrompt(s.Summary),
		"messages": s.Messages,
	})
	if err != nil {
		return s, err
	}
	reply, err := m.chat.Invoke(ctx, msgs)
	if err != nil {
		return s, err
	}
	s.Messages = append(append([]llm.Message(nil), s.Messages...), reply)
	return s, nil
}

func (m *Memory) summarize(ctx context.Context, s State) (State, error) {
	if len(s.Messages) <= m.summarizeAfter {
		return s, nil
	}

	reply, err := m.summarizer.Invoke(ctx, []llm.Message{
		llm.SystemMessage(summaryPrompt),
		llm.UserMessage(fmt.Sprintf("Old summary: %s\n\nNew conversation content: %s", s.Summary, prompt.Transcript(s.Messages))),
	})
	if err != nil {
		return s, err
	}

	s.Summary = reply.Content
	s.summarized = true
	if m.keepLast > 0 && len(s.Messages) > m.keepLast {
		s.Messages = append([]llm.Message(nil), s.Messages[len(s.Messages)-m.keepLast:]...)
	}

	m.logger.Debug("updated conversation summary",
		zap.Int("messages", len(s.Messages)),
		zap.String("summary_preview", logger.Preview(s.Summary, 80)),
	)
	return s, nil
}
