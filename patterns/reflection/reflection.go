// Package reflection improves an answer by alternating a producer, which
// drafts, and a critic, which reviews, until the critic accepts the draft
// or the iteration budget runs out.
package reflection

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/logger"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

const Name = "reflection"

const (
	DefaultMaxIterations = 3

	// StopPhrase is the critic's reply when a draft needs no changes.
	StopPhrase = "CODE_IS_PERFECT"
)

const ExampleTask = "Write a Python function named calculate_factorial that computes the factorial of a non-negative integer. " +
	"It should include a docstring, handle 0 correctly, and raise a ValueError for negative input."

const (
	producerPrompt = "You are an expert AI assistant that synthesizes information. " +
		"Produce the best possible answer to the user's task. When critiques are provided, " +
		"rewrite the whole answer so that it addresses every one of them."

	criticPrompt = "You are a meticulous reviewer. Critically evaluate the answer to the task " +
		"for correctness, completeness, clarity and adherence to the task's requirements. " +
		"If the answer is perfect and needs no changes, reply with exactly " + StopPhrase + ". " +
		"Otherwise reply with a concise bulleted list of critiques."
)

// RefineMessage is the user turn appended after a rejected draft.
func RefineMessage(critique string) string {
	return "Please refine the previous answer using the critiques provided:\n\n" + critique
}

// Iteration is one draft and its review.
type Iteration struct {
	Draft    string `json:"draft"`
	Critique string `json:"critique"`
}

type Result struct {
	Final      string      `json:"final"`
	Iterations []Iteration `json:"iterations"`
	// Accepted is false when the loop stopped on the iteration budget.
	Accepted bool `json:"accepted"`
}

type Option func(*Loop)

func WithMaxIterations(n int) Option {
	return func(l *Loop) { l.maxIterations = n }
}

// WithCritic uses a separate model for reviews.
func WithCritic(m *llm.Model) Option {
	return func(l *Loop) { l.critic = m }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Loop) { l.logger = log }
}

type Loop struct {
	producer      *llm.Model
	critic        *llm.Model
	maxIterations int
	logger        *zap.Logger
}

func New(model *llm.Model, opts ...Option) *Loop {
	l := &Loop{
		producer:      model,
		critic:        model,
		maxIterations: DefaultMaxIterations,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drafts an answer to task and refines it against the critic.
func (l *Loop) Run(ctx context.Context, task string) (*Result, error) {
	ctx = tape.WithPattern(ctx, Name)
	if l.maxIterations < 1 {
		return nil, fmt.Errorf("max iterations must be at least 1, got %d", l.maxIterations)
	}

	history := []llm.Message{llm.UserMessage(task)}
	res := &Result{}

	for i := 1; i <= l.maxIterations; i++ {
		draft, err := l.producer.Invoke(ctx, append([]llm.Message{llm.SystemMessage(producerPrompt)}, history...))
		if err != nil {
			return nil, fmt.Errorf("iteration %d: producing draft: %w", i, err)
		}

		review, err := l.critic.Invoke(ctx, []llm.Message{
			llm.SystemMessage(criticPrompt),
			llm.UserMessage(fmt.Sprintf("Task:\n%s\n\nAnswer to review:\n%s", task, draft.Content)),
		})
		if err != nil {
			return nil, fmt.Errorf("iteration %d: critiquing draft: %w", i, err)
		}

		res.Iterations = append(res.Iterations, Iteration{Draft: draft.Content, Critique: review.Content})
		res.Final = draft.Content

		l.logger.Debug("reflection iteration",
			zap.Int("iteration", i),
			zap.String("draft_preview", logger.Preview(draft.Content, 80)),
			zap.String("critique_preview", logger.Preview(review.Content, 80)),
		)

		if strings.Contains(review.Content, StopPhrase) {
			res.Accepted = true
			return res, nil
		}
		history = append(history,
			llm.AssistantMessage(draft.Content),
			llm.UserMessage(RefineMessage(review.Content)),
		)
	}
	return res, nil
}
