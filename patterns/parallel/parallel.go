// Package parallel answers a topic by running three independent prompts
// concurrently and synthesising their outputs.
package parallel

import (
	"context"
	"fmt"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/chain"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/prompt"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

const Name = "parallel"

const ExampleTopic = "The history of space exploration"

// Branch keys of the fan-out.
const (
	keySummary   = "summary"
	keyQuestions = "questions"
	keyKeyTerms  = "key_terms"
	keyTopic     = "topic"
)

func topicPrompt(instruction string) *prompt.Template {
	return prompt.FromMessages(prompt.System(instruction), prompt.Human("{topic}"))
}

var (
	summaryPrompt   = topicPrompt("Summarize the following topic concisely:")
	questionsPrompt = topicPrompt("Generate three interesting questions about the following topic:")
	keyTermsPrompt  = topicPrompt("Identify 5-10 key terms from the following topic, separated by commas:")

	synthesisPrompt = prompt.FromMessages(
		prompt.System(`Based on the following information:
Summary: {summary}
Related Questions: {questions}
Key Terms: {key_terms}
Synthesize a comprehensive answer.`),
		prompt.Human("Original topic: {topic}"),
	)
)

// Result holds every branch output and the synthesis.
type Result struct {
	Summary   string `json:"summary"`
	Questions string `json:"questions"`
	KeyTerms  string `json:"key_terms"`
	Answer    string `json:"answer"`
}

type Chain struct {
	fanOut    chain.Runnable[string, map[string]string]
	synthesis chain.Runnable[prompt.Values, string]
}

func New(model *llm.Model) *Chain {
	withTopic := func(tmpl *prompt.Template) chain.Runnable[string, string] {
		var toValues chain.Runnable[string, prompt.Values] = chain.Func[string, prompt.Values](func(_ context.Context, topic string) (prompt.Values, error) {
			return prompt.Values{"topic": topic}, nil
		})
		return chain.Pipe(toValues, chain.Prompt(model, tmpl))
	}

	return &Chain{
		fanOut: chain.Parallel(map[string]chain.Runnable[string, string]{
			keySummary:   withTopic(summaryPrompt),
			keyQuestions: withTopic(questionsPrompt),
			keyKeyTerms:  withTopic(keyTermsPrompt),
			keyTopic:     chain.Passthrough[string](),
		}),
		synthesis: chain.Prompt(model, synthesisPrompt),
	}
}

// Run fans out over topic, waits for all three branches, then synthesises.
// A failing branch cancels the others.
func (c *Chain) Run(ctx context.Context, topic string) (*Result, error) {
	ctx = tape.WithPattern(ctx, Name)

	parts, err := c.fanOut.Invoke(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("parallel chain: %w", err)
	}

	values := make(prompt.Values, len(parts))
	for k, v := range parts {
		values[k] = v
	}
	answer, err := c.synthesis.Invoke(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}

	return &Result{
		Summary:   parts[keySummary],
		Questions: parts[keyQuestions],
		KeyTerms:  parts[keyKeyTerms],
		Answer:    answer,
	}, nil
}
