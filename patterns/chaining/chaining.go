// Package chaining extracts technical specifications from free text and
// transforms them into JSON in two sequential model calls.
package chaining

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/chain"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/prompt"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

// Name tags recorded model calls.
const Name = "chaining"

// ExampleInput is the text used when none is given.
const ExampleInput = "The new laptop model features a 3.5 GHz octa-core processor, 16GB of RAM, and a 1TB NVMe SSD."

var (
	extractPrompt = prompt.FromTemplate(
		"Extract the technical specifications from the following text. " +
			"Only list the specs, no conversational filler:\n\n{text_input}",
	)
	transformPrompt = prompt.FromTemplate(
		"Transform the following specifications into a valid JSON object " +
			"with 'cpu', 'memory', and 'storage' as keys. " +
			"Return ONLY the JSON block:\n\n{specifications}",
	)
)

// Chain runs extraction then transformation.
type Chain struct {
	runnable chain.Runnable[prompt.Values, string]
}

func New(model *llm.Model) *Chain {
	extract := chain.Prompt(model, extractPrompt)
	var toValues chain.Runnable[string, prompt.Values] = chain.Func[string, prompt.Values](func(_ context.Context, specs string) (prompt.Values, error) {
		return prompt.Values{"specifications": specs}, nil
	})
	return &Chain{
		runnable: chain.Pipe3(extract, toValues, chain.Prompt(model, transformPrompt)),
	}
}

// Run returns the model's final text, which should be a JSON block.
func (c *Chain) Run(ctx context.Context, text string) (string, error) {
	ctx = tape.WithPattern(ctx, Name)
	out, err := c.runnable.Invoke(ctx, prompt.Values{"text_input": text})
	if err != nil {
		return "", fmt.Errorf("prompt chain: %w", err)
	}
	return out, nil
}

// Specs is the JSON shape the transform step asks for. Values stay raw
// because models return strings, numbers or nested objects.
type Specs struct {
	CPU     json.RawMessage `json:"cpu"`
	Memory  json.RawMessage `json:"memory"`
	Storage json.RawMessage `json:"storage"`
}

// ParseSpecs decodes the final output, tolerating a Markdown code fence or
// text around the object.
func ParseSpecs(raw string) (*Specs, error) {
	body := stripFence(raw)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var s Specs
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return nil, fmt.Errorf("decoding specs: %w", err)
	}
	var missing []string
	for _, f := range []struct {
		name string
		v    json.RawMessage
	}{{"cpu", s.CPU}, {"memory", s.Memory}, {"storage", s.Storage}} {
		if len(f.v) == 0 {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &s, fmt.Errorf("specs missing keys: %s", strings.Join(missing, ", "))
	}
	return &s, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // language tag line
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
