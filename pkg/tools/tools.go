// Package tools defines the contract for functions a model may call and a
// registry that offers them to a model.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
)

// Definition is a callable tool: a name, a description the model reads to
// decide when to call it, the JSON schema of its input, and the handler.
type Definition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Function    func(ctx context.Context, input json.RawMessage) (string, error)
}

// GenerateSchema derives an inline JSON schema from the struct T.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// Registry holds tool definitions in registration order.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry returns a registry holding defs. It panics on duplicate names,
// which is a programming error.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds d, rejecting empty or duplicate names.
func (r *Registry) Register(d Definition) error {
	if d.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	if d.Function == nil {
		return fmt.Errorf("tool %s has no function", d.Name)
	}
	if _, ok := r.index[d.Name]; ok {
		return fmt.Errorf("tool %s already registered", d.Name)
	}
	r.index[d.Name] = len(r.defs)
	r.defs = append(r.defs, d)
	return nil
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Definition, bool) {
	i, ok := r.index[name]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Definitions returns the registered tools in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// LLMTools converts the registry into the tool declarations sent with a chat
// request.
func (r *Registry) LLMTools() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.InputSchema,
			},
		})
	}
	return out
}
