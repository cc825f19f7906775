// Package chain composes prompt templates, models and plain functions into
// pipelines: sequential pipes, concurrent fan-out, and conditional branches.
package chain

import (
	"context"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/prompt"
)

// Runnable is a single step that turns an input into an output.
type Runnable[I, O any] interface {
	Invoke(ctx context.Context, in I) (O, error)
}

// Func adapts a function to Runnable.
type Func[I, O any] func(ctx context.Context, in I) (O, error)

func (f Func[I, O]) Invoke(ctx context.Context, in I) (O, error) {
	return f(ctx, in)
}

// Pipe runs first and feeds its output to second.
func Pipe[A, B, C any](first Runnable[A, B], second Runnable[B, C]) Runnable[A, C] {
	return Func[A, C](func(ctx context.Context, in A) (C, error) {
		mid, err := first.Invoke(ctx, in)
		if err != nil {
			var zero C
			return zero, err
		}
		return second.Invoke(ctx, mid)
	})
}

// Pipe3 is Pipe over three steps.
func Pipe3[A, B, C, D any](a Runnable[A, B], b Runnable[B, C], c Runnable[C, D]) Runnable[A, D] {
	return Pipe(Pipe(a, b), c)
}

// Pipe4 is Pipe over four steps.
func Pipe4[A, B, C, D, E any](a Runnable[A, B], b Runnable[B, C], c Runnable[C, D], d Runnable[D, E]) Runnable[A, E] {
	return Pipe(Pipe3(a, b, c), d)
}

// Passthrough returns its input unchanged.
func Passthrough[T any]() Runnable[T, T] {
	return Func[T, T](func(_ context.Context, in T) (T, error) {
		return in, nil
	})
}

// Text extracts the content of a model reply.
func Text() Runnable[llm.Message, string] {
	return Func[llm.Message, string](func(_ context.Context, m llm.Message) (string, error) {
		return m.Content, nil
	})
}

// Prompt is the common template | model | text pipeline.
func Prompt(model *llm.Model, tmpl *prompt.Template) Runnable[prompt.Values, string] {
	return Pipe3[prompt.Values, []llm.Message, llm.Message, string](tmpl, model, Text())
}
