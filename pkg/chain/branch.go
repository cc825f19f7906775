package chain

import "context"

// Case pairs a condition with the runnable taken when it holds.
type Case[I, O any] struct {
	Cond func(I) bool
	Then Runnable[I, O]
}

// When builds a Case.
func When[I, O any](cond func(I) bool, then Runnable[I, O]) Case[I, O] {
	return Case[I, O]{Cond: cond, Then: then}
}

// Branch runs the first case whose condition holds, or fallback when none does.
func Branch[I, O any](fallback Runnable[I, O], cases ...Case[I, O]) Runnable[I, O] {
	return Func[I, O](func(ctx context.Context, in I) (O, error) {
		for _, c := range cases {
			if c.Cond(in) {
				return c.Then.Invoke(ctx, in)
			}
		}
		return fallback.Invoke(ctx, in)
	})
}
