package chain

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Parallel runs every branch concurrently on the same input and collects
// the outputs by key. The first failing branch cancels the others; its error
// is returned wrapped with the branch key.
func Parallel[I, O any](branches map[string]Runnable[I, O]) Runnable[I, map[string]O] {
	keys := make([]string, 0, len(branches))
	for k := range branches {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Func[I, map[string]O](func(ctx context.Context, in I) (map[string]O, error) {
		var mu sync.Mutex
		out := make(map[string]O, len(keys))

		g, gctx := errgroup.WithContext(ctx)
		for _, key := range keys {
			r := branches[key]
			g.Go(func() error {
				v, err := r.Invoke(gctx, in)
				if err != nil {
					return fmt.Errorf("branch %s: %w", key, err)
				}
				mu.Lock()
				out[key] = v
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Result is the outcome of one Batch invocation.
type Result[O any] struct {
	Value O
	Err   error
}

// Batch invokes r once per input, at most limit at a time (limit <= 0 means
// no limit), and waits for all of them. Failures are reported per input and
// never cancel sibling invocations. Results are in input order.
func Batch[I, O any](ctx context.Context, r Runnable[I, O], inputs []I, limit int) []Result[O] {
	results := make([]Result[O], len(inputs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, in := range inputs {
		g.Go(func() error {
			v, err := r.Invoke(ctx, in)
			results[i] = Result[O]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
