// Package graph runs a small state machine: named nodes transform a shared
// state value and edges, fixed or conditional, choose the next node until
// the walk reaches END.
package graph

import (
	"context"
	"errors"
	"fmt"
)

// END is the reserved name of the terminal node.
const END = "__end__"

// DefaultRecursionLimit bounds the number of node executions per Invoke.
const DefaultRecursionLimit = 25

// ErrRecursionLimit is returned when a walk runs more steps than allowed.
var ErrRecursionLimit = errors.New("graph recursion limit reached")

// UnknownNodeError reports a router that chose a node the graph does not have.
type UnknownNodeError struct {
	From string
	Name string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("router on %s chose unknown node %q", e.From, e.Name)
}

// NodeFunc transforms the state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouterFunc picks the next node from the current state.
type RouterFunc[S any] func(ctx context.Context, state S) (string, error)

// Step is the state observed after a node ran.
type Step[S any] struct {
	Node  string
	State S
}

type edge[S any] struct {
	to     string
	router RouterFunc[S]
}

// StateGraph is the builder. Errors made while building are collected and
// reported by Compile.
type StateGraph[S any] struct {
	nodes map[string]NodeFunc[S]
	order []string
	edges map[string]edge[S]
	entry string
	errs  []error
}

// New returns an empty builder.
func New[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes: make(map[string]NodeFunc[S]),
		edges: make(map[string]edge[S]),
	}
}

func (g *StateGraph[S]) AddNode(name string, fn NodeFunc[S]) *StateGraph[S] {
	switch {
	case name == "" || name == END:
		g.errs = append(g.errs, fmt.Errorf("invalid node name %q", name))
	case fn == nil:
		g.errs = append(g.errs, fmt.Errorf("node %s has no function", name))
	default:
		if _, ok := g.nodes[name]; ok {
			g.errs = append(g.errs, fmt.Errorf("duplicate node %s", name))
			return g
		}
		g.nodes[name] = fn
		g.order = append(g.order, name)
	}
	return g
}

func (g *StateGraph[S]) AddEdge(from, to string) *StateGraph[S] {
	return g.addEdge(from, edge[S]{to: to})
}

func (g *StateGraph[S]) AddConditionalEdges(from string, router RouterFunc[S]) *StateGraph[S] {
	if router == nil {
		g.errs = append(g.errs, fmt.Errorf("node %s has a nil router", from))
		return g
	}
	return g.addEdge(from, edge[S]{router: router})
}

func (g *StateGraph[S]) addEdge(from string, e edge[S]) *StateGraph[S] {
	if _, ok := g.edges[from]; ok {
		g.errs = append(g.errs, fmt.Errorf("node %s already has an outgoing edge", from))
		return g
	}
	g.edges[from] = e
	return g
}

func (g *StateGraph[S]) SetEntryPoint(name string) *StateGraph[S] {
	g.entry = name
	return g
}

// Option configures a compiled graph.
type Option func(*config)

type config struct {
	recursionLimit int
}

// WithRecursionLimit overrides DefaultRecursionLimit.
func WithRecursionLimit(n int) Option {
	return func(c *config) { c.recursionLimit = n }
}

// Compile validates the builder and returns a runnable graph.
func (g *StateGraph[S]) Compile(opts ...Option) (*Graph[S], error) {
	errs := append([]error(nil), g.errs...)

	if g.entry == "" {
		errs = append(errs, errors.New("entry point not set"))
	} else if _, ok := g.nodes[g.entry]; !ok {
		errs = append(errs, fmt.Errorf("entry point %s is not a node", g.entry))
	}
	for from, e := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("edge from unknown node %s", from))
		}
		if e.router != nil || e.to == END {
			continue
		}
		if _, ok := g.nodes[e.to]; !ok {
			errs = append(errs, fmt.Errorf("edge %s -> unknown node %s", from, e.to))
		}
	}
	for _, name := range g.order {
		if _, ok := g.edges[name]; !ok {
			errs = append(errs, fmt.Errorf("node %s has no outgoing edge", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("compile graph: %w", err)
	}

	cfg := config{recursionLimit: DefaultRecursionLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	nodes := make(map[string]NodeFunc[S], len(g.nodes))
	for k, v := range g.nodes {
		nodes[k] = v
	}
	edges := make(map[string]edge[S], len(g.edges))
	for k, v := range g.edges {
		edges[k] = v
	}
	return &Graph[S]{nodes: nodes, edges: edges, entry: g.entry, limit: cfg.recursionLimit}, nil
}

// Graph is a compiled, immutable StateGraph. It is safe for concurrent use
// as long as the node functions are.
type Graph[S any] struct {
	nodes map[string]NodeFunc[S]
	edges map[string]edge[S]
	entry string
	limit int
}

// Invoke walks the graph from the entry point and returns the final state.
func (g *Graph[S]) Invoke(ctx context.Context, state S) (S, error) {
	return g.Stream(ctx, state, nil)
}

// Stream is Invoke that calls fn with the state after every node. An error
// from fn stops the walk.
func (g *Graph[S]) Stream(ctx context.Context, state S, fn func(Step[S]) error) (S, error) {
	current := g.entry
	for steps := 0; current != END; steps++ {
		if steps >= g.limit {
			return state, fmt.Errorf("%w after %d steps at %s", ErrRecursionLimit, steps, current)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		next, err := g.nodes[current](ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %s: %w", current, err)
		}
		state = next

		if fn != nil {
			if err := fn(Step[S]{Node: current, State: state}); err != nil {
				return state, err
			}
		}

		current, err = g.next(ctx, current, state)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

func (g *Graph[S]) next(ctx context.Context, from string, state S) (string, error) {
	e := g.edges[from]
	if e.router == nil {
		return e.to, nil
	}
	to, err := e.router(ctx, state)
	if err != nil {
		return "", fmt.Errorf("router on %s: %w", from, err)
	}
	if to == END {
		return END, nil
	}
	if _, ok := g.nodes[to]; !ok {
		return "", &UnknownNodeError{From: from, Name: to}
	}
	return to, nil
}
