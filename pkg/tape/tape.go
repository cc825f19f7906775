// Package tape records model calls into a merkle DAG. A Recorder wraps any
// llm.Client: each request's messages become a chain of nodes and the reply
// becomes the head, so repeated prefixes deduplicate and divergent replies
// branch.
package tape

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/logger"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
)

type patternKey struct{}

// WithPattern tags model calls made with ctx with the workflow name.
func WithPattern(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, patternKey{}, name)
}

// PatternFromContext returns the tag set by WithPattern.
func PatternFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(patternKey{}).(string)
	return name, ok
}

// Recorder is an llm.Client that stores every exchange it forwards.
type Recorder struct {
	next   llm.Client
	storer merkle.Storer
	logger *zap.Logger
}

// NewRecorder wraps next.
func NewRecorder(next llm.Client, storer merkle.Storer, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{next: next, storer: storer, logger: log}
}

// Chat forwards the request and records the turn. Storage failures are
// logged and never fail the call.
func (r *Recorder) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := r.next.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	r.record(ctx, req, resp)
	return resp, nil
}

// ChatStream streams when the wrapped client can, recording the
// accumulated reply once the stream completes.
func (r *Recorder) ChatStream(ctx context.Context, req *llm.ChatRequest, fn func(llm.StreamChunk) error) (*llm.ChatResponse, error) {
	s, ok := r.next.(llm.Streamer)
	if !ok {
		resp, err := r.next.Chat(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := fn(llm.StreamChunk{Model: resp.Model, CreatedAt: resp.CreatedAt, Message: resp.Message, Done: true}); err != nil {
			return nil, err
		}
		r.record(ctx, req, resp)
		return resp, nil
	}

	resp, err := s.ChatStream(ctx, req, fn)
	if err != nil {
		return nil, err
	}
	r.record(ctx, req, resp)
	return resp, nil
}

func (r *Recorder) record(ctx context.Context, req *llm.ChatRequest, resp *llm.ChatResponse) {
	head, err := Store(ctx, r.storer, req, resp)
	if err != nil {
		r.logger.Error("failed to store conversation turn", zap.Error(err))
		return
	}
	r.logger.Debug("stored conversation turn",
		zap.String("head", logger.Preview(head, 16)),
		zap.Int("messages", len(req.Messages)+1),
	)
}

// Store writes one request/response pair to s and returns the hash of the
// response node.
func Store(ctx context.Context, s merkle.Storer, req *llm.ChatRequest, resp *llm.ChatResponse) (string, error) {
	pattern, _ := PatternFromContext(ctx)

	var parent *merkle.Node
	for _, m := range req.Messages {
		b := bucket(m, req.Model, pattern)
		node := merkle.NewNode(b, parent)
		if _, err := s.Put(ctx, node); err != nil {
			return "", fmt.Errorf("storing message node: %w", err)
		}
		parent = node
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	b := bucket(resp.Message, model, pattern)
	if b.Role == "" {
		b.Role = llm.RoleAssistant
	}
	b.Metrics = &merkle.Metrics{
		TotalDurationNs:      resp.TotalDuration,
		PromptEvalCount:      resp.PromptEvalCount,
		PromptEvalDurationNs: resp.PromptEvalDuration,
		EvalCount:            resp.EvalCount,
		EvalDurationNs:       resp.EvalDuration,
	}

	node := merkle.NewNode(b, parent)
	if _, err := s.Put(ctx, node); err != nil {
		return "", fmt.Errorf("storing response node: %w", err)
	}
	return node.Hash, nil
}

func bucket(m llm.Message, model, pattern string) merkle.Bucket {
	b := merkle.Bucket{
		Type:     "message",
		Role:     m.Role,
		Content:  m.Content,
		Model:    model,
		Pattern:  pattern,
		ToolName: m.ToolName,
	}
	for _, tc := range m.ToolCalls {
		b.ToolCalls = append(b.ToolCalls, tc.Function.Name)
	}
	return b
}
