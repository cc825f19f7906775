// Package llmtest provides a scripted llm.Client for deterministic tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
)

// ErrNoReplies is returned once a scripted client has used up its replies.
var ErrNoReplies = errors.New("llmtest: no scripted replies left")

// Client answers chat requests from a script or a responder func and records
// every request it receives. It is safe for concurrent use.
type Client struct {
	mu       sync.Mutex
	queue    []llm.Message
	respond  func(req *llm.ChatRequest) (llm.Message, error)
	requests []llm.ChatRequest
}

// Replies returns a client that answers with each text in order.
func Replies(texts ...string) *Client {
	msgs := make([]llm.Message, len(texts))
	for i, t := range texts {
		msgs[i] = llm.AssistantMessage(t)
	}
	return Messages(msgs...)
}

// Messages returns a client that answers with each message in order.
func Messages(msgs ...llm.Message) *Client {
	return &Client{queue: msgs}
}

// Func returns a client that computes every reply with fn.
func Func(fn func(req *llm.ChatRequest) (llm.Message, error)) *Client {
	return &Client{respond: fn}
}

func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	cp := *req
	cp.Messages = append([]llm.Message(nil), req.Messages...)
	c.requests = append(c.requests, cp)

	var (
		msg llm.Message
		err error
	)
	switch {
	case c.respond != nil:
		respond := c.respond
		c.mu.Unlock()
		msg, err = respond(&cp)
	case len(c.queue) == 0:
		c.mu.Unlock()
		err = ErrNoReplies
	default:
		msg = c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
	}
	if err != nil {
		return nil, err
	}

	if msg.Role == "" {
		msg.Role = llm.RoleAssistant
	}
	return &llm.ChatResponse{
		Model:     req.Model,
		CreatedAt: time.Now(),
		Message:   msg,
		Done:      true,
	}, nil
}

// ChatStream delivers the scripted reply one word at a time.
func (c *Client) ChatStream(ctx context.Context, req *llm.ChatRequest, fn func(llm.StreamChunk) error) (*llm.ChatResponse, error) {
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, word := range strings.SplitAfter(resp.Message.Content, " ") {
		if word == "" {
			continue
		}
		chunk := llm.StreamChunk{Model: resp.Model, Message: llm.AssistantMessage(word)}
		if err := fn(chunk); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Requests returns a copy of every request received so far.
func (c *Client) Requests() []llm.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.ChatRequest(nil), c.requests...)
}

// Calls reports how many requests the client has received.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// SystemPrompt returns the content of the first system message in req.
func SystemPrompt(req *llm.ChatRequest) string {
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			return m.Content
		}
	}
	return ""
}

// LastContent returns the content of the last message in req.
func LastContent(req *llm.ChatRequest) string {
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}
