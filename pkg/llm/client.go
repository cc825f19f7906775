package llm

import (
	"context"
	"fmt"
)

// Client sends a complete, non-streaming chat request to a model provider.
type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// Streamer is implemented by clients that can deliver a reply incrementally.
// fn is called for every chunk; returning an error from fn aborts the stream.
// The returned response carries the accumulated message.
type Streamer interface {
	ChatStream(ctx context.Context, req *ChatRequest, fn func(StreamChunk) error) (*ChatResponse, error)
}

// Model binds a client to a model name and default inference options.
// It is the unit the patterns invoke: a list of messages in, one reply out.
type Model struct {
	Client  Client
	Name    string
	Options *Options
	Tools   []Tool

	// OnToken, when set and Client implements Streamer, receives reply
	// content as it is generated.
	OnToken func(string)
}

// NewModel returns a Model with temperature 0, matching the examples'
// preference for repeatable output.
func NewModel(client Client, name string) *Model {
	return &Model{
		Client:  client,
		Name:    name,
		Options: &Options{Temperature: Float(0)},
	}
}

// WithTools returns a copy of m that offers tools to the model.
func (m *Model) WithTools(tools []Tool) *Model {
	cp := *m
	cp.Tools = tools
	return &cp
}

// Generate sends messages and returns the full provider response.
func (m *Model) Generate(ctx context.Context, messages []Message) (*ChatResponse, error) {
	stream := false
	req := &ChatRequest{
		Model:    m.Name,
		Messages: messages,
		Tools:    m.Tools,
		Stream:   &stream,
		Options:  m.Options,
	}

	var (
		resp *ChatResponse
		err  error
	)
	if s, ok := m.Client.(Streamer); ok && m.OnToken != nil {
		stream = true
		resp, err = s.ChatStream(ctx, req, func(c StreamChunk) error {
			if c.Message.Content != "" {
				m.OnToken(c.Message.Content)
			}
			return nil
		})
	} else {
		resp, err = m.Client.Chat(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("chat %s: %w", m.Name, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("chat %s: %w", m.Name, ErrEmptyResponse)
	}
	return resp, nil
}

// Invoke sends messages and returns only the assistant reply.
func (m *Model) Invoke(ctx context.Context, messages []Message) (Message, error) {
	resp, err := m.Generate(ctx, messages)
	if err != nil {
		return Message{}, err
	}
	msg := resp.Message
	if msg.Role == "" {
		msg.Role = RoleAssistant
	}
	return msg, nil
}
