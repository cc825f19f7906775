package server

import "context"

// ChainResponse is returned by /v1/chain.
type ChainResponse struct {
	Output string `json:"output"`
}

// AgentToolCall summarises one tool call made while answering.
type AgentToolCall struct {
	Name   string `json:"name"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// AgentResponse is returned by /v1/agent.
type AgentResponse struct {
	Answer    string          `json:"answer"`
	ToolCalls []AgentToolCall `json:"tool_calls"`
}

func (s *Server) runChain(ctx context.Context, input string) (any, error) {
	out, err := s.chaining.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	return ChainResponse{Output: out}, nil
}

func (s *Server) runRoute(ctx context.Context, input string) (any, error) {
	return s.routing.Route(ctx, input)
}

func (s *Server) runParallel(ctx context.Context, input string) (any, error) {
	return s.parallel.Run(ctx, input)
}

func (s *Server) runReflect(ctx context.Context, input string) (any, error) {
	return s.reflection.Run(ctx, input)
}

func (s *Server) runAgent(ctx context.Context, input string) (any, error) {
	res, err := s.tooluse.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	out := AgentResponse{Answer: res.Answer, ToolCalls: make([]AgentToolCall, 0, len(res.ToolCalls))}
	for _, exec := range res.ToolCalls {
		call := AgentToolCall{Name: exec.Call.Function.Name, Output: exec.Output}
		if exec.Err != nil {
			call.Error = exec.Err.Error()
		}
		out.ToolCalls = append(out.ToolCalls, call)
	}
	return out, nil
}

func (s *Server) runTeam(ctx context.Context, input string) (any, error) {
	return s.team.Run(ctx, input)
}
