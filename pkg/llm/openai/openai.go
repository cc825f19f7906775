// Package openai adapts any OpenAI-compatible chat completions API
// (OpenAI itself, or Ollama's /v1 endpoint) to llm.Client.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
)

// Client translates llm.ChatRequest to chat completions calls.
type Client struct {
	client openai.Client
}

// New creates a client. baseURL may be empty for api.openai.com.
func New(apiKey, baseURL string, opts ...option.RequestOption) *Client {
	all := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		all = append(all, option.WithBaseURL(baseURL))
	}
	all = append(all, opts...)
	return &Client{client: openai.NewClient(all...)}
}

func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: buildMessages(req.Messages),
	}
	tools, err := buildTools(req.Tools)
	if err != nil {
		return nil, err
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	if o := req.Options; o != nil {
		if o.Temperature != nil {
			params.Temperature = openai.Float(*o.Temperature)
		}
		if o.TopP != nil {
			params.TopP = openai.Float(*o.TopP)
		}
		if o.Seed != nil {
			params.Seed = openai.Int(int64(*o.Seed))
		}
		if o.NumPredict != nil {
			params.MaxTokens = openai.Int(int64(*o.NumPredict))
		}
		if len(o.Stop) > 0 {
			params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: o.Stop}
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	msg := llm.Message{
		Role:    llm.RoleAssistant,
		Content: choice.Message.Content,
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
			ID: tc.ID,
			Function: llm.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: arguments(tc.Function.Arguments),
			},
		})
	}

	return &llm.ChatResponse{
		Model:           resp.Model,
		CreatedAt:       time.Unix(resp.Created, 0),
		Message:         msg,
		Done:            true,
		DoneReason:      string(choice.FinishReason),
		PromptEvalCount: int(resp.Usage.PromptTokens),
		EvalCount:       int(resp.Usage.CompletionTokens),
	}, nil
}

func buildMessages(msgs []llm.Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case llm.RoleTool:
			params = append(params, openai.ToolMessage(m.Content, m.ToolCallID))
		case llm.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				params = append(params, openai.AssistantMessage(m.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				args := string(tc.Function.Arguments)
				if args == "" {
					args = "{}"
				}
				calls = append(calls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: args,
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				Content:   openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)},
				ToolCalls: calls,
			}
			params = append(params, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}
	return params
}

func buildTools(tools []llm.Tool) ([]openai.ChatCompletionToolParam, error) {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		fn := shared.FunctionDefinitionParam{
			Name:        t.Function.Name,
			Description: openai.String(t.Function.Description),
		}
		if t.Function.Parameters != nil {
			raw, err := json.Marshal(t.Function.Parameters)
			if err != nil {
				return nil, fmt.Errorf("marshal schema for %s: %w", t.Function.Name, err)
			}
			var p shared.FunctionParameters
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode schema for %s: %w", t.Function.Name, err)
			}
			fn.Parameters = p
		}
		out = append(out, openai.ChatCompletionToolParam{Type: "function", Function: fn})
	}
	return out, nil
}

// arguments converts the JSON string the API returns into raw JSON.
// Malformed argument text is kept as a JSON string so it still reaches the tool.
func arguments(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("{}")
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}
