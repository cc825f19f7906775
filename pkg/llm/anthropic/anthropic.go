// Package anthropic adapts the Anthropic Messages API to llm.Client.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
)

// DefaultMaxTokens bounds replies when the request does not set NumPredict.
const DefaultMaxTokens = 1024

// Client translates llm.ChatRequest to Messages API calls.
type Client struct {
	client anthropic.Client
}

// New creates a client. An empty apiKey falls back to ANTHROPIC_API_KEY.
func New(apiKey string, opts ...option.RequestOption) *Client {
	var all []option.RequestOption
	if apiKey != "" {
		all = append(all, option.WithAPIKey(apiKey))
	}
	all = append(all, opts...)
	return &Client{client: anthropic.NewClient(all...)}
}

func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	system, msgs := buildMessages(req.Messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(DefaultMaxTokens),
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	if o := req.Options; o != nil {
		if o.NumPredict != nil {
			params.MaxTokens = int64(*o.NumPredict)
		}
		if o.Temperature != nil {
			params.Temperature = anthropic.Float(*o.Temperature)
		}
		if o.TopP != nil {
			params.TopP = anthropic.Float(*o.TopP)
		}
		if o.TopK != nil {
			params.TopK = anthropic.Int(int64(*o.TopK))
		}
		if len(o.Stop) > 0 {
			params.StopSequences = o.Stop
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, llm.ErrEmptyResponse
	}

	msg := llm.Message{Role: llm.RoleAssistant}
	var text []string
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text = append(text, v.Text)
		case anthropic.ToolUseBlock:
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:       v.ID,
				Function: llm.ToolCallFunction{Name: v.Name, Arguments: json.RawMessage(v.JSON.Input.Raw())},
			})
		}
	}
	msg.Content = strings.Join(text, "\n")

	return &llm.ChatResponse{
		Model:           string(resp.Model),
		CreatedAt:       time.Now(),
		Message:         msg,
		Done:            true,
		DoneReason:      string(resp.StopReason),
		PromptEvalCount: int(resp.Usage.InputTokens),
		EvalCount:       int(resp.Usage.OutputTokens),
	}, nil
}

// buildMessages folds system messages into one system prompt and groups
// consecutive tool results into a single user turn, as the API requires.
func buildMessages(msgs []llm.Message) (string, []anthropic.MessageParam) {
	var (
		system  []string
		params  []anthropic.MessageParam
		results []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(results) > 0 {
			params = append(params, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
		case llm.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input any = map[string]any{}
				if len(tc.Function.Arguments) > 0 {
					_ = json.Unmarshal(tc.Function.Arguments, &input)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
			}
			// The API rejects assistant turns without content blocks.
			if len(blocks) == 0 {
				continue
			}
			params = append(params, anthropic.NewAssistantMessage(blocks...))
		default:
			flush()
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	flush()

	return strings.Join(system, "\n\n"), params
}

func buildTools(tools []llm.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if t.Function.Parameters != nil {
			schema.Properties = t.Function.Parameters.Properties
			schema.Required = t.Function.Parameters.Required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Function.Name,
			Description: anthropic.String(t.Function.Description),
			InputSchema: schema,
		}})
	}
	return out
}
