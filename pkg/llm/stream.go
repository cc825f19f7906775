package llm

import "time"

// StreamChunk represents a single chunk in a streaming response.
type StreamChunk struct {
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	Message    Message   `json:"message"`
	Done       bool      `json:"done"`
	DoneReason string    `json:"done_reason,omitempty"`

	// Final chunk includes metrics
	TotalDuration      int64 `json:"total_duration,omitempty"`
	LoadDuration       int64 `json:"load_duration,omitempty"`
	PromptEvalCount    int   `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration int64 `json:"prompt_eval_duration,omitempty"`
	EvalCount          int   `json:"eval_count,omitempty"`
	EvalDuration       int64 `json:"eval_duration,omitempty"`
}

// Final converts the last chunk of a stream into a ChatResponse carrying
// the accumulated content.
func (c StreamChunk) Final(content string, toolCalls []ToolCall) *ChatResponse {
	return &ChatResponse{
		Model:     c.Model,
		CreatedAt: c.CreatedAt,
		Message: Message{
			Role:      RoleAssistant,
			Content:   content,
			ToolCalls: toolCalls,
		},
		Done:               true,
		DoneReason:         c.DoneReason,
		TotalDuration:      c.TotalDuration,
		LoadDuration:       c.LoadDuration,
		PromptEvalCount:    c.PromptEvalCount,
		PromptEvalDuration: c.PromptEvalDuration,
		EvalCount:          c.EvalCount,
		EvalDuration:       c.EvalDuration,
	}
}
