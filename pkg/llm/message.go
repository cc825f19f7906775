package llm

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	Role      string     `json:"role"`                 // "system", "user", "assistant", "tool"
	Content   string     `json:"content"`              // The message content
	Images    []string   `json:"images,omitempty"`     // Optional base64-encoded images (for multimodal)
	ToolCalls []ToolCall `json:"tool_calls,omitempty"` // Tool invocations requested by the assistant

	// Set on role "tool" messages. Ollama reads ToolName; OpenAI and
	// Anthropic correlate results through ToolCallID.
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage builds the result message answering call.
func ToolMessage(call ToolCall, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolName:   call.Function.Name,
		ToolCallID: call.ID,
	}
}
