package llm

// ChatRequest represents a chat completion request (Ollama-compatible).
type ChatRequest struct {
	Model    string    `json:"model"`            // Model name (e.g., "llama3.2", "mistral")
	Messages []Message `json:"messages"`         // Conversation history
	Tools    []Tool    `json:"tools,omitempty"`  // Functions the model may call
	Stream   *bool     `json:"stream,omitempty"` // Whether to stream responses (default: true in Ollama)
	Format   string    `json:"format,omitempty"` // Response format ("json" for JSON mode)

	Options *Options `json:"options,omitempty"`

	KeepAlive string `json:"keep_alive,omitempty"` // How long to keep model in memory
}
