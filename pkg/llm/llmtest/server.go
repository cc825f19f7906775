package llmtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
)

// NewServer serves an Ollama-compatible /api/chat backed by c. Streaming
// requests get one chunk per word followed by a done chunk. Errors from c
// are returned as 500 responses.
func NewServer(c *Client) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(llm.ErrorResponse{Error: err.Error()})
			return
		}

		if req.Stream != nil && !*req.Stream {
			resp, err := c.Chat(r.Context(), &req)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(llm.ErrorResponse{Error: err.Error()})
				return
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		resp, err := c.ChatStream(r.Context(), &req, func(chunk llm.StreamChunk) error {
			return enc.Encode(chunk)
		})
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = enc.Encode(llm.ErrorResponse{Error: err.Error()})
			return
		}
		_ = enc.Encode(llm.StreamChunk{
			Model:     resp.Model,
			CreatedAt: resp.CreatedAt,
			Message:   llm.Message{Role: llm.RoleAssistant},
			Done:      true,
		})
	})
	return httptest.NewServer(mux)
}
