// Package ollama is an llm.Client for a locally hosted Ollama server.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
)

// DefaultBaseURL is where a local Ollama listens by default.
const DefaultBaseURL = "http://localhost:11434"

// Client talks to the Ollama /api/chat endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the Ollama server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Local models can be slow to load and generate
			Timeout: 5 * time.Minute,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat sends a non-streaming chat request.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	streaming := false
	body := *req
	body.Stream = &streaming

	httpResp, err := c.post(ctx, &body)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp llm.ChatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	c.logger.Debug("received response from ollama",
		zap.String("model", resp.Model),
		zap.Int("tool_calls", len(resp.Message.ToolCalls)),
		zap.Int("eval_count", resp.EvalCount),
	)

	return &resp, nil
}

// ChatStream sends a streaming chat request and calls fn for each NDJSON chunk.
// The returned response holds the concatenated content and the final metrics.
func (c *Client) ChatStream(ctx context.Context, req *llm.ChatRequest, fn func(llm.StreamChunk) error) (*llm.ChatResponse, error) {
	streaming := true
	body := *req
	body.Stream = &streaming

	httpResp, err := c.post(ctx, &body)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var (
		content   strings.Builder
		toolCalls []llm.ToolCall
		final     *llm.ChatResponse
	)

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk llm.StreamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.logger.Warn("failed to parse chunk", zap.Error(err), zap.String("line", string(line)))
			continue
		}

		content.WriteString(chunk.Message.Content)
		toolCalls = append(toolCalls, chunk.Message.ToolCalls...)

		if err := fn(chunk); err != nil {
			return nil, err
		}

		if chunk.Done {
			final = chunk.Final(content.String(), toolCalls)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	if final == nil {
		return nil, fmt.Errorf("stream ended before done: %w", llm.ErrEmptyResponse)
	}

	return final, nil
}

func (c *Client) post(ctx context.Context, req *llm.ChatRequest) (*http.Response, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/api/chat"
	c.logger.Debug("sending request to ollama",
		zap.String("url", url),
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		raw, _ := io.ReadAll(httpResp.Body)
		return nil, &llm.APIError{StatusCode: httpResp.StatusCode, Body: errorMessage(raw)}
	}

	return httpResp, nil
}

// errorMessage extracts Ollama's {"error": "..."} text, falling back to the raw body.
func errorMessage(raw []byte) string {
	var e llm.ErrorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(raw))
}
