// Package llm provides the message and request types shared by every model
// provider, plus the Client contract the patterns are written against.
//
// The wire types follow the Ollama /api/chat shape; other providers translate
// to and from them.
package llm

import (
	"errors"
	"fmt"
)

// ErrorResponse represents an error body returned over HTTP.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrEmptyResponse is returned when a provider answers without any message content.
var ErrEmptyResponse = errors.New("model returned an empty response")

// APIError is returned when an upstream model server replies with a non-200 status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}
