package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
)

// IsExit reports whether input ends the chat loop.
func IsExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	}
	return false
}

// Reply is the outcome of one Send.
type Reply struct {
	Text       string `json:"text"`
	Summary    string `json:"summary"`
	Summarized bool   `json:"summarized"`
}

// Session holds one conversation. It is safe for concurrent use; turns are
// serialised.
type Session struct {
	mu     sync.Mutex
	memory *Memory
	state  State
}

func NewSession(m *Memory) *Session {
	return &Session{memory: m}
}

// Send appends text as a user message and runs one turn. On error the
// session is left as it was before the call.
func (s *Session) Send(ctx context.Context, text string) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in := s.state
	in.Messages = append(append([]llm.Message(nil), s.state.Messages...), llm.UserMessage(text))

	out, err := s.memory.Step(ctx, in)
	if err != nil {
		return nil, err
	}
	s.state = out

	r := &Reply{Summary: out.Summary, Summarized: out.summarized}
	if n := len(out.Messages); n > 0 && out.Messages[n-1].Role == llm.RoleAssistant {
		r.Text = out.Messages[n-1].Content
	}
	return r, nil
}

// State returns a copy of the conversation record.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.state
	cp.Messages = append([]llm.Message(nil), s.state.Messages...)
	return cp
}

// Save writes the conversation record to path as JSON.
func (s *Session) Save(path string) error {
	data, err := json.MarshalIndent(s.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating session directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// LoadSession restores a session saved at path, or starts an empty one if
// the file does not exist.
func LoadSession(path string, m *Memory) (*Session, error) {
	s := NewSession(m)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", path, err)
	}
	return s, nil
}
