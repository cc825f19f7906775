// Package prompt builds chat messages from parameterised templates.
//
// Template text uses {name} for a variable; {{ and }} produce literal braces.
// A Placeholder part splices a whole list of messages into the prompt.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
)

// Values maps template variable names to their values.
type Values map[string]any

// MissingVariableError is returned by Format when a variable has no value.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing value for prompt variable %q", e.Name)
}

// SyntaxError reports malformed template text.
type SyntaxError struct {
	Text   string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("prompt template: %s at offset %d", e.Msg, e.Offset)
}

// Part is one message of a template: a role with template text, or a
// placeholder for a list of messages.
type Part struct {
	role        string
	text        string
	placeholder string
}

// System returns a system message part.
func System(text string) Part { return Part{role: llm.RoleSystem, text: text} }

// Human returns a user message part.
func Human(text string) Part { return Part{role: llm.RoleUser, text: text} }

// AI returns an assistant message part.
func AI(text string) Part { return Part{role: llm.RoleAssistant, text: text} }

// Placeholder returns a part replaced by the []llm.Message stored under name.
func Placeholder(name string) Part { return Part{placeholder: name} }

type segment struct {
	literal  string
	variable string
}

type compiled struct {
	role        string
	placeholder string
	segments    []segment
}

// Template is a parsed chat prompt. It is immutable and safe for concurrent use.
type Template struct {
	parts []compiled
	vars  []string
}

// ParseMessages parses every part of a chat prompt.
func ParseMessages(parts ...Part) (*Template, error) {
	t := &Template{}
	seen := map[string]bool{}
	addVar := func(name string) {
		if !seen[name] {
			seen[name] = true
			t.vars = append(t.vars, name)
		}
	}

	for _, p := range parts {
		if p.placeholder != "" {
			t.parts = append(t.parts, compiled{placeholder: p.placeholder})
			addVar(p.placeholder)
			continue
		}
		segs, err := parse(p.text)
		if err != nil {
			return nil, err
		}
		for _, s := range segs {
			if s.variable != "" {
				addVar(s.variable)
			}
		}
		t.parts = append(t.parts, compiled{role: p.role, segments: segs})
	}
	return t, nil
}

// FromMessages is like ParseMessages but panics on malformed text.
// It is meant for templates declared as package-level variables.
func FromMessages(parts ...Part) *Template {
	t, err := ParseMessages(parts...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromTemplate returns a template with a single human message.
func FromTemplate(text string) *Template {
	return FromMessages(Human(text))
}

// Variables lists the variable names the template needs, in first-use order.
func (t *Template) Variables() []string {
	return append([]string(nil), t.vars...)
}

// Format substitutes values and returns the resulting messages.
func (t *Template) Format(values Values) ([]llm.Message, error) {
	out := make([]llm.Message, 0, len(t.parts))
	for _, p := range t.parts {
		if p.placeholder != "" {
			v, ok := values[p.placeholder]
			if !ok {
				return nil, &MissingVariableError{Name: p.placeholder}
			}
			switch msgs := v.(type) {
			case []llm.Message:
				out = append(out, msgs...)
			case llm.Message:
				out = append(out, msgs)
			default:
				return nil, fmt.Errorf("placeholder %q: expected []llm.Message, got %T", p.placeholder, v)
			}
			continue
		}

		var b strings.Builder
		for _, s := range p.segments {
			if s.variable == "" {
				b.WriteString(s.literal)
				continue
			}
			v, ok := values[s.variable]
			if !ok {
				return nil, &MissingVariableError{Name: s.variable}
			}
			b.WriteString(stringify(v))
		}
		out = append(out, llm.Message{Role: p.role, Content: b.String()})
	}
	return out, nil
}

// Invoke formats the template, making it usable as the first stage of a chain.
func (t *Template) Invoke(_ context.Context, values Values) ([]llm.Message, error) {
	return t.Format(values)
}

// Transcript renders messages as "role: content" lines.
func Transcript(msgs []llm.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []llm.Message:
		return Transcript(x)
	case llm.Message:
		return x.Content
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

func parse(text string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, &SyntaxError{Text: text, Offset: i, Msg: "unterminated variable"}
			}
			name := text[i+1 : i+1+end]
			if !validName(name) {
				return nil, &SyntaxError{Text: text, Offset: i, Msg: fmt.Sprintf("invalid variable name %q", name)}
			}
			flush()
			segs = append(segs, segment{variable: name})
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &SyntaxError{Text: text, Offset: i, Msg: "single '}' must be escaped as '}}'"}
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
