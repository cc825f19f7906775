// Package render prints pattern output. On a terminal replies are rendered
// as Markdown and headings are styled; otherwise output is plain text.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	noteStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// Printer writes headings, labelled replies and notes to w.
type Printer struct {
	w        io.Writer
	styled   bool
	markdown *glamour.TermRenderer
}

// New returns a Printer that styles output only when w is a terminal.
func New(w io.Writer) *Printer {
	f, ok := w.(*os.File)
	return newPrinter(w, ok && term.IsTerminal(int(f.Fd())))
}

// Plain returns a Printer that never styles output.
func Plain(w io.Writer) *Printer {
	return newPrinter(w, false)
}

func newPrinter(w io.Writer, styled bool) *Printer {
	p := &Printer{w: w, styled: styled}
	if styled {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			p.markdown = r
		}
	}
	return p
}

// Heading prints a section title such as "--- Final JSON Output ---".
func (p *Printer) Heading(title string) {
	line := "--- " + title + " ---"
	if p.styled {
		line = headingStyle.Render(line)
	}
	fmt.Fprintf(p.w, "\n%s\n", line)
}

// Reply prints text under an optional label, rendering Markdown when styled.
func (p *Printer) Reply(label, text string) {
	if label != "" {
		if p.styled {
			label = labelStyle.Render(label)
		}
		fmt.Fprintf(p.w, "%s: ", label)
	}
	fmt.Fprintln(p.w, p.body(text))
}

// Note prints a secondary line such as the rolling memory summary.
func (p *Printer) Note(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if p.styled {
		line = noteStyle.Render(line)
	}
	fmt.Fprintln(p.w, line)
}

// Error prints a failure without aborting the caller.
func (p *Printer) Error(stage string, err error) {
	line := fmt.Sprintf("An error occurred during %s: %v", stage, err)
	if p.styled {
		line = errorStyle.Render(line)
	}
	fmt.Fprintln(p.w, line)
}

// Token writes streamed text as is.
func (p *Printer) Token(s string) {
	fmt.Fprint(p.w, s)
}

// Writer is the underlying destination.
func (p *Printer) Writer() io.Writer { return p.w }

func (p *Printer) body(text string) string {
	if p.markdown == nil {
		return text
	}
	out, err := p.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
