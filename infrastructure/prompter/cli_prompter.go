// Package prompter implements line input and prompt rendering for CLI
// environments.
package prompter

import (
	"bufio"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var defaultStyle = lipgloss.NewStyle().Bold(true)

// CliPrompter implements ports.Prompter over an input reader and an
// output writer.
type CliPrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	in      io.Reader
	prompt  string
	style   lipgloss.Style
}

// Option configures a CliPrompter.
type Option func(*CliPrompter)

// WithPrompt overrides the default prompt text.
func WithPrompt(text string) Option {
	return func(p *CliPrompter) {
		p.prompt = text
	}
}

// WithStyle sets the lipgloss style the default prompt is rendered with.
func WithStyle(style lipgloss.Style) Option {
	return func(p *CliPrompter) {
		p.style = style
	}
}

// NewCliPrompter creates a new CliPrompter.
func NewCliPrompter(in io.Reader, out io.Writer, opts ...Option) *CliPrompter {
	p := &CliPrompter{
		scanner: bufio.NewScanner(in),
		out:     out,
		in:      in,
		prompt:  "> ",
		style:   defaultStyle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ReadLine blocks for the next input line. It returns io.EOF at end of
// input.
func (p *CliPrompter) ReadLine() (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

// WriteDefault renders the default prompt.
func (p *CliPrompter) WriteDefault() error {
	text := p.prompt
	if p.IsInteractive() {
		text = p.style.Render(p.prompt)
	}
	_, err := io.WriteString(p.out, text)
	return err
}

// IsInteractive checks if the input is a terminal.
func (p *CliPrompter) IsInteractive() bool {
	if f, ok := p.in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}
