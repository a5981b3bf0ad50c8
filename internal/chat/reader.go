package chat

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// PromptReader is a LineReader for non-terminal input. It writes Prompt to
// w before scanning each line from r.
type PromptReader struct {
	scanner *bufio.Scanner
	w       io.Writer
}

// NewPromptReader creates a PromptReader.
func NewPromptReader(r io.Reader, w io.Writer) *PromptReader {
	return &PromptReader{scanner: bufio.NewScanner(r), w: w}
}

// Readline implements LineReader. It blocks until r yields a newline or
// EOF and cannot be interrupted by context cancellation.
func (p *PromptReader) Readline() (string, error) {
	if _, err := io.WriteString(p.w, Prompt); err != nil {
		return "", err
	}
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

// NewTerminal opens an interactive line editor showing Prompt. Input
// history is kept in historyFile when non-empty.
func NewTerminal(historyFile string) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		HistoryLimit:    500,
		InterruptPrompt: "^C",
		EOFPrompt:       cmdExit,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: init terminal: %w", err)
	}
	return rl, nil
}

var (
	_ LineReader = (*PromptReader)(nil)
	_ LineReader = (*readline.Instance)(nil)
)
