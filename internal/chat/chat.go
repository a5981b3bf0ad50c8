// Package chat runs the interactive read-reply loop on top of the agent.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/flemzord/memagent/internal/provider"
)

// Prompt is written before every user line.
const Prompt = "You: "

// Reserved commands, matched case-insensitively on the trimmed line.
const (
	cmdExit         = "exit"
	cmdListMemories = "list memories"
)

// LineReader yields one line of user input per call.
// *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
}

// Agent answers turns and lists stored memories.
type Agent interface {
	HandleTurn(ctx context.Context, utterance string, history []provider.LLMMessage) string
	ListMemories(ctx context.Context) string
}

// Session is one conversation. History lives only as long as the session.
type Session struct {
	agent   Agent
	in      LineReader
	out     io.Writer
	history []provider.LLMMessage
}

// NewSession creates a session reading from in and writing replies to out.
func NewSession(agent Agent, in LineReader, out io.Writer) *Session {
	return &Session{agent: agent, in: in, out: out}
}

// Run reads lines until the user exits, input ends, or ctx is cancelled.
// Only unexpected read or write errors are returned.
func (s *Session) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return s.goodbye()
		}

		line, err := s.in.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return s.goodbye()
			}
			return fmt.Errorf("chat: read input: %w", err)
		}

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case cmdExit:
			return s.goodbye()
		case cmdListMemories:
			if _, err := fmt.Fprintf(s.out, "AI:\n%s\n", s.agent.ListMemories(ctx)); err != nil {
				return fmt.Errorf("chat: write reply: %w", err)
			}
			continue
		}

		reply := s.agent.HandleTurn(ctx, input, s.History())
		if _, err := fmt.Fprintf(s.out, "AI: %s\n", reply); err != nil {
			return fmt.Errorf("chat: write reply: %w", err)
		}
		s.history = append(s.history,
			provider.UserMessage(input),
			provider.AssistantMessage(reply),
		)
	}
}

// History returns a copy of the conversation so far.
func (s *Session) History() []provider.LLMMessage {
	out := make([]provider.LLMMessage, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) goodbye() error {
	if _, err := fmt.Fprintln(s.out, "AI: Goodbye!"); err != nil {
		return fmt.Errorf("chat: write reply: %w", err)
	}
	return nil
}
