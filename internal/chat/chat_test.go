package chat_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flemzord/memagent/internal/agent"
	"github.com/flemzord/memagent/internal/chat"
	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/memory/memorytest"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/flemzord/memagent/internal/provider/providertest"
)

// scriptedReader returns lines in order, then err (io.EOF style).
type scriptedReader struct {
	lines []string
	err   error
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", r.err
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

type fakeAgent struct {
	turns     []string
	histories [][]provider.LLMMessage
	listing   string
}

func (a *fakeAgent) HandleTurn(_ context.Context, utterance string, history []provider.LLMMessage) string {
	a.turns = append(a.turns, utterance)
	a.histories = append(a.histories, history)
	return "echo: " + utterance
}

func (a *fakeAgent) ListMemories(context.Context) string { return a.listing }

func TestSession_ExitIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	for _, word := range []string{"exit", "EXIT", "  Exit  "} {
		var out bytes.Buffer
		a := &fakeAgent{}
		s := chat.NewSession(a, &scriptedReader{lines: []string{word, "never read"}}, &out)

		require.NoError(t, s.Run(context.Background()))
		assert.Equal(t, "AI: Goodbye!\n", out.String())
		assert.Empty(t, a.turns)
	}
}

func TestSession_ListMemoriesBypassesAgentTurn(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	a := &fakeAgent{listing: "You have no memories stored."}
	s := chat.NewSession(a, &scriptedReader{lines: []string{"LIST MEMORIES", "exit"}}, &out)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, "AI:\nYou have no memories stored.\nAI: Goodbye!\n", out.String())
	assert.Empty(t, a.turns)
	assert.Empty(t, s.History())
}

func TestSession_TurnsAppendHistory(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	a := &fakeAgent{}
	s := chat.NewSession(a, &scriptedReader{lines: []string{" hello ", "again", "exit"}}, &out)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, "AI: echo: hello\nAI: echo: again\nAI: Goodbye!\n", out.String())
	assert.Equal(t, []string{"hello", "again"}, a.turns)

	assert.Empty(t, a.histories[0])
	assert.Equal(t, []provider.LLMMessage{
		provider.UserMessage("hello"),
		provider.AssistantMessage("echo: hello"),
	}, a.histories[1])
	assert.Len(t, s.History(), 4)
}

func TestSession_EmptyLineIsForwarded(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	a := &fakeAgent{}
	s := chat.NewSession(a, &scriptedReader{lines: []string{"   ", "exit"}}, &out)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{""}, a.turns)
}

func TestSession_EOFAndInterruptEndGracefully(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		err  error
		fail bool
	}{
		{"interrupt", readline.ErrInterrupt, false},
		{"eof via reader", nil, false},
		{"read failure", errors.New("tty gone"), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			var in chat.LineReader
			if tc.err == nil {
				in = chat.NewPromptReader(strings.NewReader("hello\n"), &out)
			} else {
				in = &scriptedReader{err: tc.err}
			}
			err := chat.NewSession(&fakeAgent{}, in, &out).Run(context.Background())
			if tc.fail {
				require.Error(t, err)
				assert.NotContains(t, out.String(), "Goodbye")
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(out.String(), "AI: Goodbye!\n"))
		})
	}
}

func TestSession_CancelledContextEnds(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	a := &fakeAgent{}
	s := chat.NewSession(a, &scriptedReader{lines: []string{"hello"}}, &out)

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, "AI: Goodbye!\n", out.String())
	assert.Empty(t, a.turns)
}

func TestPromptReader_WritesPrompt(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := chat.NewPromptReader(strings.NewReader("one\ntwo"), &out)

	line, err := r.Readline()
	require.NoError(t, err)
	assert.Equal(t, "one", line)
	line, err = r.Readline()
	require.NoError(t, err)
	assert.Equal(t, "two", line)
	assert.Equal(t, "You: You: ", out.String())
}

func TestSession_EndToEndWithMemory(t *testing.T) {
	t.Parallel()

	store := memorytest.NewRecordingStore()
	decider := &agent.StubDecider{Decisions: map[string]agent.Decision{
		"I live in New York.": {NewFact: "User lives in New York."},
	}}
	mock := &providertest.MockProvider{CompleteFunc: providertest.Reply("Noted!")}
	orch, err := agent.NewOrchestrator(agent.Deps{Provider: mock, Store: store, Decider: decider}, agent.Config{})
	require.NoError(t, err)

	var out bytes.Buffer
	in := chat.NewPromptReader(strings.NewReader(
		"list memories\nI live in New York.\nWhat's the weather like?\nexit\n"), &out)
	require.NoError(t, chat.NewSession(orch, in, &out).Run(context.Background()))

	assert.Equal(t,
		"You: AI:\nYou have no memories stored.\n"+
			"You: AI: Noted!\n"+
			"You: AI: Noted!\n"+
			"You: AI: Goodbye!\n",
		out.String())

	facts, err := store.GetAll(context.Background(), "user1")
	require.NoError(t, err)
	require.NotEmpty(t, facts)
	assert.Equal(t, "User lives in New York.", facts[0].Content)

	// The New York fact plus one persisted exchange per turn.
	assert.Len(t, facts, 3)
	assert.Equal(t, 1, countContent(facts, "What's the weather like?"))

	reqs := mock.Requests()
	last := reqs[len(reqs)-1].Messages
	assert.Contains(t, last[len(last)-2].Content, "- User lives in New York.")
	assert.Len(t, last, 4, "history of the first turn plus instruction and utterance")
}

func countContent(facts []memory.Fact, sub string) int {
	n := 0
	for _, f := range facts {
		if strings.Contains(f.Content, sub) {
			n++
		}
	}
	return n
}
