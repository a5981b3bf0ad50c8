package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDecisionPrompt(t *testing.T) {
	t.Parallel()

	got := BuildDecisionPrompt("I play <chess> now", []string{"User lives in New York."})

	assert.Contains(t, got, "[\n  \"User lives in New York.\"\n]")
	assert.Contains(t, got, `LATEST USER STATEMENT: "I play <chess> now"`)
	assert.Contains(t, got, `Example 4: User says "What's the weather like?" -> {}`)
	assert.NotContains(t, got, "{{")
}

func TestBuildDecisionPrompt_EmptySnapshot(t *testing.T) {
	t.Parallel()

	got := BuildDecisionPrompt("hi", nil)
	assert.Contains(t, got, "Current Memories:\n[]\n")
}

func TestBuildDecisionPrompt_UtteranceIsNotExpanded(t *testing.T) {
	t.Parallel()

	got := BuildDecisionPrompt("say {{memories}}", []string{"fact"})
	assert.Contains(t, got, `"say {{memories}}"`)
	assert.Equal(t, 1, strings.Count(got, `"fact"`))
}

func TestBuildSynthesisPrompt(t *testing.T) {
	t.Parallel()

	got := BuildSynthesisPrompt([]string{"User lives in New York.", "User plays basketball."})
	assert.True(t, strings.HasSuffix(got, "**MEMORIES:**\n- User lives in New York.\n- User plays basketball.\n"))
	assert.NotContains(t, got, `\n`)

	empty := BuildSynthesisPrompt(nil)
	assert.True(t, strings.HasSuffix(empty, "**MEMORIES:**\n\n"))
}
