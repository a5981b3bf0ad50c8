package agent

import (
	"bytes"
	"encoding/json"
	"strings"
)

const decisionPrompt = `
You are an intelligent memory controller. Analyze the "LATEST USER STATEMENT" and decide if it introduces a new fact or updates an existing topic.

Current Memories:
{{memories}}

Your task is to respond with a JSON object.
- If the statement is a new fact, use the key "new_fact".
- If the statement updates an existing memory, use the key "updated_fact" and provide the general "topic" being updated.
- If no memory action is needed, return an empty JSON object.
**You must respond in JSON format.**

Example 1: User says "I live in New York." -> {"new_fact": "User lives in New York."}
Example 2: User says "I don't play football anymore, I play basketball now." -> {"topic": "user's current sport", "updated_fact": "User now plays basketball."}
Example 3: User says "My favorite team is now Chelsea." -> {"topic": "user's favorite football team", "updated_fact": "User's favorite team is Chelsea."}
Example 4: User says "What's the weather like?" -> {}

LATEST USER STATEMENT: "{{utterance}}"
`

const synthesisPrompt = `
You are a friendly, insightful, and conversational AI assistant with a perfect memory.
The memories below are a log of facts about the user. Newer facts can contradict and override older ones.
Your primary job is to synthesize these facts and respond based on the most up-to-date information.
Do NOT just state the memories back to the user; weave your understanding from them into a natural conversation.

**MEMORIES:**
`

// snapshotJSON renders the fact snapshot as an indented JSON array of strings.
func snapshotJSON(snapshot []string) string {
	if snapshot == nil {
		snapshot = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(snapshot)
	return strings.TrimRight(buf.String(), "\n")
}

// BuildDecisionPrompt returns the memory-controller instruction for utterance.
func BuildDecisionPrompt(utterance string, snapshot []string) string {
	r := strings.NewReplacer(
		"{{memories}}", snapshotJSON(snapshot),
		"{{utterance}}", utterance,
	)
	return r.Replace(decisionPrompt)
}

// BuildSynthesisPrompt returns the reply instruction listing facts one per line.
func BuildSynthesisPrompt(facts []string) string {
	var b strings.Builder
	b.WriteString(synthesisPrompt)
	for i, f := range facts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(f)
	}
	b.WriteByte('\n')
	return b.String()
}
