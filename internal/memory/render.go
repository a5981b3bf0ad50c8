package memory

import (
	"strings"

	"github.com/flemzord/memagent/internal/provider"
)

// Render turns the messages passed to Store.Add into the text of one fact.
// A single message is stored verbatim; a conversation is stored as
// "role: content" lines.
func Render(messages []provider.LLMMessage) string {
	switch len(messages) {
	case 0:
		return ""
	case 1:
		return strings.TrimSpace(messages[0].Content)
	}

	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
