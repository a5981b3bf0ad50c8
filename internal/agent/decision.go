package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedDecision indicates the decision text is not a JSON object.
var ErrMalformedDecision = errors.New("agent: malformed memory decision")

// Decision is the per-turn verdict on what to do with the fact store.
//
//   - empty: nothing changes
//   - NewFact or UpdatedFact only: one fact is added
//   - Topic: facts matching Topic are purged, then the fact (if any) is added
type Decision struct {
	Topic       string `json:"topic,omitempty"`
	NewFact     string `json:"new_fact,omitempty"`
	UpdatedFact string `json:"updated_fact,omitempty"`
}

// Fact returns the fact to store: NewFact when set, else UpdatedFact.
func (d Decision) Fact() string {
	if d.NewFact != "" {
		return d.NewFact
	}
	return d.UpdatedFact
}

// IsEmpty reports whether the decision requests no change.
func (d Decision) IsEmpty() bool {
	return d.Topic == "" && d.Fact() == ""
}

// Outcome labels the decision for metrics: noop, add, replace or purge.
func (d Decision) Outcome() string {
	switch {
	case d.IsEmpty():
		return "noop"
	case d.Topic == "":
		return "add"
	case d.Fact() == "":
		return "purge"
	default:
		return "replace"
	}
}

// String renders the decision as compact JSON for logs.
func (d Decision) String() string {
	b, _ := json.Marshal(d)
	return string(b)
}

// ParseDecision decodes a model reply into a Decision. The reply must be a
// JSON object, optionally wrapped in a Markdown code fence. Keys other than
// topic, new_fact and updated_fact are ignored, as are non-string values.
func ParseDecision(content string) (Decision, error) {
	body := stripFence(strings.TrimSpace(content))

	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrMalformedDecision, err)
	}
	if fields == nil {
		return Decision{}, fmt.Errorf("%w: not a JSON object", ErrMalformedDecision)
	}

	str := func(key string) string {
		s, _ := fields[key].(string)
		return strings.TrimSpace(s)
	}
	return Decision{
		Topic:       str("topic"),
		NewFact:     str("new_fact"),
		UpdatedFact: str("updated_fact"),
	}, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
