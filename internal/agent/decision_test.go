package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    Decision
	}{
		{"empty object", `{}`, Decision{}},
		{"new fact", `{"new_fact": "User lives in New York."}`, Decision{NewFact: "User lives in New York."}},
		{
			"topic update",
			`{"topic": "user's current sport", "updated_fact": "User now plays basketball."}`,
			Decision{Topic: "user's current sport", UpdatedFact: "User now plays basketball."},
		},
		{"fenced", "```json\n{\"new_fact\": \"x\"}\n```", Decision{NewFact: "x"}},
		{"non-string values are absent", `{"new_fact": 42, "topic": null}`, Decision{}},
		{"unknown keys ignored", `{"mood": "happy", "new_fact": " padded "}`, Decision{NewFact: "padded"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDecision(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecision_Malformed(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"", "not json", "null", `["a"]`, `"text"`, `{"new_fact":`} {
		_, err := ParseDecision(content)
		assert.ErrorIs(t, err, ErrMalformedDecision, "content %q", content)
	}
}

func TestDecision_Outcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "noop", Decision{}.Outcome())
	assert.Equal(t, "add", Decision{NewFact: "a"}.Outcome())
	assert.Equal(t, "add", Decision{UpdatedFact: "a"}.Outcome())
	assert.Equal(t, "replace", Decision{Topic: "t", UpdatedFact: "a"}.Outcome())
	assert.Equal(t, "purge", Decision{Topic: "t"}.Outcome())
}

func TestDecision_FactPrefersNewFact(t *testing.T) {
	t.Parallel()

	d := Decision{NewFact: "new", UpdatedFact: "updated"}
	assert.Equal(t, "new", d.Fact())
	assert.Equal(t, `{"new_fact":"new","updated_fact":"updated"}`, d.String())
}
