package provider

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrRateLimit,
		ErrContextLength,
		ErrProviderDown,
		ErrAuthentication,
		ErrEmptyResponse,
	}

	for i, a := range sentinels {
		if a.Error() == "" {
			t.Fatalf("sentinel error %d must have a non-empty message", i)
		}
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinel errors must be distinct: %v and %v", a, b)
			}
		}
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", ErrRateLimit, true},
		{"wrapped provider down", fmt.Errorf("groq: %w", ErrProviderDown), true},
		{"auth", ErrAuthentication, false},
		{"context length", ErrContextLength, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestMessageHelpers(t *testing.T) {
	t.Parallel()

	if m := SystemMessage("s"); m.Role != MessageRoleSystem || m.Content != "s" {
		t.Errorf("SystemMessage = %+v", m)
	}
	if m := UserMessage("u"); m.Role != MessageRoleUser || m.Content != "u" {
		t.Errorf("UserMessage = %+v", m)
	}
	if m := AssistantMessage("a"); m.Role != MessageRoleAssistant || m.Content != "a" {
		t.Errorf("AssistantMessage = %+v", m)
	}
}
