package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches map keys that likely contain secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|key|credential|authorization)`)

// Redactor replaces secret values in strings and maps with RedactPlaceholder.
// Known API key formats are matched by pattern. Keys loaded at runtime are
// matched literally once registered. Safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value. Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// SyncCredentials replaces all literal values with the current contents
// of store. Call it once modules have registered their keys.
func (r *Redactor) SyncCredentials(store *CredentialStore) {
	values := store.Values()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = values
}

// Redact masks every known pattern and literal in s.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	// Literals first: a runtime key may be longer than what a pattern covers.
	for _, lit := range literals {
		s = strings.ReplaceAll(s, lit, RedactPlaceholder)
	}
	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	return s
}

// RedactMap masks, in place, string values whose keys look secret and any
// string value containing a known secret. Nested maps and lists of maps
// are walked. Used when module configuration is displayed.
func (r *Redactor) RedactMap(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case string:
			if val != "" && secretKeyPattern.MatchString(k) {
				m[k] = RedactPlaceholder
			} else if redacted := r.Redact(val); redacted != val {
				m[k] = redacted
			}
		case map[string]any:
			r.RedactMap(val)
		case []any:
			for _, item := range val {
				if sub, ok := item.(map[string]any); ok {
					r.RedactMap(sub)
				}
			}
		}
	}
}

// DefaultPatterns returns compiled patterns for the key formats memagent
// handles: Groq, OpenAI-style and mem0 keys, and bearer headers.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Groq: gsk_...
		regexp.MustCompile(`gsk_[a-zA-Z0-9]{20,}`),
		// OpenAI-compatible gateways: sk-...
		regexp.MustCompile(`sk-[a-zA-Z0-9\-_]{20,}`),
		// mem0 platform: m0-...
		regexp.MustCompile(`m0-[a-zA-Z0-9]{20,}`),
		// Authorization header values.
		regexp.MustCompile(`(?i)(bearer|token)\s+[a-zA-Z0-9\-_.=]{16,}`),
	}
}
