// Package security holds runtime secrets and keeps them out of logs, audit
// trails and HTTP responses. It also provides the request guards used by
// the gateway: rate limiting and payload validation.
package security

import (
	"os"
	"slices"
	"strings"
	"sync"
)

// CredentialsService is the AppContext service holding the process
// *CredentialStore.
const CredentialsService = "security.credentials"

// CredentialStore is a thread-safe store for resolved API keys. Modules
// register every secret they load so the log redactor can mask it.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]string
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		creds: make(map[string]string),
	}
}

// Set stores a credential, overwriting any previous value under name.
func (s *CredentialStore) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[name] = value
}

// Get returns the credential value and true, or "" and false if not found.
func (s *CredentialStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.creds[name]
	return v, ok
}

// Names returns a sorted list of all credential names.
func (s *CredentialStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.creds))
	for name := range s.creds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Values returns all non-empty credential values in no particular order.
func (s *CredentialStore) Values() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]string, 0, len(s.creds))
	for _, v := range s.creds {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

// Len returns the number of stored credentials.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds)
}

// RegisterCredential records value under name in the CredentialStore found
// in services, if any. It reports whether a store was found.
func RegisterCredential(services interface{ Service(string) (any, bool) }, name, value string) bool {
	svc, ok := services.Service(CredentialsService)
	if !ok {
		return false
	}
	store, ok := svc.(*CredentialStore)
	if !ok {
		return false
	}
	store.Set(name, value)
	return true
}

// ResolveSecret returns explicit when set, else the value of the envVar
// environment variable. Surrounding whitespace is dropped. The second
// result is false when neither yields a value.
func ResolveSecret(explicit, envVar string) (string, bool) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, true
	}
	if envVar == "" {
		return "", false
	}
	v := strings.TrimSpace(os.Getenv(envVar))
	return v, v != ""
}
