package mem0

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Defaults for Config.
const (
	DefaultBaseURL   = "http://localhost:8888"
	DefaultAPIKeyEnv = "MEM0_API_KEY"
	DefaultTimeout   = 30 * time.Second
)

// Config holds the configuration for the mem0 REST client.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`

	// Infer asks the server to extract facts with its own LLM instead of
	// storing the messages as given.
	Infer bool `yaml:"infer"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

func (c *Config) validate() error {
	var errs []error
	u, err := url.Parse(c.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("memory.mem0: base_url is not a valid URL: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("memory.mem0: base_url scheme must be http or https, got %q", u.Scheme))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("memory.mem0: timeout must not be negative"))
	}
	return errors.Join(errs...)
}
