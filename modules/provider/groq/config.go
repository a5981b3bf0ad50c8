package groq

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Defaults for Config.
const (
	DefaultBaseURL   = "https://api.groq.com/openai/v1"
	DefaultModel     = "gemma2-9b-it"
	DefaultAPIKeyEnv = "GROQ_API_KEY"
	DefaultTimeout   = 30 * time.Second
)

// Config holds the configuration for the Groq provider.
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	APIKey    string            `yaml:"api_key"`
	APIKeyEnv string            `yaml:"api_key_env"`
	Model     string            `yaml:"model"`
	MaxTokens int               `yaml:"max_tokens"`
	Headers   map[string]string `yaml:"headers"`
	Timeout   time.Duration     `yaml:"timeout"`
}

// defaults sets default values for unset fields.
func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// validate returns every problem with the configuration. The API key is
// checked at Provision, where it is resolved.
func (c *Config) validate() error {
	var errs []error
	u, err := url.Parse(c.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("provider.groq: base_url is not a valid URL: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("provider.groq: base_url scheme must be http or https, got %q", u.Scheme))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("provider.groq: model is required"))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, errors.New("provider.groq: max_tokens must not be negative"))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("provider.groq: timeout must not be negative"))
	}
	return errors.Join(errs...)
}
