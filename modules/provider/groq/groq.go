// Package groq provides the provider.groq module: chat completions from
// Groq's OpenAI-compatible API, including JSON-object mode.
package groq

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/flemzord/memagent/internal/config"
	"github.com/flemzord/memagent/internal/core"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/flemzord/memagent/internal/security"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Provider{})
}

// CredentialName is the credential store entry holding the resolved key.
const CredentialName = "provider.groq.api_key"

// Provider is the Groq completion provider.
type Provider struct {
	config Config
	apiKey string
	client *http.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (p *Provider) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.groq",
		New: func() core.Module { return &Provider{} },
	}
}

// Configure implements core.Configurable.
func (p *Provider) Configure(node *yaml.Node) error {
	if err := node.Decode(&p.config); err != nil {
		return err
	}
	p.config.defaults()
	return nil
}

// Provision implements core.Provisioner. It resolves the API key and fails
// with config.ErrMissingCredentials when there is none.
func (p *Provider) Provision(ctx *core.AppContext) error {
	p.logger = ctx.Logger

	key, ok := security.ResolveSecret(p.config.APIKey, p.config.APIKeyEnv)
	if !ok {
		return fmt.Errorf("%w: set %s or provider.groq.api_key", config.ErrMissingCredentials, p.config.APIKeyEnv)
	}
	p.apiKey = key
	security.RegisterCredential(ctx, CredentialName, key)

	p.client = &http.Client{Timeout: p.config.Timeout}

	ctx.RegisterService(provider.ServiceName, p)
	p.logger.Debug("provider ready", "model", p.config.Model, "base_url", p.config.BaseURL)
	return nil
}

// Validate implements core.Validator.
func (p *Provider) Validate() error {
	return p.config.validate()
}

// Complete implements provider.Provider.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	body := buildRequest(p.config.Model, p.config.MaxTokens, req)

	resp, err := p.doRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("groq: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		return provider.CompletionResponse{}, fmt.Errorf("groq: %w", handleErrorResponse(resp))
	}

	var chat chatResponse
	if err := decodeResponse(resp.Body, &chat); err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("groq: %w", err)
	}
	out, err := parseResponse(chat)
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("groq: %w", err)
	}
	return out, nil
}

// ModelName implements provider.Provider.
func (p *Provider) ModelName() string {
	return p.config.Model
}

// HealthCheck implements provider.HealthChecker by probing /models.
func (p *Provider) HealthCheck(ctx context.Context) error {
	resp, err := p.doRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return fmt.Errorf("groq: health check: %w", err)
	}
	defer resp.Body.Close()               //nolint:errcheck // best-effort close
	_, _ = io.Copy(io.Discard, resp.Body) // drain body

	if resp.StatusCode >= 400 {
		return fmt.Errorf("groq: %w: health check returned HTTP %d", provider.ErrProviderDown, resp.StatusCode)
	}
	return nil
}

// Compile-time interface assertions.
var (
	_ core.Module            = (*Provider)(nil)
	_ core.Configurable      = (*Provider)(nil)
	_ core.Provisioner       = (*Provider)(nil)
	_ core.Validator         = (*Provider)(nil)
	_ provider.Provider      = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)
