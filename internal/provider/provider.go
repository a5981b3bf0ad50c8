// Package provider defines the contract between memagent and a chat
// completion service.
package provider

import "context"

// Provider is the interface for communicating with an LLM.
// Concrete implementations live in separate packages (e.g., provider.groq)
// and typically also implement core.Module for lifecycle management.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}

// HealthChecker is an optional interface that providers may implement
// to support active health probing from the gateway.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ServiceName is the AppContext service under which the configured
// provider module registers itself.
const ServiceName = "provider"
