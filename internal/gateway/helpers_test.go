package gateway

import (
	"context"
	"errors"

	"github.com/flemzord/memagent/internal/provider"
)

// fakeProvider is a minimal provider with a controllable health check.
type fakeProvider struct {
	failErr error
}

func (p *fakeProvider) Complete(_ context.Context, _ provider.CompletionRequest) (provider.CompletionResponse, error) {
	if p.failErr != nil {
		return provider.CompletionResponse{}, p.failErr
	}
	return provider.CompletionResponse{Content: "ok"}, nil
}

func (p *fakeProvider) ModelName() string { return "fake" }

func (p *fakeProvider) HealthCheck(_ context.Context) error {
	return p.failErr
}

// plainProvider has no health check.
type plainProvider struct{}

func (plainProvider) Complete(context.Context, provider.CompletionRequest) (provider.CompletionResponse, error) {
	return provider.CompletionResponse{}, nil
}

func (plainProvider) ModelName() string { return "plain" }

var errDown = errors.New("down")
