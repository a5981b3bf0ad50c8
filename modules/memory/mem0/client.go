package mem0

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/flemzord/memagent/internal/security"
)

// ErrUnavailable wraps transport failures and 5xx answers.
var ErrUnavailable = errors.New("mem0 unavailable")

var _ memory.Store = (*Client)(nil)

// Client talks to a mem0 REST server.
type Client struct {
	baseURL string
	apiKey  string
	infer   bool
	http    *http.Client
}

// NewClient returns a client for the server described by cfg. apiKey may
// be empty for servers without authentication.
func NewClient(cfg Config, apiKey string) *Client {
	cfg.defaults()
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  apiKey,
		infer:   cfg.Infer,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type addRequest struct {
	Messages []wireMessage `json:"messages"`
	UserID   string        `json:"user_id"`
	Infer    bool          `json:"infer"`
}

type searchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// Add implements memory.Store.
func (c *Client) Add(ctx context.Context, userID string, messages []provider.LLMMessage) ([]memory.Fact, error) {
	if memory.Render(messages) == "" {
		return nil, memory.ErrEmptyFact
	}

	body := addRequest{UserID: userID, Infer: c.infer, Messages: make([]wireMessage, len(messages))}
	for i, m := range messages {
		body.Messages[i] = wireMessage{Role: string(m.Role), Content: m.Content}
	}

	var res memory.Results
	if err := c.call(ctx, http.MethodPost, "/memories", body, &res); err != nil {
		return nil, fmt.Errorf("mem0: add: %w", err)
	}
	return withOwner(res.Facts(), userID), nil
}

// Search implements memory.Store.
func (c *Client) Search(ctx context.Context, userID, query string, limit int) ([]memory.Fact, error) {
	body := searchRequest{Query: query, UserID: userID, Limit: memory.EffectiveLimit(limit)}

	var res memory.Results
	if err := c.call(ctx, http.MethodPost, "/search", body, &res); err != nil {
		return nil, fmt.Errorf("mem0: search: %w", err)
	}
	facts := withOwner(res.Facts(), userID)
	if len(facts) > body.Limit {
		facts = facts[:body.Limit]
	}
	return facts, nil
}

// GetAll implements memory.Store.
func (c *Client) GetAll(ctx context.Context, userID string) ([]memory.Fact, error) {
	var res memory.Results
	path := "/memories?" + url.Values{"user_id": {userID}}.Encode()
	if err := c.call(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, fmt.Errorf("mem0: list: %w", err)
	}
	return withOwner(res.Facts(), userID), nil
}

// Delete implements memory.Store. A 404 maps to memory.ErrFactNotFound.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return memory.ErrFactNotFound
	}
	if err := c.call(ctx, http.MethodDelete, "/memories/"+url.PathEscape(id), nil, nil); err != nil {
		if errors.Is(err, memory.ErrFactNotFound) {
			return err
		}
		return fmt.Errorf("mem0: delete: %w", err)
	}
	return nil
}

// call performs one request and decodes a JSON answer into out when out
// is non-nil.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := security.ReadJSON(resp.Body, 0, 0)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

const maxErrorBodySize = 4096

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", memory.ErrFactNotFound, body)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, body)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
}

// withOwner fills in the user for items the server returned without one.
func withOwner(facts []memory.Fact, userID string) []memory.Fact {
	for i := range facts {
		if facts[i].UserID == "" {
			facts[i].UserID = userID
		}
	}
	return facts
}
