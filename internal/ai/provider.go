// Package ai generates text suggestions through external HTTP providers.
// Providers are tried in order; results are cached so repeated prompts do
// not pay for a second generation.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Request is one generation request.
type Request struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
	MaxLen  int    `json:"maxLength,omitempty"`
}

// Response is one generation result.
type Response struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Cached   bool   `json:"cached"`
}

// Generator is the contract the manager and every provider satisfy.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Healthy() bool
}

// HTTPProvider calls one generation endpoint. A failed call marks the
// provider unhealthy; the next successful call clears it.
type HTTPProvider struct {
	name    string
	url     string
	apiKey  string
	client  *http.Client
	healthy atomic.Bool
}

func NewHTTPProvider(name, url, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	p := &HTTPProvider{
		name:   name,
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
	p.healthy.Store(true)
	return p
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) Healthy() bool { return p.healthy.Load() }

func (p *HTTPProvider) Generate(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.healthy.Store(false)
		return Response{}, fmt.Errorf("call provider %s: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.healthy.Store(false)
		return Response{}, fmt.Errorf("provider %s returned %d", p.name, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Response{}, fmt.Errorf("read provider response: %w", err)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, fmt.Errorf("decode provider response: %w", err)
	}
	if out.Text == "" {
		return Response{}, fmt.Errorf("provider %s returned empty text", p.name)
	}

	p.healthy.Store(true)
	out.Provider = p.name
	return out, nil
}
