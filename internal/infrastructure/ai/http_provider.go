package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

type httpProvider struct {
	name       string
	model      domain.ModelDefinition
	httpClient *http.Client
	adapter    providerAdapter
}

// providerAdapter captures the per-backend wire differences: how the
// request body and URL are built, which headers carry credentials, and
// where the generated text lives in the response.
type providerAdapter struct {
	fallbackEnv   string
	buildURL      func(model domain.ModelDefinition, apiKey string) string
	buildRequest  func(model domain.ModelDefinition, req ports.InvokeRequest) ([]byte, error)
	setHeaders    func(httpReq *http.Request, model domain.ModelDefinition, apiKey string) error
	parseResponse func(body []byte) (string, error)
	// requiresKey marks backends that cannot work without credentials
	// (everything except local ollama).
	requiresKey bool
}

func newHTTPProvider(name string, model domain.ModelDefinition, client *http.Client, adapter providerAdapter) ports.Provider {
	return &httpProvider{
		name:       name,
		model:      model,
		httpClient: client,
		adapter:    adapter,
	}
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) Model() domain.ModelDefinition {
	return p.model
}

func (p *httpProvider) Invoke(ctx context.Context, req ports.InvokeRequest) (string, error) {
	apiKey := getEnv(p.model.AuthEnvVar, p.adapter.fallbackEnv)
	if apiKey == "" && p.adapter.requiresKey {
		return "", &domain.CapabilityError{
			Kind:     domain.ErrKindFatal,
			Provider: p.name,
			Err:      fmt.Errorf("missing API key: set %s", envHint(p.model.AuthEnvVar, p.adapter.fallbackEnv)),
		}
	}

	body, err := p.adapter.buildRequest(p.model, req)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", p.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.adapter.buildURL(p.model, apiKey), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}
	httpReq.Header.Set("content-type", "application/json")
	if err := p.adapter.setHeaders(httpReq, p.model, apiKey); err != nil {
		return "", err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &domain.CapabilityError{
			Kind:     domain.ErrKindTransient,
			Provider: p.name,
			Err:      err,
		}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", &domain.CapabilityError{
			Kind:     domain.ErrKindTransient,
			Provider: p.name,
			Err:      err,
		}
	}

	if resp.StatusCode >= 400 {
		return "", &domain.CapabilityError{
			Kind:     classifyStatus(resp.StatusCode),
			Provider: p.name,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(resp.Status)),
		}
	}

	content, err := p.adapter.parseResponse(responseBody)
	if err != nil {
		return "", fmt.Errorf("%s: parse response: %w", p.name, err)
	}
	return strings.TrimRight(content, "\n"), nil
}

// classifyStatus maps HTTP failures onto the retry policy: rate limits and
// server-side errors are transient, everything else (auth, bad request,
// unknown model) is fatal and surfaced immediately.
func classifyStatus(status int) domain.ErrorKind {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return domain.ErrKindTransient
	default:
		return domain.ErrKindFatal
	}
}

func envHint(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}
