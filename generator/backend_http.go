package generator

import (
	"context"
	"errors"

	"github.com/go-resty/resty/v2"
)

// DefaultEndpoint is the generation route of the backend.
const DefaultEndpoint = "/api/generate"

// HTTPBackend posts payloads to the generation API with resty. It never
// retries; a failed call is reported once.
type HTTPBackend struct {
	client   *resty.Client
	endpoint string
}

func NewHTTPBackend(cfg *BackendSettings) (*HTTPBackend, error) {
	if cfg == nil {
		return nil, errors.New("backend config is nil")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base_url is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)
	return &HTTPBackend{client: client, endpoint: endpoint}, nil
}

func (b *HTTPBackend) Generate(ctx context.Context, payload Payload) (string, error) {
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(b.endpoint)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", &StatusError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return ExtractOutput(resp.Body())
}
