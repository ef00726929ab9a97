package generator

import (
	"context"
	"time"
)

// Backend sends one payload to the generation API and returns the text it
// produced. A non-2xx answer is reported as *StatusError.
type Backend interface {
	Generate(ctx context.Context, payload Payload) (string, error)
}

// BackendSettings configures HTTPBackend.
type BackendSettings struct {
	BaseURL  string
	Endpoint string
	Timeout  time.Duration
}

// Clipboard receives copied output.
type Clipboard interface {
	WriteAll(text string) error
}
