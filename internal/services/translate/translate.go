// Package translate converts transcript segments into the target language.
// Two providers are supported: an OpenAI-compatible chat completions API and
// the unofficial Google Translate web endpoint. Selection is automatic when
// the configured provider is "auto": OpenAI when an API key is present,
// Google otherwise.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Provider translates a batch of texts. Implementations must return one
// output per input, in order.
type Provider interface {
	Name() string
	Translate(ctx context.Context, texts []string, source, target string) ([]string, error)
}

// Options selects and configures a provider.
type Options struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// New builds a provider from options.
func New(opts Options) (Provider, error) {
	timeout := defaultHTTPTimeout
	if opts.TimeoutSeconds > 0 {
		timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "openai":
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, fmt.Errorf("translate: openai provider requires an api key")
		}
		return NewOpenAIProvider(opts.APIKey, opts.BaseURL, opts.Model, timeout), nil
	case "google":
		return NewGoogleProvider(opts.BaseURL, timeout), nil
	case "", "auto":
		if strings.TrimSpace(opts.APIKey) != "" {
			return NewOpenAIProvider(opts.APIKey, opts.BaseURL, opts.Model, timeout), nil
		}
		return NewGoogleProvider(opts.BaseURL, timeout), nil
	default:
		return nil, fmt.Errorf("translate: unknown provider %q", opts.Provider)
	}
}
