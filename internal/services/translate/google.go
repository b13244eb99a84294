package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"redub/internal/language"
)

const googleDefaultBaseURL = "https://translate.googleapis.com"

// GoogleProvider uses the unofficial translate_a/single web endpoint. It
// needs no API key but handles one text per request, so calls are issued
// sequentially per segment.
type GoogleProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewGoogleProvider constructs the provider. baseURL is overridable for
// tests.
func NewGoogleProvider(baseURL string, timeout time.Duration) *GoogleProvider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = googleDefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &GoogleProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// Translate implements Provider.
func (p *GoogleProvider) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	sourceCode := language.ToISO2(source)
	if sourceCode == "" {
		sourceCode = "auto"
	}
	targetCode := language.ToISO2(target)
	if targetCode == "" {
		targetCode = target
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		translated, err := p.translateOne(ctx, text, sourceCode, targetCode)
		if err != nil {
			return nil, fmt.Errorf("google translate: segment %d: %w", i+1, err)
		}
		out[i] = translated
	}
	return out, nil
}

func (p *GoogleProvider) translateOne(ctx context.Context, text, source, target string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", source)
	query.Set("tl", target)
	query.Set("dt", "t")
	query.Set("q", text)
	endpoint := p.baseURL + "/translate_a/single?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseGooglePayload(body)
}

// parseGooglePayload walks the endpoint's nested-array response:
// [[["translated chunk","source chunk",...],...],...]. Chunks concatenate
// into the full translation.
func parseGooglePayload(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty payload")
	}
	chunks, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected payload shape")
	}

	var builder strings.Builder
	for _, raw := range chunks {
		chunk, ok := raw.([]any)
		if !ok || len(chunk) == 0 {
			continue
		}
		if text, ok := chunk[0].(string); ok {
			builder.WriteString(text)
		}
	}
	translated := strings.TrimSpace(builder.String())
	if translated == "" {
		return "", fmt.Errorf("no translation in payload")
	}
	return translated, nil
}
