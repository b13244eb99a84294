package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"redub/internal/language"
)

const (
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openAIDefaultModel   = "gpt-4o-mini"

	openAIRetryAttempts  = 3
	openAIRetryBaseDelay = 1 * time.Second
	openAIRetryMaxDelay  = 10 * time.Second
)

// OpenAIProvider translates through an OpenAI-compatible chat completions
// endpoint using a numbered-line protocol so one request covers a whole
// segment batch.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	sleeper    func(time.Duration)
}

// NewOpenAIProvider constructs the provider. Empty baseURL and model fall
// back to the public OpenAI API and gpt-4o-mini.
func NewOpenAIProvider(apiKey, baseURL, model string, timeout time.Duration) *OpenAIProvider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = openAIDefaultModel
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &OpenAIProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		sleeper:    time.Sleep,
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func (p *OpenAIProvider) WithSleeper(sleeper func(time.Duration)) {
	if sleeper != nil {
		p.sleeper = sleeper
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Translate implements Provider.
func (p *OpenAIProvider) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if p.apiKey == "" {
		return nil, errors.New("openai translate: api key required")
	}

	payload := chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: translatorPrompt(source, target)},
			{Role: "user", Content: numberLines(texts)},
		},
		Temperature: 0,
	}

	content, err := p.completeWithRetry(ctx, payload)
	if err != nil {
		return nil, err
	}

	translated, err := parseNumberedLines(content, len(texts))
	if err != nil {
		return nil, fmt.Errorf("openai translate: %w", err)
	}
	return translated, nil
}

func translatorPrompt(source, target string) string {
	targetName := language.DisplayName(target)
	var from string
	if strings.TrimSpace(source) != "" {
		from = " from " + language.DisplayName(source)
	}
	return fmt.Sprintf(
		"You are a professional subtitle translator. Translate each numbered line%s into %s. "+
			"Keep the numbering exactly as given, one translation per line, and output nothing else. "+
			"Preserve the tone and approximate length of each line so it can be spoken in the same time span.",
		from, targetName,
	)
}

func numberLines(texts []string) string {
	var builder strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, strings.TrimSpace(text))
	}
	return builder.String()
}

var numberedLinePattern = regexp.MustCompile(`^\s*(\d+)\s*[.):]\s*(.*)$`)

func parseNumberedLines(content string, count int) ([]string, error) {
	out := make([]string, count)
	seen := 0
	for _, line := range strings.Split(content, "\n") {
		match := numberedLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil || index < 1 || index > count {
			continue
		}
		if out[index-1] == "" {
			seen++
		}
		out[index-1] = strings.TrimSpace(match[2])
	}
	if seen != count {
		return nil, fmt.Errorf("expected %d numbered lines, parsed %d", count, seen)
	}
	return out, nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("openai translate: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (p *OpenAIProvider) completeWithRetry(ctx context.Context, payload chatCompletionRequest) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= openAIRetryAttempts; attempt++ {
		content, err := p.sendOnce(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if attempt == openAIRetryAttempts || !retryable(ctx, err) {
			return "", err
		}
		p.sleeper(backoffDelay(attempt))
	}
	return "", fmt.Errorf("openai translate: failed after %d attempts: %w", openAIRetryAttempts, lastErr)
}

func (p *OpenAIProvider) sendOnce(ctx context.Context, payload chatCompletionRequest) (string, error) {
	endpoint, err := url.JoinPath(p.baseURL, "chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai translate: build url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openai translate: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("openai translate: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai translate: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai translate: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("openai translate: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("openai translate: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai translate: empty choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai translate: empty content")
	}
	return content, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// attempt 1 -> base, attempt 2 -> base*2, ...
func backoffDelay(attempt int) time.Duration {
	delay := openAIRetryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > openAIRetryMaxDelay/2 {
			return openAIRetryMaxDelay
		}
		delay *= 2
	}
	return delay
}
