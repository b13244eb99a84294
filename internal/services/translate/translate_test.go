package translate_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"redub/internal/services/translate"
)

func TestNewSelectsProvider(t *testing.T) {
	tests := []struct {
		name    string
		opts    translate.Options
		want    string
		wantErr bool
	}{
		{"explicit openai", translate.Options{Provider: "openai", APIKey: "sk-x"}, "openai", false},
		{"openai without key", translate.Options{Provider: "openai"}, "", true},
		{"explicit google", translate.Options{Provider: "google"}, "google", false},
		{"auto with key", translate.Options{Provider: "auto", APIKey: "sk-x"}, "openai", false},
		{"auto without key", translate.Options{Provider: "auto"}, "google", false},
		{"empty provider", translate.Options{}, "google", false},
		{"unknown", translate.Options{Provider: "babelfish"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := translate.New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if provider.Name() != tt.want {
				t.Errorf("Name = %q, want %q", provider.Name(), tt.want)
			}
		})
	}
}

func openAIResponse(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestOpenAITranslate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, openAIResponse("1. Hola mundo\n2. Adiós"))
	}))
	defer server.Close()

	provider := translate.NewOpenAIProvider("sk-test", server.URL, "", time.Second)
	got, err := provider.Translate(context.Background(), []string{"Hello world", "Goodbye"}, "en", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(got) != 2 || got[0] != "Hola mundo" || got[1] != "Adiós" {
		t.Errorf("got = %v", got)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth = %q", gotAuth)
	}
	messages, _ := gotBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %v", gotBody["messages"])
	}
	user, _ := messages[1].(map[string]any)
	if content, _ := user["content"].(string); !strings.Contains(content, "1. Hello world") {
		t.Errorf("user content = %q", content)
	}
}

func TestOpenAITranslateRetriesOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, openAIResponse("1. Hola"))
	}))
	defer server.Close()

	provider := translate.NewOpenAIProvider("sk-test", server.URL, "", time.Second)
	provider.WithSleeper(func(time.Duration) {})

	got, err := provider.Translate(context.Background(), []string{"Hello"}, "en", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if got[0] != "Hola" {
		t.Errorf("got = %v", got)
	}
}

func TestOpenAITranslateNoRetryOnClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := translate.NewOpenAIProvider("sk-bad", server.URL, "", time.Second)
	provider.WithSleeper(func(time.Duration) {})

	if _, err := provider.Translate(context.Background(), []string{"Hello"}, "en", "es"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestOpenAITranslateCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, openAIResponse("1. Hola"))
	}))
	defer server.Close()

	provider := translate.NewOpenAIProvider("sk-test", server.URL, "", time.Second)
	if _, err := provider.Translate(context.Background(), []string{"Hello", "Goodbye"}, "en", "es"); err == nil {
		t.Fatal("expected line-count error")
	}
}

func TestGoogleTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_a/single" {
			t.Errorf("path = %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("client") != "gtx" || query.Get("dt") != "t" {
			t.Errorf("query = %v", query)
		}
		if query.Get("tl") != "es" {
			t.Errorf("tl = %q", query.Get("tl"))
		}
		// Two chunks concatenate into the full translation.
		fmt.Fprint(w, `[[["Hola ","Hello ",null],["mundo","world",null]],null,"en"]`)
	}))
	defer server.Close()

	provider := translate.NewGoogleProvider(server.URL, time.Second)
	got, err := provider.Translate(context.Background(), []string{"Hello world"}, "en", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got[0] != "Hola mundo" {
		t.Errorf("got = %v", got)
	}
}

func TestGoogleTranslateEmptyInputPassesThrough(t *testing.T) {
	provider := translate.NewGoogleProvider("http://127.0.0.1:0", time.Second)
	got, err := provider.Translate(context.Background(), []string{"   "}, "en", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got[0] != "" {
		t.Errorf("got = %v", got)
	}
}

func TestGoogleTranslateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	provider := translate.NewGoogleProvider(server.URL, time.Second)
	if _, err := provider.Translate(context.Background(), []string{"Hello"}, "en", "es"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGoogleTranslateBadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"unexpected":"shape"}`)
	}))
	defer server.Close()

	provider := translate.NewGoogleProvider(server.URL, time.Second)
	if _, err := provider.Translate(context.Background(), []string{"Hello"}, "en", "es"); err == nil {
		t.Fatal("expected payload error")
	}
}
