package preflight_test

import (
	"context"
	"strings"
	"testing"

	"redub/internal/config"
	"redub/internal/preflight"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	return &cfg
}

func TestCheckDirectoryAccess(t *testing.T) {
	cfg := testConfig(t)
	results := preflight.CheckDirectoryAccess(cfg)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, result := range results {
		if !result.Passed {
			t.Errorf("%s failed: %s", result.Name, result.Detail)
		}
	}
}

func TestCheckDirectoryAccessMissing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.WorkDir = "/nonexistent/redub-test-dir"
	results := preflight.CheckDirectoryAccess(cfg)
	if results[0].Passed {
		t.Error("expected failure for missing work directory")
	}
	if results[0].Optional {
		t.Error("directory access is a hard check")
	}
}

func TestCheckDirectoryAccessEmptyPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.LogDir = ""
	results := preflight.CheckDirectoryAccess(cfg)
	if results[1].Passed {
		t.Error("expected failure for unconfigured log directory")
	}
	if results[1].Detail != "path not configured" {
		t.Errorf("detail = %q", results[1].Detail)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	cfg := testConfig(t)
	result := preflight.CheckDiskSpace(cfg)
	if !strings.Contains(result.Detail, "GiB") {
		t.Errorf("detail = %q, want free-space figure", result.Detail)
	}
}

func TestCheckTranslationConfig(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		passed   bool
	}{
		{"auto without key", "auto", "", true},
		{"google", "google", "", true},
		{"openai with key", "openai", "sk-test", true},
		{"openai without key", "openai", "", false},
		{"unknown provider", "babelfish", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Translation.Provider = tt.provider
			cfg.Translation.APIKey = tt.apiKey
			result := preflight.CheckTranslationConfig(cfg)
			if result.Passed != tt.passed {
				t.Errorf("Passed = %v, want %v (%s)", result.Passed, tt.passed, result.Detail)
			}
		})
	}
}

func TestCheckSystemDepsDemucsOptional(t *testing.T) {
	cfg := testConfig(t)
	cfg.Separation.DemucsBin = "definitely-not-a-real-binary-xyz"
	results := preflight.CheckSystemDeps(context.Background(), cfg)

	var demucs *preflight.Result
	for i := range results {
		if results[i].Name == "demucs" {
			demucs = &results[i]
		}
	}
	if demucs == nil {
		t.Fatal("demucs check missing")
	}
	if demucs.Passed {
		t.Error("expected demucs to be unavailable")
	}
	if !demucs.Optional {
		t.Error("demucs must be optional")
	}
	if demucs.Failed() {
		t.Error("optional miss must not count as a hard failure")
	}
}

func TestHardFailures(t *testing.T) {
	results := []preflight.Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false, Optional: true},
		{Name: "c", Passed: false},
	}
	failures := preflight.HardFailures(results)
	if len(failures) != 1 || failures[0].Name != "c" {
		t.Errorf("failures = %+v", failures)
	}
}

func TestSummarize(t *testing.T) {
	results := []preflight.Result{
		{Name: "Work directory", Passed: true, Detail: "/tmp/w"},
		{Name: "whisper", Passed: false, Detail: "binary not found"},
		{Name: "demucs", Passed: false, Optional: true, Detail: "binary not found"},
	}
	out := preflight.Summarize(results)
	if !strings.Contains(out, "ok") || !strings.Contains(out, "FAIL") || !strings.Contains(out, "warn") {
		t.Errorf("summary missing markers:\n%s", out)
	}
	if !strings.Contains(out, "Work directory: /tmp/w") {
		t.Errorf("summary missing detail:\n%s", out)
	}
}
