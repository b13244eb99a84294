// Package preflight validates the runtime environment before the workflow
// starts: directory access, disk space, external binaries, and translation
// provider configuration.
package preflight

import (
	"context"
	"fmt"
	"strings"

	"redub/internal/config"
	"redub/internal/deps"
)

// Result captures the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Failed reports whether the result represents a hard failure.
func (r Result) Failed() bool {
	return !r.Passed && !r.Optional
}

// RunAll executes every preflight check and returns the combined results.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	results := make([]Result, 0, 16)
	results = append(results, CheckDirectoryAccess(cfg)...)
	results = append(results, CheckDiskSpace(cfg))
	results = append(results, CheckTranslationConfig(cfg))
	results = append(results, CheckSystemDeps(ctx, cfg)...)
	return results
}

// HardFailures filters results down to the blocking ones.
func HardFailures(results []Result) []Result {
	var failures []Result
	for _, result := range results {
		if result.Failed() {
			failures = append(failures, result)
		}
	}
	return failures
}

// Summarize renders results into a short multi-line report.
func Summarize(results []Result) string {
	var builder strings.Builder
	for _, result := range results {
		marker := "ok"
		if !result.Passed {
			marker = "FAIL"
			if result.Optional {
				marker = "warn"
			}
		}
		fmt.Fprintf(&builder, "[%-4s] %s", marker, result.Name)
		if result.Detail != "" {
			fmt.Fprintf(&builder, ": %s", result.Detail)
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// CheckSystemDeps probes the external binaries the pipeline shells out to.
// Demucs is optional because the built-in separation engine covers its role.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []Result {
	requirements := []deps.Requirement{
		{Name: "yt-dlp", Command: cfg.Download.YtDlpBin, Description: "video download"},
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "audio extraction and muxing"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "media inspection"},
		{Name: "whisper", Command: cfg.Transcription.WhisperBin, Description: "speech transcription"},
		{Name: "edge-tts", Command: cfg.Synthesis.EdgeTTSBin, Description: "speech synthesis"},
		{Name: "demucs", Command: cfg.Separation.DemucsBin, Description: "model separation; built-in engine used when absent", Optional: true},
	}

	statuses := deps.CheckBinaries(requirements)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{
			Name:     status.Name,
			Passed:   status.Available,
			Optional: status.Optional,
			Detail:   status.Detail,
		}
		if !status.Available && status.Optional {
			result.Detail = strings.TrimSpace(status.Detail + "; " + status.Description)
		}
		results = append(results, result)
	}
	return results
}

// CheckTranslationConfig verifies the translation provider is usable.
func CheckTranslationConfig(cfg *config.Config) Result {
	result := Result{Name: "Translation provider"}
	provider := strings.ToLower(strings.TrimSpace(cfg.Translation.Provider))
	switch provider {
	case "", "auto", "google":
		result.Passed = true
		if provider != "openai" && cfg.Translation.APIKey == "" {
			result.Detail = "using Google web endpoint (no API key configured)"
		} else {
			result.Detail = "OpenAI API key configured"
		}
	case "openai":
		if cfg.Translation.APIKey == "" {
			result.Detail = "provider is openai but translation.api_key is empty"
			return result
		}
		result.Passed = true
	default:
		result.Detail = fmt.Sprintf("unknown provider %q", cfg.Translation.Provider)
	}
	return result
}
