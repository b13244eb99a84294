package main

import (
	"testing"
)

func TestDepsReportsAllTools(t *testing.T) {
	env := setupCLITestEnv(t)

	// The command errors when required binaries are absent; the report is
	// still printed either way.
	out, _, _ := runCLI(t, []string{"deps"}, env.configPath)
	for _, name := range []string{"yt-dlp", "FFmpeg", "FFprobe", "whisper", "edge-tts", "demucs"} {
		requireContains(t, out, name)
	}
}
