package separation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// InfoFileName is the metadata record written alongside the output files.
const InfoFileName = "separation_info.json"

// Info is the persisted record of a finished separation.
type Info struct {
	OriginalAudioPath string    `json:"original_audio_path"`
	VocalsPath        string    `json:"vocals_path"`
	AccompanimentPath string    `json:"accompaniment_path"`
	Method            string    `json:"method"`
	SeparatedAt       time.Time `json:"separated_at"`
	Quality           Metrics   `json:"quality"`
}

// WriteInfo persists the metadata record into the separation directory.
func WriteInfo(dir string, info Info) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal separation info: %w", err)
	}
	path := filepath.Join(dir, InfoFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write separation info: %w", err)
	}
	return nil
}

// ReadInfo loads a previously written metadata record.
func ReadInfo(dir string) (Info, error) {
	data, err := os.ReadFile(filepath.Join(dir, InfoFileName))
	if err != nil {
		return Info{}, fmt.Errorf("read separation info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("parse separation info: %w", err)
	}
	return info, nil
}
