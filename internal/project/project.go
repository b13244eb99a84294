// Package project lays out the per-item working directory that holds every
// pipeline artifact, from the downloaded video through the final dubbed file.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"redub/internal/textutil"
)

// Stage subdirectories, created in pipeline order.
const (
	DirSource      = "01_source"
	DirAudio       = "02_audio"
	DirSeparated   = "03_separated"
	DirTranscript  = "04_transcript"
	DirTranslation = "05_translation"
	DirDub         = "06_dub"
	DirFinal       = "07_final"
)

// MetadataFileName is the project-level metadata file written at creation.
const MetadataFileName = "project.json"

var stageDirs = []string{
	DirSource,
	DirAudio,
	DirSeparated,
	DirTranscript,
	DirTranslation,
	DirDub,
	DirFinal,
}

var titleCaser = cases.Title(language.Und)

// Project describes an item's working directory tree.
type Project struct {
	Root  string
	Title string
}

// Metadata records provenance for a project directory.
type Metadata struct {
	Title     string    `json:"title"`
	SourceURL string    `json:"source_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Create builds a numbered project directory under workDir for the given
// title and populates the stage subdirectories. Directory names take the
// form NNN_Title_Words, numbered after the highest existing project.
func Create(workDir, title, sourceURL string) (*Project, error) {
	if workDir == "" {
		return nil, fmt.Errorf("work directory not configured")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}

	next, err := nextProjectNumber(workDir)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%03d_%s", next, DirectoryTitle(title))
	root := filepath.Join(workDir, name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}
	for _, sub := range stageDirs {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create stage directory %s: %w", sub, err)
		}
	}

	project := &Project{Root: root, Title: title}
	meta := Metadata{Title: title, SourceURL: sourceURL, CreatedAt: time.Now().UTC()}
	if err := project.WriteMetadata(meta); err != nil {
		return nil, err
	}
	return project, nil
}

// Open wraps an existing project directory without touching the filesystem
// beyond a stat check.
func Open(root string) (*Project, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open project: %s is not a directory", root)
	}
	project := &Project{Root: root}
	if meta, err := project.ReadMetadata(); err == nil {
		project.Title = meta.Title
	}
	return project, nil
}

// StageDir returns the absolute path of a stage subdirectory.
func (p *Project) StageDir(name string) string {
	return filepath.Join(p.Root, name)
}

// SourceDir through FinalDir name the per-stage artifact directories.
func (p *Project) SourceDir() string      { return p.StageDir(DirSource) }
func (p *Project) AudioDir() string       { return p.StageDir(DirAudio) }
func (p *Project) SeparatedDir() string   { return p.StageDir(DirSeparated) }
func (p *Project) TranscriptDir() string  { return p.StageDir(DirTranscript) }
func (p *Project) TranslationDir() string { return p.StageDir(DirTranslation) }
func (p *Project) DubDir() string         { return p.StageDir(DirDub) }
func (p *Project) FinalDir() string       { return p.StageDir(DirFinal) }

// WriteMetadata persists project metadata as indented JSON.
func (p *Project) WriteMetadata(meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project metadata: %w", err)
	}
	data = append(data, '\n')
	path := filepath.Join(p.Root, MetadataFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project metadata: %w", err)
	}
	return nil
}

// ReadMetadata loads the project metadata file.
func (p *Project) ReadMetadata() (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(p.Root, MetadataFileName))
	if err != nil {
		return meta, fmt.Errorf("read project metadata: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("decode project metadata: %w", err)
	}
	return meta, nil
}

// DirectoryTitle converts a free-form title into a filesystem-safe,
// underscore-joined, title-cased segment. Empty or fully unsafe titles
// become "Untitled".
func DirectoryTitle(title string) string {
	sanitized := textutil.SanitizeFileName(title)
	fields := strings.FieldsFunc(sanitized, func(r rune) bool {
		return r == ' ' || r == '_' || r == '.' || r == ','
	})
	if len(fields) == 0 {
		return "Untitled"
	}
	for i, field := range fields {
		fields[i] = titleCaser.String(strings.ToLower(field))
	}
	return strings.Join(fields, "_")
}

// nextProjectNumber scans workDir for NNN_ prefixed entries and returns the
// next free number.
func nextProjectNumber(workDir string) (int, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return 0, fmt.Errorf("scan work directory: %w", err)
	}
	highest := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) < 4 || name[3] != '_' {
			continue
		}
		var number int
		if _, err := fmt.Sscanf(name[:3], "%03d", &number); err != nil {
			continue
		}
		if number > highest {
			highest = number
		}
	}
	return highest + 1, nil
}
