package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"redub/internal/project"
)

func TestCreateLaysOutStageDirs(t *testing.T) {
	work := t.TempDir()
	proj, err := project.Create(work, "My Test Video", "https://example.com/v/1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if filepath.Base(proj.Root) != "001_My_Test_Video" {
		t.Errorf("root = %s", proj.Root)
	}
	for _, dir := range []string{
		proj.SourceDir(), proj.AudioDir(), proj.SeparatedDir(),
		proj.TranscriptDir(), proj.TranslationDir(), proj.DubDir(), proj.FinalDir(),
	} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("missing stage dir %s: %v", dir, err)
		}
	}
}

func TestCreateNumbersSequentially(t *testing.T) {
	work := t.TempDir()
	first, err := project.Create(work, "First", "")
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second, err := project.Create(work, "Second", "")
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if filepath.Base(first.Root) != "001_First" {
		t.Errorf("first = %s", first.Root)
	}
	if filepath.Base(second.Root) != "002_Second" {
		t.Errorf("second = %s", second.Root)
	}
}

func TestCreateSkipsForeignDirectories(t *testing.T) {
	work := t.TempDir()
	if err := os.MkdirAll(filepath.Join(work, "005_Existing"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(work, "not-a-project"), 0o755); err != nil {
		t.Fatal(err)
	}
	proj, err := project.Create(work, "Next", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if filepath.Base(proj.Root) != "006_Next" {
		t.Errorf("root = %s", proj.Root)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	work := t.TempDir()
	proj, err := project.Create(work, "Metadata Check", "https://example.com/v/2")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	meta, err := proj.ReadMetadata()
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if meta.Title != "Metadata Check" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.SourceURL != "https://example.com/v/2" {
		t.Errorf("SourceURL = %q", meta.SourceURL)
	}
	if meta.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestOpenRecoversTitle(t *testing.T) {
	work := t.TempDir()
	created, err := project.Create(work, "Reopen Me", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	opened, err := project.Open(created.Root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened.Title != "Reopen Me" {
		t.Errorf("Title = %q", opened.Title)
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := project.Open(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing project")
	}
}

func TestDirectoryTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Test Video", "My_Test_Video"},
		{"a/b\\c:d", "A-B-C-D"},
		{"  spaced   out  ", "Spaced_Out"},
		{"ALL CAPS TITLE", "All_Caps_Title"},
		{"", "Untitled"},
		{"???", "Untitled"},
	}
	for _, tt := range tests {
		if got := project.DirectoryTitle(tt.in); got != tt.want {
			t.Errorf("DirectoryTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
