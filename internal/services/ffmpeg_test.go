package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clipsmith/clipsmith/internal/models"
)

func TestBuildSubtitleFilter(t *testing.T) {
	cues := []models.SubtitleCue{
		{StartSeconds: 0, EndSeconds: 2.5, Text: "first cue"},
		{StartSeconds: 0, EndSeconds: 0, Text: "degenerate fallback"},
		{StartSeconds: 2.5, EndSeconds: 5, Text: "second cue"},
	}

	filter := BuildSubtitleFilter(cues, models.SubtitleBottom, Resolution{1280, 720})

	if n := strings.Count(filter, "drawtext"); n != 2 {
		t.Errorf("expected 2 drawtext expressions, got %d in %q", n, filter)
	}
	if strings.Contains(filter, "degenerate") {
		t.Error("non-renderable cue leaked into the filter")
	}
	if !strings.Contains(filter, "y=570") {
		t.Errorf("bottom position on 720p should anchor at y=570: %q", filter)
	}
	if !strings.Contains(filter, "fontsize=40") {
		t.Errorf("720p font size should be 40: %q", filter)
	}
	if !strings.Contains(filter, "between(t\\,0.000\\,2.500)") {
		t.Errorf("missing enable window for first cue: %q", filter)
	}
}

func TestBuildSubtitleFilterEmpty(t *testing.T) {
	if got := BuildSubtitleFilter(nil, models.SubtitleBottom, Resolution{1280, 720}); got != "" {
		t.Errorf("expected empty filter for no cues, got %q", got)
	}

	onlyDegenerate := []models.SubtitleCue{{StartSeconds: 0, EndSeconds: 0, Text: "text"}}
	if got := BuildSubtitleFilter(onlyDegenerate, models.SubtitleBottom, Resolution{1280, 720}); got != "" {
		t.Errorf("expected empty filter when nothing is renderable, got %q", got)
	}
}

func TestEscapeDrawtext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain words", "plain words"},
		{"ratio 16:9", "ratio 16\\:9"},
		{"100% sure", "100\\% sure"},
		{"line\nbreak", "line break"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		if got := escapeDrawtext(tt.in); got != tt.want {
			t.Errorf("escapeDrawtext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(2.5); got != "2.500" {
		t.Errorf("formatSeconds(2.5) = %q", got)
	}
	if got := formatSeconds(0); got != "0.000" {
		t.Errorf("formatSeconds(0) = %q", got)
	}
}

func TestCreateTempFileAndCleanup(t *testing.T) {
	svc := NewFFmpegService(t.TempDir())

	path := svc.CreateTempFile("scratch.mp4")
	if filepath.Dir(path) != svc.TempDir() {
		t.Errorf("temp file %q not inside temp dir %q", path, svc.TempDir())
	}

	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	svc.Cleanup(path, "", filepath.Join(svc.TempDir(), "never-existed.mp4"))

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Cleanup left the temp file behind")
	}
}

func TestRandomTokenUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := randomToken()
		if len(tok) != 12 {
			t.Fatalf("token length = %d, want 12", len(tok))
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}
