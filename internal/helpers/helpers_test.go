package helpers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmagar/vodgrab/internal/model"
)

func TestSanitise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "punctuation", in: "Clip: Epic Win!!", want: "Clip Epic Win"},
		{name: "path separators", in: "a/b\\c", want: "abc"},
		{name: "unicode letters", in: "José González 漢字", want: "José González 漢字"},
		{name: "emoji", in: "GG 🎉 ez", want: "GG  ez"},
		{name: "fractions and numerals", in: "Part ½ Ⅻ x²!", want: "Part ½ Ⅻ x²"},
		{name: "combining vowel signs", in: "हिन्दी वीडियो (HD)", want: "हिन्दी वीडियो HD"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitise(tt.in)
			if got != tt.want {
				t.Fatalf("unexpected sanitized title: got %q want %q", got, tt.want)
			}
			if again := Sanitise(got); again != got {
				t.Fatalf("sanitise is not idempotent: got %q want %q", again, got)
			}
		})
	}
}

func TestFileStemFallsBackToID(t *testing.T) {
	if got := FileStem("!!!", "AbC123-XyZ"); got != "AbC123XyZ" {
		t.Fatalf("unexpected stem: got %q want %q", got, "AbC123XyZ")
	}
	if got := FileStem("  Title  ", "id"); got != "Title" {
		t.Fatalf("unexpected stem: got %q want %q", got, "Title")
	}
	if got := FileStem("", "--"); got != "download" {
		t.Fatalf("unexpected stem: got %q want %q", got, "download")
	}
}

func TestOutputFile(t *testing.T) {
	cfg := &model.Config{OutPath: "downloads"}
	ref := model.MediaReference{Kind: model.SourceTwitchClip, ID: "slug"}
	want := filepath.Join("downloads", "twitch", "clips", "Clip Epic Win.mp4")
	if got := OutputFile(cfg, ref, "Clip: Epic Win!!"); got != want {
		t.Fatalf("unexpected output file: got %q want %q", got, want)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 850 * time.Millisecond, want: "850ms"},
		{in: 12 * time.Second, want: "12s"},
		{in: 3*time.Minute + 7*time.Second, want: "3m 7s"},
		{in: time.Hour + 4*time.Minute + 59*time.Second, want: "1h 4m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatElapsed(tt.in); got != tt.want {
				t.Fatalf("unexpected elapsed: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestMakeDirsWrapsIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write blocker: %v", err)
	}
	err := MakeDirs(filepath.Join(blocker, "child"))
	if !errors.Is(err, model.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if err := MakeDirs(filepath.Join(dir, "a", "b")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fi, err := os.Stat(filepath.Join(dir, "a", "b")); err != nil || !fi.IsDir() {
		t.Fatalf("expected nested directory, got %v", err)
	}
}
