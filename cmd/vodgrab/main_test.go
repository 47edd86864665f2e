package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmagar/vodgrab/internal/model"
	"github.com/jmagar/vodgrab/internal/testutil"
	"github.com/jmagar/vodgrab/internal/ui"
)

func writeConfig(t *testing.T, cfg model.Config) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunExitCodes(t *testing.T) {
	testutil.WithTempHome(t)
	testutil.ChdirTemp(t)

	tests := []struct {
		name     string
		argv     []string
		wantCode int
		wantOut  string
	}{
		{name: "no url prints usage", argv: nil, wantCode: 0, wantOut: "Usage:"},
		{name: "unsupported url", argv: []string{"https://example.com/video/1"}, wantCode: 0, wantOut: "Unsupported url"},
		{name: "tiktok not implemented", argv: []string{"https://www.tiktok.com/@user/video/7000000000000000000"}, wantCode: 0, wantOut: "Not supported yet"},
		{name: "unknown flag", argv: []string{"--nope"}, wantCode: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var code int
			out := testutil.CaptureStdout(t, func() {
				code = run(context.Background(), tt.argv, io.Discard)
			})
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (output %q)", code, tt.wantCode, out)
			}
			out = ui.StripAnsiCodes(out)
			if tt.wantOut != "" && !strings.Contains(out, tt.wantOut) {
				t.Fatalf("output %q does not contain %q", out, tt.wantOut)
			}
		})
	}
}

func TestRunDownloadsAndReportsPath(t *testing.T) {
	testutil.WithTempHome(t)
	testutil.ChdirTemp(t)

	up := testutil.NewUpstream(t, nil)
	up.SetRoute("/api/v1/videos/abc123", testutil.Route{
		Body: `{"title":"My Short!","videoId":"abc123","adaptiveFormats":[{"bitrate":100,"url":"` + up.URL + `/media"}]}`,
	})
	up.SetRoute("/media", testutil.Route{Body: "0123456789"})

	outDir := t.TempDir()
	cfgPath := writeConfig(t, model.Config{
		OutPath: outDir,
		YouTube: model.YouTubeConfig{APIBase: up.URL},
	})

	var code int
	out := testutil.CaptureStdout(t, func() {
		code = run(context.Background(), []string{"-c", cfgPath, "https://www.youtube.com/shorts/abc123"}, io.Discard)
	})
	if code != 0 {
		t.Fatalf("exit code = %d, output %q", code, out)
	}
	want := filepath.Join(outDir, "youtube", "shorts", "My Short.mp4")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "0123456789" {
		t.Fatalf("output file = %q", data)
	}
	out = ui.StripAnsiCodes(out)
	for _, s := range []string{"Got download url in", "Downloading YouTube short: My Short!", "Saved to: " + want} {
		if !strings.Contains(out, s) {
			t.Errorf("stdout missing %q:\n%s", s, out)
		}
	}
}

func TestRunUpstreamFailureExitsNonZero(t *testing.T) {
	testutil.WithTempHome(t)
	testutil.ChdirTemp(t)

	up := testutil.NewUpstream(t, map[string]testutil.Route{
		"/api/v1/videos/abc123": {Status: 500},
	})
	outDir := t.TempDir()
	cfgPath := writeConfig(t, model.Config{
		OutPath: outDir,
		YouTube: model.YouTubeConfig{APIBase: up.URL},
	})

	code := run(context.Background(), []string{"--config", cfgPath, "https://youtu.be/abc123"}, io.Discard)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if entries, _ := os.ReadDir(outDir); len(entries) != 0 {
		t.Fatalf("expected no output, found %v", entries)
	}
}

func TestRunSendsGotifyNotification(t *testing.T) {
	testutil.WithTempHome(t)
	testutil.ChdirTemp(t)

	up := testutil.NewUpstream(t, nil)
	up.SetRoute("/api/v1/videos/xyz", testutil.Route{
		Body: `{"title":"Clip","videoId":"xyz","adaptiveFormats":[{"bitrate":1,"url":"` + up.URL + `/media"}]}`,
	})
	up.SetRoute("/media", testutil.Route{Body: "x"})
	up.SetRoute("/message", testutil.Route{Body: `{}`})

	cfgPath := writeConfig(t, model.Config{
		OutPath: t.TempDir(),
		YouTube: model.YouTubeConfig{APIBase: up.URL},
		Notify:  model.NotifyConfig{GotifyURL: up.URL, GotifyToken: "tok"},
	})

	var code int
	testutil.CaptureStdout(t, func() {
		code = run(context.Background(), []string{"-c", cfgPath, "https://www.youtube.com/watch?v=xyz"}, io.Discard)
	})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	hits := up.Hits()
	if len(hits) == 0 || hits[len(hits)-1] != "/message" {
		t.Fatalf("expected a notification after the download, hits %v", hits)
	}
}
