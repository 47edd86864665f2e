package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jmagar/vodgrab/internal/api"
	"github.com/jmagar/vodgrab/internal/config"
	"github.com/jmagar/vodgrab/internal/download"
	"github.com/jmagar/vodgrab/internal/model"
	"github.com/jmagar/vodgrab/internal/testutil"
)

type stubResolver struct {
	mu    sync.Mutex
	media *model.ResolvedMedia
	err   error
	refs  []model.MediaReference
}

func (s *stubResolver) Resolve(_ context.Context, ref model.MediaReference) (*model.ResolvedMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, ref)
	if s.err != nil {
		return nil, s.err
	}
	media := *s.media
	return &media, nil
}

type countingSink struct {
	mu       sync.Mutex
	total    int64
	done     int64
	finished bool
}

func (c *countingSink) SetTotal(n int64) { c.mu.Lock(); c.total = n; c.mu.Unlock() }
func (c *countingSink) Advance(n int64)  { c.mu.Lock(); c.done += n; c.mu.Unlock() }
func (c *countingSink) Finish()          { c.mu.Lock(); c.finished = true; c.mu.Unlock() }

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := &model.Config{OutPath: t.TempDir(), SegmentConcurrency: 3}
	config.ApplyDefaults(cfg)
	return cfg
}

func newTestPipeline(cfg *model.Config, resolver Resolver, deps Deps) *Pipeline {
	client := api.NewClient(api.ClientOptions{RequestsPerSecond: 1000, Burst: 1000})
	executor := download.NewExecutor(download.Options{Concurrency: cfg.SegmentConcurrency})
	return New(cfg, resolver, client, executor, deps, nil)
}

const mediaPlaylist = "#EXTM3U\n" +
	"#EXT-X-VERSION:3\n" +
	"#EXT-X-TARGETDURATION:10\n" +
	"#EXT-X-MEDIA-SEQUENCE:0\n" +
	"#EXTINF:10.000,\n0.ts\n" +
	"#EXTINF:10.000,\n1.ts\n" +
	"#EXTINF:10.000,\n2.ts\n" +
	"#EXTINF:10.000,\n3.ts\n" +
	"#EXT-X-ENDLIST\n"

func TestRunTwitchVideoFollowsVariantPlaylist(t *testing.T) {
	up := testutil.NewUpstream(t, map[string]testutil.Route{
		"/vod/master.m3u8": {Body: "#EXTM3U\n" +
			"#EXT-X-STREAM-INF:BANDWIDTH=600000,RESOLUTION=640x360\n" +
			"360p30/index-dvr.m3u8\n" +
			"#EXT-X-STREAM-INF:BANDWIDTH=6000000,RESOLUTION=1920x1080\n" +
			"chunked/index-dvr.m3u8\n"},
		"/vod/chunked/index-dvr.m3u8": {Body: mediaPlaylist},
		"/vod/chunked/0.ts":           {Body: "aa"},
		"/vod/chunked/1.ts":           {Body: "bb"},
		"/vod/chunked/2.ts":           {Body: "cc"},
		"/vod/chunked/3.ts":           {Body: "dd"},
	})

	cfg := testConfig(t)
	resolver := &stubResolver{media: &model.ResolvedMedia{
		Title: "Speedrun: Any% (WR?)",
		Plan:  model.ManifestPlan(up.URL + "/vod/master.m3u8"),
	}}
	sink := &countingSink{}
	var resolvedPlan model.FetchPlan
	var started string
	deps := Deps{
		OnResolved: func(_ model.MediaReference, media *model.ResolvedMedia, _ time.Duration) {
			resolvedPlan = media.Plan
		},
		OnDownloadStart: func(_ model.MediaReference, _ string, dest string) { started = dest },
		NewSink:         func(model.PlanKind) download.Sink { return sink },
	}

	res, err := newTestPipeline(cfg, resolver, deps).Run(context.Background(), "https://www.twitch.tv/videos/123456789")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantPath := filepath.Join(cfg.OutPath, "twitch", "videos", "Speedrun Any WR.mp4")
	if res.Path != wantPath || started != wantPath {
		t.Fatalf("path = %q (start hook %q), want %q", res.Path, started, wantPath)
	}
	got, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "aabbccdd" {
		t.Fatalf("output = %q, want %q", got, "aabbccdd")
	}
	if res.Bytes != 8 || res.Plan != model.PlanSegmented {
		t.Fatalf("result = %+v", res)
	}
	if resolvedPlan.Kind != model.PlanSegmented || len(resolvedPlan.Segments) != 4 {
		t.Fatalf("OnResolved plan = %+v", resolvedPlan)
	}
	if sink.total != 4 || sink.done != 4 || !sink.finished {
		t.Fatalf("sink = total %d done %d finished %v", sink.total, sink.done, sink.finished)
	}
	if ref := resolver.refs[0]; ref.Kind != model.SourceTwitchVideo || ref.ID != "123456789" {
		t.Fatalf("resolver got %+v", ref)
	}
	hits := up.Hits()
	if hits[0] != "/vod/master.m3u8" || hits[1] != "/vod/chunked/index-dvr.m3u8" {
		t.Fatalf("playlist fetch order = %v", hits[:2])
	}
	for _, h := range hits {
		if h == "/vod/360p30/index-dvr.m3u8" {
			t.Fatal("lower bandwidth variant was fetched")
		}
	}
}

func TestRunSegmentedPlanSkipsManifestStage(t *testing.T) {
	up := testutil.NewUpstream(t, map[string]testutil.Route{
		"/a.ts": {Body: "1"},
		"/b.ts": {Body: "2"},
		"/c.ts": {Body: "3"},
	})
	cfg := testConfig(t)
	resolver := &stubResolver{media: &model.ResolvedMedia{
		Title: "vod",
		Plan:  model.SegmentedPlan([]string{up.URL + "/a.ts", up.URL + "/b.ts", up.URL + "/c.ts"}),
	}}

	res, err := newTestPipeline(cfg, resolver, Deps{}).Run(context.Background(), "https://twitch.tv/videos/42")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := os.ReadFile(res.Path)
	if string(got) != "123" {
		t.Fatalf("output = %q, want %q", got, "123")
	}
}

func TestRunClipIsProgressive(t *testing.T) {
	up := testutil.NewUpstream(t, map[string]testutil.Route{
		"/clip.mp4": {Body: "clip-bytes"},
	})
	cfg := testConfig(t)
	resolver := &stubResolver{media: &model.ResolvedMedia{
		Title: "Clip: Epic Win!!",
		Plan:  model.ProgressivePlan(up.URL + "/clip.mp4?sig=abc&token=%7B%7D"),
	}}
	sink := &countingSink{}

	res, err := newTestPipeline(cfg, resolver, Deps{
		NewSink: func(kind model.PlanKind) download.Sink {
			if kind != model.PlanProgressive {
				t.Errorf("sink requested for %s", kind)
			}
			return sink
		},
	}).Run(context.Background(), "https://clips.twitch.tv/AbC123-XyZ")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := filepath.Join(cfg.OutPath, "twitch", "clips", "Clip Epic Win.mp4"); res.Path != want {
		t.Fatalf("path = %q, want %q", res.Path, want)
	}
	if sink.total != int64(len("clip-bytes")) || sink.done != sink.total {
		t.Fatalf("sink = total %d done %d", sink.total, sink.done)
	}
}

func TestRunStageErrors(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		resolver  *stubResolver
		routes    map[string]testutil.Route
		wantStage Stage
		wantErr   error
	}{
		{
			name:      "invalid url",
			url:       "https://example.com/watch?v=nope",
			resolver:  &stubResolver{},
			wantStage: StageClassify,
			wantErr:   model.ErrInvalidURL,
		},
		{
			name:      "resolver upstream failure",
			url:       "https://clips.twitch.tv/AbC123-XyZ",
			resolver:  &stubResolver{err: model.ErrUpstream},
			wantStage: StageResolve,
			wantErr:   model.ErrUpstream,
		},
		{
			name: "malformed playlist",
			url:  "https://www.twitch.tv/videos/1",
			resolver: &stubResolver{media: &model.ResolvedMedia{
				Title: "x", Plan: model.ManifestPlan("/bad.m3u8"),
			}},
			routes:    map[string]testutil.Route{"/bad.m3u8": {Body: "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=abc\nv.m3u8\n"}},
			wantStage: StageManifest,
			wantErr:   model.ErrManifestParse,
		},
		{
			name: "playlist fetch failure",
			url:  "https://www.twitch.tv/videos/1",
			resolver: &stubResolver{media: &model.ResolvedMedia{
				Title: "x", Plan: model.ManifestPlan("/gone.m3u8"),
			}},
			routes:    map[string]testutil.Route{"/gone.m3u8": {Status: 403}},
			wantStage: StageManifest,
			wantErr:   model.ErrUpstream,
		},
		{
			name: "segment failure",
			url:  "https://www.twitch.tv/videos/1",
			resolver: &stubResolver{media: &model.ResolvedMedia{
				Title: "x", Plan: model.SegmentedPlan([]string{"/0.ts", "/1.ts"}),
			}},
			routes:    map[string]testutil.Route{"/0.ts": {Body: "0"}, "/1.ts": {Status: 500}},
			wantStage: StageDownload,
			wantErr:   model.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := testutil.NewUpstream(t, tt.routes)
			if tt.resolver.media != nil {
				plan := &tt.resolver.media.Plan
				if plan.URL != "" {
					plan.URL = up.URL + plan.URL
				}
				for i, s := range plan.Segments {
					plan.Segments[i] = up.URL + s
				}
			}
			cfg := testConfig(t)

			_, err := newTestPipeline(cfg, tt.resolver, Deps{}).Run(context.Background(), tt.url)
			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("error %v is not a StageError", err)
			}
			if se.Stage != tt.wantStage {
				t.Fatalf("stage = %s, want %s", se.Stage, tt.wantStage)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error %v does not wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunNestedMastersAreBounded(t *testing.T) {
	loop := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=100000\nloop.m3u8\n"
	up := testutil.NewUpstream(t, map[string]testutil.Route{"/loop.m3u8": {Body: loop}})
	cfg := testConfig(t)
	resolver := &stubResolver{media: &model.ResolvedMedia{Title: "x", Plan: model.ManifestPlan(up.URL + "/loop.m3u8")}}

	_, err := newTestPipeline(cfg, resolver, Deps{}).Run(context.Background(), "https://www.twitch.tv/videos/7")
	if !errors.Is(err, model.ErrManifestParse) {
		t.Fatalf("expected ErrManifestParse, got %v", err)
	}
	if got := len(up.Hits()); got != maxManifestDepth {
		t.Fatalf("playlist fetches = %d, want %d", got, maxManifestDepth)
	}
}

func TestRunYouTubeEndToEnd(t *testing.T) {
	up := testutil.NewUpstream(t, nil)
	up.SetRoute("/api/v1/videos/dQw4w9WgXcQ", testutil.Route{
		Header: map[string]string{"Content-Type": "application/json"},
		Body: `{"title":"Never: Gonna","videoId":"dQw4w9WgXcQ","adaptiveFormats":[` +
			`{"bitrate":"128000","url":"` + up.URL + `/low"},` +
			`{"bitrate":2500000,"url":"` + up.URL + `/high"}]}`,
	})
	up.SetRoute("/high", testutil.Route{Body: "HIGH"})
	up.SetRoute("/low", testutil.Route{Body: "LOW"})

	cfg := testConfig(t)
	cfg.YouTube.APIBase = up.URL

	res, err := NewDefault(cfg, Deps{}, nil, nil).Run(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := filepath.Join(cfg.OutPath, "youtube", "videos", "Never Gonna.mp4"); res.Path != want {
		t.Fatalf("path = %q, want %q", res.Path, want)
	}
	got, _ := os.ReadFile(res.Path)
	if string(got) != "HIGH" {
		t.Fatalf("output = %q", got)
	}
	if want := []string{"/api/v1/videos/dQw4w9WgXcQ", "/high"}; !reflect.DeepEqual(up.Hits(), want) {
		t.Fatalf("hits = %v, want %v", up.Hits(), want)
	}
}

func TestRunUpstreamFailureCreatesNoFile(t *testing.T) {
	up := testutil.NewUpstream(t, map[string]testutil.Route{
		"/api/v1/videos/abc": {Status: 502, Body: "bad gateway"},
	})
	cfg := testConfig(t)
	cfg.YouTube.APIBase = up.URL

	_, err := NewDefault(cfg, Deps{}, nil, nil).Run(context.Background(), "https://youtube.com/shorts/abc")
	if !errors.Is(err, model.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.OutPath)
	if len(entries) != 0 {
		t.Fatalf("output dir not empty: %v", entries)
	}
}

func TestRunTiktokIsNotImplemented(t *testing.T) {
	cfg := testConfig(t)
	_, err := NewDefault(cfg, Deps{}, nil, nil).Run(context.Background(), "https://www.tiktok.com/@someone/video/7234567890123456789")
	if !errors.Is(err, model.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageResolve {
		t.Fatalf("expected resolve stage error, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.OutPath)
	if len(entries) != 0 {
		t.Fatalf("output dir not empty: %v", entries)
	}
}
