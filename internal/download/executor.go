package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"

	"github.com/hashicorp/go-hclog"

	"github.com/jmagar/vodgrab/internal/helpers"
	"github.com/jmagar/vodgrab/internal/model"
)

// maxSegmentConcurrency caps parallel segment fetches regardless of config.
const maxSegmentConcurrency = 16

// Options configures NewExecutor. Zero values fall back to defaults.
type Options struct {
	Client      Doer
	Concurrency int
	UserAgent   string
	Logger      hclog.Logger
}

// Executor downloads a fetch plan into a single destination file.
// It owns the destination file handle for the duration of Execute.
type Executor struct {
	client      Doer
	concurrency int
	userAgent   string
	log         hclog.Logger
}

// NewExecutor builds an Executor from opts.
func NewExecutor(opts Options) *Executor {
	if opts.Client == nil {
		opts.Client = NewHTTPClient()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultSegmentConcurrency()
	}
	if opts.Concurrency > maxSegmentConcurrency {
		opts.Concurrency = maxSegmentConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Executor{
		client:      opts.Client,
		concurrency: opts.Concurrency,
		userAgent:   opts.UserAgent,
		log:         opts.Logger,
	}
}

// DefaultSegmentConcurrency returns the worker count used when none is configured.
func DefaultSegmentConcurrency() int {
	return min(max(runtime.NumCPU(), 4), 8)
}

// Execute retrieves plan into dest and returns the number of bytes written.
// A partial file may remain when it fails.
func (e *Executor) Execute(ctx context.Context, plan model.FetchPlan, dest string, sink Sink) (int64, error) {
	if sink == nil {
		sink = NopSink{}
	}
	if err := plan.Validate(); err != nil {
		return 0, err
	}
	switch plan.Kind {
	case model.PlanProgressive:
		return e.DownloadVideoFile(ctx, dest, plan.URL, sink)
	case model.PlanSegmented:
		return e.DownloadSegments(ctx, dest, plan.Segments, sink)
	default:
		return 0, fmt.Errorf("cannot download a %s plan directly", plan.Kind)
	}
}

// DownloadVideoFile streams a single response to dest. The progress total is the
// declared content length when the server reports one.
func (e *Executor) DownloadVideoFile(ctx context.Context, dest, rawURL string, sink Sink) (int64, error) {
	defer sink.Finish()

	resp, err := e.get(ctx, rawURL)
	if err != nil {
		return 0, fmt.Errorf("%w: progressive download: %w", model.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: progressive download: %s", model.ErrUpstream, resp.Status)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, helpers.WrapIO("create", dest, err)
	}
	defer f.Close()

	if resp.ContentLength > 0 {
		sink.SetTotal(resp.ContentLength)
	}
	e.log.Debug("progressive download", "dest", dest, "content_length", resp.ContentLength)

	cw := &countingWriter{w: f, sink: sink}
	written, err := io.Copy(cw, resp.Body)
	if err != nil {
		if cw.err != nil {
			return written, helpers.WrapIO("write", dest, cw.err)
		}
		return written, fmt.Errorf("%w: progressive download: %w", model.ErrUpstream, err)
	}
	if err := f.Close(); err != nil {
		return written, helpers.WrapIO("close", dest, err)
	}
	return written, nil
}

func (e *Executor) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	return e.client.Do(req)
}

// countingWriter advances the sink by each chunk actually written and keeps
// the write error so callers can tell disk failures from network failures.
type countingWriter struct {
	w    io.Writer
	sink Sink
	err  error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 {
		c.sink.Advance(int64(n))
	}
	if err != nil {
		c.err = err
	}
	return n, err
}
