package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/jmagar/vodgrab/internal/helpers"
	"github.com/jmagar/vodgrab/internal/model"
)

const (
	// DefaultUserAgent is sent on every API request unless overridden by config.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	// maxErrorBody bounds how much of a failed response body ends up in an error.
	maxErrorBody = 512
)

// ClientOptions configures NewClient. Zero values fall back to defaults.
type ClientOptions struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	// Logger receives debug output. RequestLog receives one entry per request.
	Logger     hclog.Logger
	RequestLog hclog.Logger
	Transport  http.RoundTripper
}

// Client is the single gateway for every outbound metadata call.
// It paces requests with a token bucket and logs each one. It never retries:
// the first failed call is returned to the caller.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       hclog.Logger
	reqLog    hclog.Logger
}

// NewClient builds a Client from opts.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.RequestLog == nil {
		opts.RequestLog = hclog.NewNullLogger()
	}
	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		userAgent: opts.UserAgent,
		log:       opts.Logger,
		reqLog:    opts.RequestLog,
	}
}

// Logger returns the client's debug logger.
func (c *Client) Logger() hclog.Logger {
	return c.log
}

// Do paces, executes and logs one request built by makeReq.
// label is a short endpoint name used in log entries (e.g. "twitch.gql").
// Network failures are returned wrapped in model.ErrUpstream.
// Caller is responsible for closing the returned response body.
func (c *Client) Do(ctx context.Context, label string, makeReq func() (*http.Request, error)) (*http.Response, error) {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled for %s: %w", label, err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		logRateLimitWait(c.reqLog, label, waited)
	}

	req, err := makeReq()
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", label, err)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.log.Debug("request", "label", label, "method", req.Method, "url", redactURL(req.URL.String()))
	reqStart := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(reqStart)
	if err != nil {
		logRequest(c.reqLog, label, req.Method, req.URL.String(), 0, duration, err)
		return nil, helpers.WrapUpstream(label, err)
	}
	logRequest(c.reqLog, label, req.Method, req.URL.String(), resp.StatusCode, duration, nil)
	return resp, nil
}

// GetJSON issues a GET and decodes a 2xx JSON body into out.
func (c *Client) GetJSON(ctx context.Context, label, rawURL string, header http.Header, out any) error {
	resp, err := c.Do(ctx, label, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		copyHeader(req.Header, header)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(label, resp, out)
}

// PostJSON marshals body, POSTs it and decodes a 2xx JSON response into out.
func (c *Client) PostJSON(ctx context.Context, label, rawURL string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", label, err)
	}
	resp, err := c.Do(ctx, label, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		copyHeader(req.Header, header)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(label, resp, out)
}

// GetText issues a GET and returns a 2xx body as a string.
func (c *Client) GetText(ctx context.Context, label, rawURL string) (string, error) {
	resp, err := c.Do(ctx, label, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(label, resp); err != nil {
		return "", err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", helpers.WrapUpstream(label, err)
	}
	return string(data), nil
}

func decodeJSON(label string, resp *http.Response, out any) error {
	if err := checkStatus(label, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: malformed json: %w", model.ErrUpstream, label, err)
	}
	return nil
}

func checkStatus(label string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(bytes.TrimSpace(snippet)) == 0 {
		return fmt.Errorf("%w: API %s failed: %s", model.ErrUpstream, label, resp.Status)
	}
	return fmt.Errorf("%w: API %s failed: %s: %s", model.ErrUpstream, label, resp.Status, bytes.TrimSpace(snippet))
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
