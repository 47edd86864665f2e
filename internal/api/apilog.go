package api

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
)

// OpenRequestLog opens (or creates) the dedicated API log file at logPath and
// returns a JSON-lines logger writing to it. The directory is created with
// mode 0700 if it does not exist. The caller closes the returned file.
func OpenRequestLog(logPath string) (hclog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, nil, fmt.Errorf("api logger: mkdir %s: %w", filepath.Dir(logPath), err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("api logger: open %s: %w", logPath, err)
	}
	return NewRequestLog(f), f, nil
}

// NewRequestLog returns a JSON-lines request logger writing to w.
func NewRequestLog(w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "api",
		Level:      hclog.Info,
		Output:     w,
		JSONFormat: true,
		TimeFormat: time.RFC3339Nano,
	})
}

// logRequest records a completed HTTP request. status is 0 for network errors.
func logRequest(l hclog.Logger, label, method, rawURL string, status int, duration time.Duration, reqErr error) {
	args := []any{
		"label", label,
		"method", method,
		"url", redactURL(rawURL),
		"status", status,
		"duration_ms", duration.Milliseconds(),
	}
	if reqErr != nil {
		l.Warn("request", append(args, "error", reqErr.Error())...)
		return
	}
	l.Info("request", args...)
}

// logRateLimitWait records that a request was delayed by the rate limiter.
func logRateLimitWait(l hclog.Logger, label string, waited time.Duration) {
	l.Info("rate_limit_wait", "label", label, "rate_limited_ms", waited.Milliseconds())
}

// redactURL drops the query string, which carries playback tokens and signatures.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparsable url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
