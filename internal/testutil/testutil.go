// Package testutil provides shared test helpers used across internal packages.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
)

// WithTempHome sets HOME to a temporary directory for the duration of the test.
func WithTempHome(t *testing.T) string {
	t.Helper()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	return tempHome
}

// CaptureStdout captures stdout during fn() and returns the output as a string.
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, r)
		close(done)
	}()
	defer func() {
		os.Stdout = orig
		_ = r.Close()
	}()

	fn()

	_ = w.Close()
	<-done
	return buf.String()
}

// ChdirTemp changes to a temp directory and restores cwd on cleanup.
func ChdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("failed to chdir temp: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(orig)
	})
	return tmp
}

// Route is a canned response served by Upstream.
type Route struct {
	Status int
	Body   string
	Header map[string]string
}

// Upstream is a fake HTTP dependency that serves canned routes by path and
// records the order in which they were requested.
type Upstream struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]Route
	hits   []string
}

// NewUpstream starts a server for routes keyed by URL path. Unknown paths get 404.
// The server is closed when the test ends.
func NewUpstream(t *testing.T, routes map[string]Route) *Upstream {
	t.Helper()
	if routes == nil {
		routes = map[string]Route{}
	}
	u := &Upstream{routes: routes}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

// SetRoute adds or replaces a route. Use it for bodies that embed the server URL.
func (u *Upstream) SetRoute(path string, r Route) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes[path] = r
}

// Hits returns the requested paths in arrival order.
func (u *Upstream) Hits() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.hits...)
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits = append(u.hits, r.URL.Path)
	route, ok := u.routes[r.URL.Path]
	u.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	for k, v := range route.Header {
		w.Header().Set(k, v)
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, route.Body)
}
