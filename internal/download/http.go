package download

import (
	"net"
	"net/http"
	"time"
)

// Doer is the subset of *http.Client the executor needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 16,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	TLSHandshakeTimeout:   10 * time.Second,
	ResponseHeaderTimeout: 30 * time.Second,
	IdleConnTimeout:       90 * time.Second,
	ForceAttemptHTTP2:     true,
}

// NewHTTPClient returns a client for media transfers. It has no overall
// timeout so long progressive downloads are not cut off; stalled servers are
// caught by the transport's dial and response header timeouts.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: sharedTransport}
}

// CloseIdleConnections releases pooled media connections.
func CloseIdleConnections() {
	sharedTransport.CloseIdleConnections()
}
