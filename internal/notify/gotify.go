// Package notify pushes a run summary to a Gotify server.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmagar/vodgrab/internal/model"
)

const (
	PriorityDone   = 4
	PriorityFailed = 8
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

type message struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}

// Notifier sends messages to one Gotify server. A nil *Notifier is disabled.
type Notifier struct {
	serverURL string
	token     string
	client    *http.Client
}

// New returns a Notifier for cfg, or nil when url or token are empty.
func New(cfg model.NotifyConfig) *Notifier {
	if strings.TrimSpace(cfg.GotifyURL) == "" || strings.TrimSpace(cfg.GotifyToken) == "" {
		return nil
	}
	return &Notifier{
		serverURL: strings.TrimRight(cfg.GotifyURL, "/"),
		token:     cfg.GotifyToken,
		client:    httpClient,
	}
}

// Send posts one message.
func (n *Notifier) Send(ctx context.Context, title, text string, priority int) error {
	if n == nil {
		return nil
	}
	body, err := json.Marshal(message{Title: title, Message: text, Priority: priority})
	if err != nil {
		return fmt.Errorf("gotify: marshal failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.serverURL+"/message", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gotify: create request failed: %w", err)
	}
	req.Header.Set("X-Gotify-Token", n.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("gotify: send failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gotify: server returned %d", resp.StatusCode)
	}
	return nil
}

// Downloaded reports a saved file.
func (n *Notifier) Downloaded(ctx context.Context, kind model.SourceKind, title, path string) error {
	return n.Send(ctx, "Download complete", fmt.Sprintf("%s: %s\n%s", kind.Label(), title, path), PriorityDone)
}

// Failed reports a run that ended with err.
func (n *Notifier) Failed(ctx context.Context, rawURL string, err error) error {
	return n.Send(ctx, "Download failed", fmt.Sprintf("%s\n%v", rawURL, err), PriorityFailed)
}
