package model

import "time"

// Config holds the user's configuration. Zero values are filled by config.ApplyDefaults.
type Config struct {
	OutPath            string            `json:"outPath"`
	Directories        map[string]string `json:"directories,omitempty"`
	SegmentConcurrency int               `json:"segmentConcurrency,omitempty"`
	TimeoutSeconds     int               `json:"timeoutSeconds,omitempty"`
	RequestsPerSecond  float64           `json:"requestsPerSecond,omitempty"`
	UserAgent          string            `json:"userAgent,omitempty"`
	APILogPath         string            `json:"apiLogPath,omitempty"`
	Verbose            bool              `json:"verbose,omitempty"`
	Twitch             TwitchConfig      `json:"twitch"`
	YouTube            YouTubeConfig     `json:"youtube"`
	Notify             NotifyConfig      `json:"notify"`
}

// TwitchConfig holds the anonymous web client credential and endpoints.
type TwitchConfig struct {
	ClientID      string `json:"clientId,omitempty"`
	GQLURL        string `json:"gqlUrl,omitempty"`
	UsherURL      string `json:"usherUrl,omitempty"`
	ClipTokenHash string `json:"clipTokenHash,omitempty"`
}

// YouTubeConfig points at an Invidious-compatible metadata provider.
type YouTubeConfig struct {
	APIBase string `json:"apiBase,omitempty"`
}

// NotifyConfig enables Gotify push notifications when both fields are set.
type NotifyConfig struct {
	GotifyURL   string `json:"gotifyUrl,omitempty"`
	GotifyToken string `json:"gotifyToken,omitempty"`
}

// Timeout returns the API request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DirectoryFor returns the output directory for kind relative to OutPath.
func (c *Config) DirectoryFor(kind SourceKind) string {
	if dir, ok := c.Directories[kind.String()]; ok && dir != "" {
		return dir
	}
	return DefaultDirectories()[kind.String()]
}

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	URL                string `arg:"positional" help:"Twitch clip/video, YouTube video/short or TikTok video URL."`
	OutPath            string `arg:"-o,--out-path,env:VODGRAB_OUT_PATH" help:"Where to download to. Path will be made if it doesn't already exist."`
	SegmentConcurrency int    `arg:"-j,--segment-concurrency" help:"Number of HLS segments fetched in parallel."`
	ConfigPath         string `arg:"-c,--config,env:VODGRAB_CONFIG" help:"Path to config.json."`
	APILog             string `arg:"--api-log,env:VODGRAB_API_LOG" help:"Append a JSON line per HTTP request to this file."`
	Verbose            bool   `arg:"-v" help:"Enable debug logging."`
}

// Description provides the help header for go-arg.
func (Args) Description() string {
	return "Downloads Twitch clips and videos, YouTube videos and shorts to local files."
}
