package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jmagar/vodgrab/internal/hls"
	"github.com/jmagar/vodgrab/internal/model"
)

const (
	// DefaultTwitchClientID is the anonymous credential used by the Twitch web player.
	// It is a public app identifier, not a secret.
	DefaultTwitchClientID = "kimne78kx3ncx6brgo4mv6wki5h1ko"
	DefaultTwitchGQLURL   = "https://gql.twitch.tv/gql"
	DefaultTwitchUsherURL = "https://usher.ttvnw.net"
	// DefaultClipTokenHash identifies the VideoAccessToken_Clip persisted query.
	DefaultClipTokenHash = "36b89d2507fce29e5ca551df756d27c1cfe079e2609642b4390aa4c35796eb11"
)

const (
	clipTitleQuery  = `query ClipTitle($slug: ID!) { clip(slug: $slug) { title } }`
	videoTitleQuery = `query VideoTitle($id: ID!) { video(id: $id) { title } }`
	videoTokenQuery = `query VideoAccessToken($id: ID!, $playerType: String!) {
  videoPlaybackAccessToken(id: $id, params: {platform: "web", playerBackend: "mediaplayer", playerType: $playerType}) { value signature }
}`
)

type gqlRequest struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query,omitempty"`
	Variables     map[string]any `json:"variables"`
	Extensions    *gqlExtensions `json:"extensions,omitempty"`
}

type gqlExtensions struct {
	PersistedQuery gqlPersistedQuery `json:"persistedQuery"`
}

type gqlPersistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

// Twitch resolves clips and videos through the public GraphQL endpoint.
type Twitch struct {
	client *Client
	cfg    model.TwitchConfig
}

// NewTwitch returns a Twitch resolver. Empty config fields use the public defaults.
func NewTwitch(client *Client, cfg model.TwitchConfig) *Twitch {
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultTwitchClientID
	}
	if cfg.GQLURL == "" {
		cfg.GQLURL = DefaultTwitchGQLURL
	}
	if cfg.UsherURL == "" {
		cfg.UsherURL = DefaultTwitchUsherURL
	}
	if cfg.ClipTokenHash == "" {
		cfg.ClipTokenHash = DefaultClipTokenHash
	}
	return &Twitch{client: client, cfg: cfg}
}

func (t *Twitch) gql(ctx context.Context, label string, body, out any) error {
	header := http.Header{}
	header.Set("Client-ID", t.cfg.ClientID)
	return t.client.PostJSON(ctx, label, t.cfg.GQLURL, header, body, out)
}

// ClipTitle returns the display title of the clip with the given slug.
func (t *Twitch) ClipTitle(ctx context.Context, slug string) (string, error) {
	var resp model.ClipTitleResp
	req := gqlRequest{
		OperationName: "ClipTitle",
		Query:         clipTitleQuery,
		Variables:     map[string]any{"slug": slug},
	}
	if err := t.gql(ctx, "twitch.clip_title", req, &resp); err != nil {
		return "", err
	}
	if err := gqlErrors("twitch.clip_title", resp.Errors); err != nil {
		return "", err
	}
	if resp.Data.Clip == nil {
		return "", fmt.Errorf("%w: twitch clip %q", model.ErrNotFound, slug)
	}
	return resp.Data.Clip.Title, nil
}

// ClipSourceURL exchanges the clip slug for a signed playback URL.
func (t *Twitch) ClipSourceURL(ctx context.Context, slug string) (string, error) {
	body := []gqlRequest{{
		OperationName: "VideoAccessToken_Clip",
		Variables:     map[string]any{"slug": slug},
		Extensions: &gqlExtensions{PersistedQuery: gqlPersistedQuery{
			Version:    1,
			SHA256Hash: t.cfg.ClipTokenHash,
		}},
	}}
	var resp []model.ClipAccessResp
	if err := t.gql(ctx, "twitch.clip_token", body, &resp); err != nil {
		return "", err
	}
	if len(resp) == 0 {
		return "", fmt.Errorf("%w: twitch.clip_token: empty response", model.ErrUpstream)
	}
	if err := gqlErrors("twitch.clip_token", resp[0].Errors); err != nil {
		return "", err
	}
	clip := resp[0].Data.Clip
	if clip == nil {
		return "", fmt.Errorf("%w: twitch clip %q", model.ErrNotFound, slug)
	}
	if clip.PlaybackAccessToken == nil || len(clip.VideoQualities) == 0 || clip.VideoQualities[0].SourceURL == "" {
		return "", fmt.Errorf("%w: twitch clip %q has no playable quality", model.ErrNotFound, slug)
	}
	return signClipURL(clip.VideoQualities[0].SourceURL, clip.PlaybackAccessToken), nil
}

// ResolveClip returns a progressive plan for a clip.
func (t *Twitch) ResolveClip(ctx context.Context, ref model.MediaReference) (*model.ResolvedMedia, error) {
	title, err := t.ClipTitle(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	src, err := t.ClipSourceURL(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	t.client.Logger().Debug("resolved clip", "slug", ref.ID, "title", title)
	return &model.ResolvedMedia{Title: title, Plan: model.ProgressivePlan(src)}, nil
}

// VideoTitle returns the display title of a VOD.
func (t *Twitch) VideoTitle(ctx context.Context, id string) (string, error) {
	var resp model.VideoTitleResp
	req := gqlRequest{
		OperationName: "VideoTitle",
		Query:         videoTitleQuery,
		Variables:     map[string]any{"id": id},
	}
	if err := t.gql(ctx, "twitch.video_title", req, &resp); err != nil {
		return "", err
	}
	if err := gqlErrors("twitch.video_title", resp.Errors); err != nil {
		return "", err
	}
	if resp.Data.Video == nil {
		return "", fmt.Errorf("%w: twitch video %q", model.ErrNotFound, id)
	}
	return resp.Data.Video.Title, nil
}

// VideoAccessToken exchanges a VOD id for a playback token and signature.
func (t *Twitch) VideoAccessToken(ctx context.Context, id string) (*model.PlaybackAccessToken, error) {
	var resp model.VideoAccessResp
	req := gqlRequest{
		OperationName: "VideoAccessToken",
		Query:         videoTokenQuery,
		Variables:     map[string]any{"id": id, "playerType": "site"},
	}
	if err := t.gql(ctx, "twitch.video_token", req, &resp); err != nil {
		return nil, err
	}
	if err := gqlErrors("twitch.video_token", resp.Errors); err != nil {
		return nil, err
	}
	tok := resp.Data.VideoPlaybackAccessToken
	if tok == nil || tok.Value == "" {
		return nil, fmt.Errorf("%w: twitch video %q has no playback token", model.ErrNotFound, id)
	}
	return tok, nil
}

// ManifestURL builds the usher master playlist URL for a VOD.
func (t *Twitch) ManifestURL(id string, tok *model.PlaybackAccessToken) string {
	q := url.Values{}
	q.Set("allow_source", "true")
	q.Set("allow_audio_only", "true")
	q.Set("playlist_include_framerate", "true")
	q.Set("player", "twitchweb")
	q.Set("nauth", tok.Value)
	q.Set("nauthsig", tok.Signature)
	return strings.TrimRight(t.cfg.UsherURL, "/") + "/vod/" + url.PathEscape(id) + ".m3u8?" + q.Encode()
}

// ResolveVideo fetches the VOD master playlist and picks the highest-bandwidth variant.
// The variant's own playlist is expanded into segments at download time.
func (t *Twitch) ResolveVideo(ctx context.Context, ref model.MediaReference) (*model.ResolvedMedia, error) {
	title, err := t.VideoTitle(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	tok, err := t.VideoAccessToken(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	manifestURL := t.ManifestURL(ref.ID, tok)
	text, err := t.client.GetText(ctx, "twitch.usher", manifestURL)
	if err != nil {
		return nil, err
	}
	m, err := hls.ParseString(text, manifestURL)
	if err != nil {
		return nil, err
	}
	if !m.IsMaster() {
		return &model.ResolvedMedia{Title: title, Plan: model.SegmentedPlan(m.Segments)}, nil
	}
	t.client.Logger().Debug("selected variant", "video", ref.ID, "bandwidth", m.Variant.Bandwidth, "resolution", m.Variant.Resolution)
	return &model.ResolvedMedia{Title: title, Plan: model.ManifestPlan(m.Variant.URL)}, nil
}

func signClipURL(src string, tok *model.PlaybackAccessToken) string {
	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return src + sep + "sig=" + url.QueryEscape(tok.Signature) + "&token=" + url.QueryEscape(tok.Value)
}

func gqlErrors(label string, errs []model.GQLError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("%w: %s: %s", model.ErrUpstream, label, strings.Join(msgs, "; "))
}
