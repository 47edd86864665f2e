package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmagar/vodgrab/internal/model"
)

// DefaultYouTubeAPIBase is an Invidious-compatible metadata provider.
const DefaultYouTubeAPIBase = "https://yewtu.be"

// YouTube resolves videos and shorts through an external metadata provider.
type YouTube struct {
	client *Client
	cfg    model.YouTubeConfig
}

// NewYouTube returns a YouTube resolver.
func NewYouTube(client *Client, cfg model.YouTubeConfig) *YouTube {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultYouTubeAPIBase
	}
	return &YouTube{client: client, cfg: cfg}
}

// Resolve picks the highest-bitrate adaptive format of a video or short.
func (y *YouTube) Resolve(ctx context.Context, ref model.MediaReference) (*model.ResolvedMedia, error) {
	u := strings.TrimRight(y.cfg.APIBase, "/") + "/api/v1/videos/" + url.PathEscape(ref.ID) +
		"?fields=title,videoId,adaptiveFormats"
	var resp model.YouTubeVideoResp
	if err := y.client.GetJSON(ctx, "youtube.video", u, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: youtube.video: %s", model.ErrUpstream, resp.Error)
	}
	best, ok := SelectFormat(resp.AdaptiveFormats)
	if !ok {
		return nil, fmt.Errorf("%w: youtube video %q has no formats", model.ErrNotFound, ref.ID)
	}
	y.client.Logger().Debug("selected format", "video", ref.ID, "bitrate", best.Bitrate.Value, "type", best.Type)
	return &model.ResolvedMedia{Title: resp.Title, Plan: model.ProgressivePlan(best.URL)}, nil
}

// SelectFormat returns the format with the highest bitrate. Ties keep the first listed.
// Entries without a URL or a numeric bitrate are ignored.
func SelectFormat(formats []model.AdaptiveFormat) (model.AdaptiveFormat, bool) {
	var (
		best  model.AdaptiveFormat
		found bool
	)
	for _, f := range formats {
		if f.URL == "" || !f.Bitrate.Valid {
			continue
		}
		if !found || f.Bitrate.Value > best.Bitrate.Value {
			best = f
			found = true
		}
	}
	return best, found
}
