package api

import (
	"context"
	"fmt"

	"github.com/jmagar/vodgrab/internal/model"
)

// Resolver dispatches a MediaReference to the platform that can resolve it.
type Resolver struct {
	twitch  *Twitch
	youtube *YouTube
}

// NewResolver wires every platform resolver to one shared client.
func NewResolver(client *Client, cfg *model.Config) *Resolver {
	return &Resolver{
		twitch:  NewTwitch(client, cfg.Twitch),
		youtube: NewYouTube(client, cfg.YouTube),
	}
}

// Resolve returns the fetch plan and title for ref.
func (r *Resolver) Resolve(ctx context.Context, ref model.MediaReference) (*model.ResolvedMedia, error) {
	var (
		media *model.ResolvedMedia
		err   error
	)
	switch ref.Kind {
	case model.SourceTwitchClip:
		media, err = r.twitch.ResolveClip(ctx, ref)
	case model.SourceTwitchVideo:
		media, err = r.twitch.ResolveVideo(ctx, ref)
	case model.SourceYoutubeVideo, model.SourceYoutubeShort:
		media, err = r.youtube.Resolve(ctx, ref)
	case model.SourceTiktokVideo:
		return nil, fmt.Errorf("%w: %s downloads", model.ErrNotImplemented, ref.Kind.Label())
	default:
		return nil, fmt.Errorf("%w: source kind %d", model.ErrNotImplemented, ref.Kind)
	}
	if err != nil {
		return nil, err
	}
	if err := media.Plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrUpstream, ref.Kind, err)
	}
	return media, nil
}
