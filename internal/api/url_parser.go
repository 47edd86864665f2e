package api

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jmagar/vodgrab/internal/model"
)

// urlRule pairs a pattern with the kind it classifies. The first capture group is the content id.
type urlRule struct {
	pattern string
	kind    model.SourceKind
}

// urlRules are checked in order. The channel-scoped clip path must come before
// the broader Twitch shapes, and the embed player before the bare clip slug so
// "embed" is never taken as a slug. An embed URL without a clip parameter
// matches with an empty id and is rejected.
var urlRules = []urlRule{
	{`^https?://(?:www\.|m\.)?twitch\.tv/[A-Za-z0-9_]+/clip/([A-Za-z0-9_-]+)/?(?:\?.*)?$`, model.SourceTwitchClip},
	{`^https?://clips\.twitch\.tv/embed/?(?:\?(?:[^#]*&)?clip=([A-Za-z0-9_-]+))?(?:[?&#].*)?$`, model.SourceTwitchClip},
	{`^https?://clips\.twitch\.tv/([A-Za-z0-9_-]+)/?(?:\?.*)?$`, model.SourceTwitchClip},
	{`^https?://(?:www\.|m\.)?twitch\.tv/videos/(\d+)/?(?:\?.*)?$`, model.SourceTwitchVideo},
	{`^https?://(?:www\.|m\.)?youtube\.com/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]+)(?:[&#].*)?$`, model.SourceYoutubeVideo},
	{`^https?://youtu\.be/([A-Za-z0-9_-]+)/?(?:\?.*)?$`, model.SourceYoutubeVideo},
	{`^https?://(?:www\.|m\.)?youtube\.com/shorts/([A-Za-z0-9_-]+)/?(?:\?.*)?$`, model.SourceYoutubeShort},
	{`^https?://(?:www\.|m\.)?tiktok\.com/@[A-Za-z0-9_.-]+/video/(\d+)/?(?:\?.*)?$`, model.SourceTiktokVideo},
}

// compiledRegexes are pre-compiled versions of urlRules.
var compiledRegexes []*regexp.Regexp

func init() {
	compiledRegexes = make([]*regexp.Regexp, len(urlRules))
	for i, r := range urlRules {
		compiledRegexes[i] = regexp.MustCompile(r.pattern)
	}
}

// CheckURL matches a URL against the known patterns.
// Returns the extracted ID and the pattern index.
// Returns ("", -1) if no pattern matches the URL.
func CheckURL(_url string) (string, int) {
	for i, re := range compiledRegexes {
		match := re.FindStringSubmatch(_url)
		if match != nil {
			return match[1], i
		}
	}
	return "", -1
}

// Classify turns raw input into a MediaReference, or fails with model.ErrInvalidURL.
func Classify(raw string) (model.MediaReference, error) {
	trimmed := strings.TrimSpace(raw)
	id, idx := CheckURL(trimmed)
	if idx < 0 || id == "" {
		return model.MediaReference{}, fmt.Errorf("%w: %q is not a supported url", model.ErrInvalidURL, raw)
	}
	return model.MediaReference{
		Kind:        urlRules[idx].kind,
		ID:          id,
		OriginalURL: trimmed,
	}, nil
}
