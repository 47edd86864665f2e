package model

import "strings"

// SourceKind identifies the platform and content type of a classified URL.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceTwitchClip
	SourceTwitchVideo
	SourceYoutubeVideo
	SourceYoutubeShort
	SourceTiktokVideo
)

// SourceKinds lists every supported kind in classification order.
var SourceKinds = []SourceKind{
	SourceTwitchClip,
	SourceTwitchVideo,
	SourceYoutubeVideo,
	SourceYoutubeShort,
	SourceTiktokVideo,
}

// String returns the config key form of the kind, e.g. "twitch-clip".
func (k SourceKind) String() string {
	switch k {
	case SourceTwitchClip:
		return "twitch-clip"
	case SourceTwitchVideo:
		return "twitch-video"
	case SourceYoutubeVideo:
		return "youtube-video"
	case SourceYoutubeShort:
		return "youtube-short"
	case SourceTiktokVideo:
		return "tiktok-video"
	default:
		return "unknown"
	}
}

// Label returns a human-readable name used in console output.
func (k SourceKind) Label() string {
	switch k {
	case SourceTwitchClip:
		return "Twitch clip"
	case SourceTwitchVideo:
		return "Twitch video"
	case SourceYoutubeVideo:
		return "YouTube video"
	case SourceYoutubeShort:
		return "YouTube short"
	case SourceTiktokVideo:
		return "TikTok video"
	default:
		return "unknown"
	}
}

// ParseSourceKind converts a config key back into a SourceKind.
func ParseSourceKind(s string) SourceKind {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range SourceKinds {
		if k.String() == s {
			return k
		}
	}
	return SourceUnknown
}

// DefaultDirectories maps each kind to its output directory relative to outPath.
func DefaultDirectories() map[string]string {
	return map[string]string{
		SourceTwitchClip.String():   "twitch/clips",
		SourceTwitchVideo.String():  "twitch/videos",
		SourceYoutubeVideo.String(): "youtube/videos",
		SourceYoutubeShort.String(): "youtube/shorts",
		SourceTiktokVideo.String():  "tiktok/videos",
	}
}
