package model

// GQLError is one entry of a GraphQL "errors" array.
type GQLError struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

// PlaybackAccessToken is the signed credential Twitch hands out for media access.
type PlaybackAccessToken struct {
	Signature string `json:"signature"`
	Value     string `json:"value"`
}

// ClipVideoQuality is one rendition of a clip.
type ClipVideoQuality struct {
	FrameRate float64 `json:"frameRate"`
	Quality   string  `json:"quality"`
	SourceURL string  `json:"sourceURL"`
}

// ClipAccessResp is the response element of the VideoAccessToken_Clip persisted query.
type ClipAccessResp struct {
	Data struct {
		Clip *struct {
			ID                  string               `json:"id"`
			PlaybackAccessToken *PlaybackAccessToken `json:"playbackAccessToken"`
			VideoQualities      []ClipVideoQuality   `json:"videoQualities"`
		} `json:"clip"`
	} `json:"data"`
	Errors []GQLError `json:"errors,omitempty"`
}

// ClipTitleResp is the response of the clip title query.
type ClipTitleResp struct {
	Data struct {
		Clip *struct {
			Title string `json:"title"`
		} `json:"clip"`
	} `json:"data"`
	Errors []GQLError `json:"errors,omitempty"`
}

// VideoTitleResp is the response of the video title query.
type VideoTitleResp struct {
	Data struct {
		Video *struct {
			Title string `json:"title"`
		} `json:"video"`
	} `json:"data"`
	Errors []GQLError `json:"errors,omitempty"`
}

// VideoAccessResp is the response of the video playback token query.
type VideoAccessResp struct {
	Data struct {
		VideoPlaybackAccessToken *PlaybackAccessToken `json:"videoPlaybackAccessToken"`
	} `json:"data"`
	Errors []GQLError `json:"errors,omitempty"`
}

// AdaptiveFormat is one stream entry from the YouTube metadata provider.
// Bitrate is decoded from either a JSON string or number.
type AdaptiveFormat struct {
	Bitrate  FlexInt `json:"bitrate"`
	URL      string  `json:"url"`
	Type     string  `json:"type,omitempty"`
	Itag     string  `json:"itag,omitempty"`
	Encoding string  `json:"encoding,omitempty"`
}

// YouTubeVideoResp is the provider's /api/v1/videos/<id> payload.
type YouTubeVideoResp struct {
	Title           string           `json:"title"`
	VideoID         string           `json:"videoId"`
	AdaptiveFormats []AdaptiveFormat `json:"adaptiveFormats"`
	Error           string           `json:"error,omitempty"`
}
