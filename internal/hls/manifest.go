// Package hls parses HLS manifests into either a selected variant or an ordered segment list.
package hls

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/jmagar/vodgrab/internal/model"
)

// segmentExts are the media segment extensions accepted in media playlists.
var segmentExts = map[string]struct{}{
	".ts":  {},
	".aac": {},
	".m4s": {},
	".mp4": {},
	".m4a": {},
	".m4v": {},
}

// Variant is one quality option of a master playlist.
type Variant struct {
	Bandwidth  int64
	URL        string
	Resolution string
}

// Manifest is the outcome of one parse. Exactly one of Variant or Segments is set.
type Manifest struct {
	// Variant is the highest-bandwidth entry of a master playlist.
	Variant *Variant
	// Variants lists every master playlist entry in parse order.
	Variants []Variant
	// Segments are the media segment URLs of a media playlist in file order.
	Segments []string
}

// IsMaster reports whether the manifest was a master playlist.
func (m *Manifest) IsMaster() bool {
	return m.Variant != nil
}

// ParseString parses manifest text. Relative references are resolved against base.
func ParseString(text, base string) (*Manifest, error) {
	return Parse(strings.NewReader(text), base)
}

// Parse decodes a master or media playlist from r.
//
// Master playlists are decoded with m3u8, but each BANDWIDTH is re-read from the
// raw tag because the decoder truncates values to uint32. Media segments are
// taken from the raw lines so a URI without a preceding #EXTINF is kept in order.
func Parse(r io.Reader, base string) (*Manifest, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base url %q: %w", model.ErrManifestParse, base, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %w", model.ErrManifestParse, err)
	}
	raw, err := scanLines(data)
	if err != nil {
		return nil, err
	}

	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), true)
	if err != nil {
		if len(raw.variants) == 0 && len(raw.segments) > 0 {
			return segmentsFromLines(raw.segments, baseURL)
		}
		return nil, fmt.Errorf("%w: %w", model.ErrManifestParse, err)
	}

	switch listType {
	case m3u8.MASTER:
		master, ok := playlist.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected master playlist type %T", model.ErrManifestParse, playlist)
		}
		return parseMaster(master, raw.variants, baseURL)
	case m3u8.MEDIA:
		if len(raw.variants) > 0 {
			return nil, fmt.Errorf("%w: media playlist contains #EXT-X-STREAM-INF", model.ErrManifestParse)
		}
		return segmentsFromLines(raw.segments, baseURL)
	default:
		return nil, fmt.Errorf("%w: playlist has neither variants nor segments", model.ErrManifestParse)
	}
}

func parseMaster(master *m3u8.MasterPlaylist, rawVariants []rawVariant, base *url.URL) (*Manifest, error) {
	var decoded []*m3u8.Variant
	for _, v := range master.Variants {
		if v != nil && !v.Iframe {
			decoded = append(decoded, v)
		}
	}
	if len(decoded) != len(rawVariants) {
		return nil, fmt.Errorf("%w: decoded %d variants from %d #EXT-X-STREAM-INF tags",
			model.ErrManifestParse, len(decoded), len(rawVariants))
	}

	out := &Manifest{}
	for i, v := range decoded {
		if strings.TrimSpace(v.URI) == "" {
			return nil, fmt.Errorf("%w: variant without uri", model.ErrManifestParse)
		}
		if strings.TrimSpace(v.URI) != rawVariants[i].uri {
			return nil, fmt.Errorf("%w: variant %d uri mismatch: %q vs %q",
				model.ErrManifestParse, i, v.URI, rawVariants[i].uri)
		}
		u, err := resolveURL(base, v.URI)
		if err != nil {
			return nil, err
		}
		out.Variants = append(out.Variants, Variant{
			Bandwidth:  rawVariants[i].bandwidth,
			URL:        u,
			Resolution: v.Resolution,
		})
	}
	best, ok := SelectVariant(out.Variants)
	if !ok {
		return nil, fmt.Errorf("%w: master playlist has no variants", model.ErrManifestParse)
	}
	out.Variant = &best
	return out, nil
}

func segmentsFromLines(lines []string, base *url.URL) (*Manifest, error) {
	out := &Manifest{}
	for _, line := range lines {
		u, err := resolveURL(base, line)
		if err != nil {
			return nil, err
		}
		out.Segments = append(out.Segments, u)
	}
	if len(out.Segments) == 0 {
		return nil, fmt.Errorf("%w: media playlist has no segments", model.ErrManifestParse)
	}
	return out, nil
}

// SelectVariant returns the variant with the highest bandwidth. Ties keep the first listed.
func SelectVariant(variants []Variant) (Variant, bool) {
	if len(variants) == 0 {
		return Variant{}, false
	}
	best := variants[0]
	for _, v := range variants[1:] {
		if v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	return best, true
}

func isSegmentURI(uri string) bool {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return false
	}
	p := uri
	if u, err := url.Parse(uri); err == nil {
		p = u.Path
	}
	_, ok := segmentExts[strings.ToLower(path.Ext(p))]
	return ok
}

func resolveURL(base *url.URL, ref string) (string, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("%w: invalid uri %q: %w", model.ErrManifestParse, ref, err)
	}
	return base.ResolveReference(r).String(), nil
}
