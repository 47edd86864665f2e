package hls

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmagar/vodgrab/internal/model"
)

const streamInfTag = "#EXT-X-STREAM-INF:"

// attrRe matches one NAME=value pair of a tag attribute list. Quoted values may contain commas.
var attrRe = regexp.MustCompile(`([A-Z0-9-]+)=("[^"]*"|[^,]*)`)

type rawVariant struct {
	bandwidth int64
	uri       string
}

// rawPlaylist is a line-level view of a manifest.
type rawPlaylist struct {
	variants []rawVariant
	// segments are non-comment lines with a segment extension, in file order.
	// The URI line following #EXT-X-STREAM-INF is never a segment.
	segments []string
}

func scanLines(data []byte) (*rawPlaylist, error) {
	out := &rawPlaylist{}
	pending := -1
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, streamInfTag):
			bw, err := parseBandwidth(strings.TrimPrefix(line, streamInfTag))
			if err != nil {
				return nil, err
			}
			out.variants = append(out.variants, rawVariant{bandwidth: bw})
			pending = len(out.variants) - 1
		case strings.HasPrefix(line, "#"):
		case pending >= 0:
			out.variants[pending].uri = line
			pending = -1
		case isSegmentURI(line):
			out.segments = append(out.segments, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan manifest: %w", model.ErrManifestParse, err)
	}
	if pending >= 0 {
		return nil, fmt.Errorf("%w: #EXT-X-STREAM-INF without uri", model.ErrManifestParse)
	}
	return out, nil
}

// parseBandwidth returns the BANDWIDTH attribute, which must be a positive decimal integer.
func parseBandwidth(attrs string) (int64, error) {
	for _, m := range attrRe.FindAllStringSubmatch(attrs, -1) {
		if m[1] != "BANDWIDTH" {
			continue
		}
		bw, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil || bw <= 0 {
			return 0, fmt.Errorf("%w: malformed BANDWIDTH %q", model.ErrManifestParse, m[2])
		}
		return bw, nil
	}
	return 0, fmt.Errorf("%w: #EXT-X-STREAM-INF without BANDWIDTH", model.ErrManifestParse)
}
