package model

import (
	"errors"
	"fmt"
)

// MediaReference is the result of classifying one input URL.
type MediaReference struct {
	Kind        SourceKind
	ID          string
	OriginalURL string
}

// PlanKind selects how the Download Executor retrieves bytes.
type PlanKind int

const (
	PlanUnknown PlanKind = iota
	// PlanProgressive is a single HTTP response streamed to disk.
	PlanProgressive
	// PlanManifest is a media playlist URL that still needs segment expansion.
	PlanManifest
	// PlanSegmented is an ordered list of segment URLs.
	PlanSegmented
)

func (k PlanKind) String() string {
	switch k {
	case PlanProgressive:
		return "progressive"
	case PlanManifest:
		return "manifest"
	case PlanSegmented:
		return "segmented"
	default:
		return "unknown"
	}
}

// FetchPlan describes where the media bytes live.
// URL is set for progressive and manifest plans, Segments for segmented plans.
type FetchPlan struct {
	Kind     PlanKind
	URL      string
	Segments []string
}

// ProgressivePlan returns a plan that downloads url in a single request.
func ProgressivePlan(url string) FetchPlan {
	return FetchPlan{Kind: PlanProgressive, URL: url}
}

// ManifestPlan returns a plan whose segments come from the media playlist at url.
func ManifestPlan(url string) FetchPlan {
	return FetchPlan{Kind: PlanManifest, URL: url}
}

// SegmentedPlan returns a plan over segs. The order of segs is the write order.
func SegmentedPlan(segs []string) FetchPlan {
	return FetchPlan{Kind: PlanSegmented, Segments: segs}
}

// Validate checks the plan's shape invariants.
func (p FetchPlan) Validate() error {
	switch p.Kind {
	case PlanProgressive, PlanManifest:
		if p.URL == "" {
			return fmt.Errorf("%s plan has no url", p.Kind)
		}
	case PlanSegmented:
		if len(p.Segments) == 0 {
			return errors.New("segmented plan has no segments")
		}
	default:
		return fmt.Errorf("unsupported plan kind %d", p.Kind)
	}
	return nil
}

// ResolvedMedia is what a metadata resolver hands back to the orchestrator.
type ResolvedMedia struct {
	Title string
	Plan  FetchPlan
}

// DownloadProgress is a snapshot of executor progress. Total is 0 when unknown.
// Units are bytes for progressive plans and segments for segmented plans.
type DownloadProgress struct {
	Completed int64
	Total     int64
}

// Percent returns completion in [0, 1], or 0 when the total is unknown.
func (p DownloadProgress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Completed) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}
