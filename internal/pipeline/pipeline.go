// Package pipeline sequences classification, resolution, manifest expansion and
// download for a single URL.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmagar/vodgrab/internal/api"
	"github.com/jmagar/vodgrab/internal/download"
	"github.com/jmagar/vodgrab/internal/helpers"
	"github.com/jmagar/vodgrab/internal/hls"
	"github.com/jmagar/vodgrab/internal/model"
)

// maxManifestDepth bounds master-to-media playlist hops during expansion.
const maxManifestDepth = 3

// Resolver turns a classified reference into a fetch plan and title.
type Resolver interface {
	Resolve(ctx context.Context, ref model.MediaReference) (*model.ResolvedMedia, error)
}

// ManifestFetcher retrieves playlist text.
type ManifestFetcher interface {
	GetText(ctx context.Context, label, rawURL string) (string, error)
}

// Executor writes a fetch plan to a file.
type Executor interface {
	Execute(ctx context.Context, plan model.FetchPlan, dest string, sink download.Sink) (int64, error)
}

// Deps holds optional callbacks for console reporting. Nil fields are skipped.
type Deps struct {
	// OnResolved fires once the fetch plan is known.
	OnResolved func(ref model.MediaReference, media *model.ResolvedMedia, elapsed time.Duration)
	// OnDownloadStart fires after the output directory exists.
	OnDownloadStart func(ref model.MediaReference, title, dest string)
	// NewSink returns the progress sink for a plan; nil means no progress output.
	NewSink func(kind model.PlanKind) download.Sink
}

// Result summarizes a successful run.
type Result struct {
	Ref             model.MediaReference
	Title           string
	Path            string
	Plan            model.PlanKind
	Bytes           int64
	ResolveElapsed  time.Duration
	DownloadElapsed time.Duration
}

// Pipeline runs one URL through every stage. Any stage failure aborts the run.
type Pipeline struct {
	cfg      *model.Config
	resolver Resolver
	fetcher  ManifestFetcher
	executor Executor
	deps     Deps
	log      hclog.Logger
	now      func() time.Time
}

// New assembles a Pipeline from its collaborators.
func New(cfg *model.Config, resolver Resolver, fetcher ManifestFetcher, executor Executor, deps Deps, logger hclog.Logger) *Pipeline {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Pipeline{
		cfg:      cfg,
		resolver: resolver,
		fetcher:  fetcher,
		executor: executor,
		deps:     deps,
		log:      logger,
		now:      time.Now,
	}
}

// NewDefault wires the production API client, resolvers and executor from cfg.
// requestLog may be nil.
func NewDefault(cfg *model.Config, deps Deps, logger, requestLog hclog.Logger) *Pipeline {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	client := api.NewClient(api.ClientOptions{
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		UserAgent:         cfg.UserAgent,
		Logger:            logger.Named("api"),
		RequestLog:        requestLog,
	})
	executor := download.NewExecutor(download.Options{
		Concurrency: cfg.SegmentConcurrency,
		UserAgent:   cfg.UserAgent,
		Logger:      logger.Named("download"),
	})
	return New(cfg, api.NewResolver(client, cfg), client, executor, deps, logger)
}

// Run downloads rawURL and returns where the file was saved.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*Result, error) {
	ref, err := api.Classify(rawURL)
	if err != nil {
		return nil, &StageError{Stage: StageClassify, Err: err}
	}
	log := p.log.With("kind", ref.Kind.String(), "id", ref.ID)
	log.Debug("classified url")

	start := p.now()
	media, err := p.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, &StageError{Stage: StageResolve, Err: err}
	}
	if media.Plan.Kind == model.PlanManifest {
		plan, err := p.expandManifest(ctx, media.Plan.URL)
		if err != nil {
			return nil, &StageError{Stage: StageManifest, Err: err}
		}
		media.Plan = plan
	}
	resolveElapsed := p.now().Sub(start)
	log.Debug("resolved", "plan", media.Plan.Kind.String(), "elapsed", resolveElapsed)
	if p.deps.OnResolved != nil {
		p.deps.OnResolved(ref, media, resolveElapsed)
	}

	dest := helpers.OutputFile(p.cfg, ref, media.Title)
	if err := helpers.MakeDirs(filepath.Dir(dest)); err != nil {
		return nil, &StageError{Stage: StagePrepare, Err: err}
	}
	if p.deps.OnDownloadStart != nil {
		p.deps.OnDownloadStart(ref, media.Title, dest)
	}

	var sink download.Sink = download.NopSink{}
	if p.deps.NewSink != nil {
		if s := p.deps.NewSink(media.Plan.Kind); s != nil {
			sink = s
		}
	}
	start = p.now()
	written, err := p.executor.Execute(ctx, media.Plan, dest, sink)
	if err != nil {
		return nil, &StageError{Stage: StageDownload, Err: err}
	}
	downloadElapsed := p.now().Sub(start)
	log.Debug("downloaded", "dest", dest, "bytes", written, "elapsed", downloadElapsed)

	return &Result{
		Ref:             ref,
		Title:           media.Title,
		Path:            dest,
		Plan:            media.Plan.Kind,
		Bytes:           written,
		ResolveElapsed:  resolveElapsed,
		DownloadElapsed: downloadElapsed,
	}, nil
}

// expandManifest fetches the media playlist at rawURL and returns its segments.
// A master playlist is followed to its selected variant.
func (p *Pipeline) expandManifest(ctx context.Context, rawURL string) (model.FetchPlan, error) {
	for depth := 0; depth < maxManifestDepth; depth++ {
		text, err := p.fetcher.GetText(ctx, "hls.playlist", rawURL)
		if err != nil {
			return model.FetchPlan{}, err
		}
		m, err := hls.ParseString(text, rawURL)
		if err != nil {
			return model.FetchPlan{}, err
		}
		if !m.IsMaster() {
			p.log.Debug("expanded manifest", "segments", len(m.Segments))
			return model.SegmentedPlan(m.Segments), nil
		}
		rawURL = m.Variant.URL
	}
	return model.FetchPlan{}, fmt.Errorf("%w: master playlists nested deeper than %d levels", model.ErrManifestParse, maxManifestDepth)
}
