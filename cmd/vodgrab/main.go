package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/jmagar/vodgrab/internal/api"
	"github.com/jmagar/vodgrab/internal/config"
	"github.com/jmagar/vodgrab/internal/download"
	"github.com/jmagar/vodgrab/internal/helpers"
	"github.com/jmagar/vodgrab/internal/model"
	"github.com/jmagar/vodgrab/internal/notify"
	"github.com/jmagar/vodgrab/internal/pipeline"
	"github.com/jmagar/vodgrab/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, argv []string, logOut io.Writer) int {
	args, p, err := config.ParseArgsFrom(argv)
	if err != nil {
		switch {
		case errors.Is(err, arg.ErrHelp):
			p.WriteHelp(os.Stdout)
			return 0
		case p != nil:
			p.WriteUsage(os.Stderr)
		}
		ui.PrintError(err.Error())
		return 2
	}
	if args.URL == "" {
		p.WriteUsage(os.Stdout)
		return 0
	}

	cfg, err := config.Load(args)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Failed to load config: %v", err))
		return 1
	}

	logger := newLogger(cfg, logOut)
	if config.LoadedConfigPath != "" {
		logger.Debug("loaded config", "path", config.LoadedConfigPath)
	}

	var requestLog hclog.Logger
	if cfg.APILogPath != "" {
		l, closer, err := api.OpenRequestLog(cfg.APILogPath)
		if err != nil {
			logger.Warn("request log disabled", "error", err)
		} else {
			defer closer.Close()
			requestLog = l
		}
	}

	res, err := pipeline.NewDefault(cfg, consoleDeps(), logger, requestLog).Run(ctx, args.URL)
	download.CloseIdleConnections()
	notifyResult(ctx, notify.New(cfg.Notify), logger, args.URL, res, err)
	return report(res, err)
}

// notifyResult pushes the outcome when notifications are configured.
// Unsupported urls are not reported.
func notifyResult(ctx context.Context, n *notify.Notifier, logger hclog.Logger, rawURL string, res *pipeline.Result, runErr error) {
	if n == nil || errors.Is(runErr, model.ErrInvalidURL) || errors.Is(runErr, model.ErrNotImplemented) {
		return
	}
	var err error
	if runErr != nil {
		err = n.Failed(context.WithoutCancel(ctx), rawURL, runErr)
	} else {
		err = n.Downloaded(ctx, res.Ref.Kind, res.Title, res.Path)
	}
	if err != nil {
		logger.Warn("notification failed", "error", err)
	}
}

func newLogger(cfg *model.Config, out io.Writer) hclog.Logger {
	level := hclog.Warn
	if cfg.Verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   config.ProgramName,
		Level:  level,
		Output: out,
	}).With("run", uuid.NewString())
}

// consoleDeps wires pipeline callbacks to console output.
func consoleDeps() pipeline.Deps {
	live := ui.IsTerminal(os.Stdout)
	return pipeline.Deps{
		OnResolved: func(_ model.MediaReference, _ *model.ResolvedMedia, elapsed time.Duration) {
			ui.PrintTiming("Got download url in " + helpers.FormatElapsed(elapsed))
		},
		OnDownloadStart: func(ref model.MediaReference, title, _ string) {
			ui.PrintDownload(fmt.Sprintf("Downloading %s: %s", ref.Kind.Label(), title))
		},
		NewSink: func(kind model.PlanKind) download.Sink {
			return ui.NewProgressBar(os.Stdout, ui.UnitFor(kind), live)
		},
	}
}

// report prints the outcome of a run and returns the process exit code.
func report(res *pipeline.Result, err error) int {
	switch {
	case err == nil:
		ui.PrintTiming(fmt.Sprintf("Downloaded %s in %s",
			humanize.Bytes(uint64(max(res.Bytes, 0))), helpers.FormatElapsed(res.DownloadElapsed)))
		ui.PrintSaved(res.Path)
		return 0
	case errors.Is(err, model.ErrInvalidURL):
		ui.PrintWarning("Unsupported url: " + err.Error())
		return 0
	case errors.Is(err, model.ErrNotImplemented):
		ui.PrintWarning("Not supported yet: " + err.Error())
		return 0
	default:
		ui.PrintError(err.Error())
		return 1
	}
}
