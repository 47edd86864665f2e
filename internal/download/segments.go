package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/jmagar/vodgrab/internal/helpers"
	"github.com/jmagar/vodgrab/internal/model"
)

// DownloadSegments fetches segURLs with up to e.concurrency requests in flight
// and appends their bodies to dest strictly in list order. The progress total
// is the segment count. The first failing segment aborts the whole download.
func (e *Executor) DownloadSegments(ctx context.Context, dest string, segURLs []string, sink Sink) (int64, error) {
	defer sink.Finish()

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, helpers.WrapIO("create", dest, err)
	}
	defer f.Close()

	sink.SetTotal(int64(len(segURLs)))
	e.log.Debug("segmented download", "dest", dest, "segments", len(segURLs), "workers", e.concurrency)

	g, gctx := errgroup.WithContext(ctx)

	// slots[i] receives segment i's body. tokens bounds fetched-but-unwritten
	// segments, so memory stays at e.concurrency bodies.
	slots := make([]chan []byte, len(segURLs))
	for i := range slots {
		slots[i] = make(chan []byte, 1)
	}
	tokens := make(chan struct{}, e.concurrency)

	g.Go(func() error {
		for i, segURL := range segURLs {
			i, segURL := i, segURL
			select {
			case tokens <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			g.Go(func() error {
				body, err := e.fetchSegment(gctx, i, segURL)
				if err != nil {
					return err
				}
				slots[i] <- body
				return nil
			})
		}
		return nil
	})

	var written int64
	g.Go(func() error {
		for i := range segURLs {
			var body []byte
			select {
			case body = <-slots[i]:
			case <-gctx.Done():
				return gctx.Err()
			}
			n, err := f.Write(body)
			written += int64(n)
			if err != nil {
				return helpers.WrapIO("write", dest, err)
			}
			<-tokens
			sink.Advance(1)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if !errors.Is(err, model.ErrUpstream) && !errors.Is(err, model.ErrIO) {
			err = fmt.Errorf("%w: segmented download: %w", model.ErrUpstream, err)
		}
		return written, err
	}
	if err := f.Close(); err != nil {
		return written, helpers.WrapIO("close", dest, err)
	}
	return written, nil
}

func (e *Executor) fetchSegment(ctx context.Context, idx int, segURL string) ([]byte, error) {
	resp, err := e.get(ctx, segURL)
	if err != nil {
		return nil, fmt.Errorf("%w: segment %d: %w", model.ErrUpstream, idx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: segment %d: %s", model.ErrUpstream, idx, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: segment %d: %w", model.ErrUpstream, idx, err)
	}
	return body, nil
}
