package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/sift/internal/feed"
	"github.com/abelbrown/sift/internal/logging"
)

// maxConcurrentFetches limits parallel fetch operations.
const maxConcurrentFetches = 4

// fetchTimeout bounds each individual source fetch.
const fetchTimeout = 30 * time.Second

// fetcher interface for dependency injection (testing).
type fetcher interface {
	Fetch(ctx context.Context, src Source) ([]feed.Item, error)
}

// Coordinator periodically fetches all sources and appends new items
// into the document. Context cancellation is the only stop mechanism.
type Coordinator struct {
	doc     *feed.Document
	fetcher fetcher
	sources []Source
	wg      sync.WaitGroup
}

// NewCoordinator creates a Coordinator. The sources slice is copied;
// the set is immutable after construction.
func NewCoordinator(doc *feed.Document, f fetcher, sources []Source) *Coordinator {
	copied := make([]Source, len(sources))
	copy(copied, sources)
	return &Coordinator{doc: doc, fetcher: f, sources: copied}
}

// Start begins background fetching: one immediate cycle, then one per
// interval until the context is cancelled.
func (c *Coordinator) Start(ctx context.Context, interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.fetchAll(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.fetchAll(ctx)
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// fetchAll fetches every source in parallel. Per-source failures are
// logged and never fail the cycle.
func (c *Coordinator) fetchAll(ctx context.Context) {
	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)

	for _, src := range c.sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			c.fetchSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Coordinator) fetchSource(ctx context.Context, src Source) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	items, err := c.fetcher.Fetch(fetchCtx, src)
	if err != nil {
		logging.Warn("fetch failed", "source", src.Name, "error", err)
		return
	}

	added := c.doc.Append(items...)
	if added > 0 {
		logging.Debug("fetched", "source", src.Name, "new", added)
	}
}
