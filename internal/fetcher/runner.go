package fetcher

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/patchhound/patchhound/internal/spider"
)

// Runner drives a crawl to completion: it seeds the queue from the
// driver, fetches pending requests with a bounded worker pool, and
// feeds each page back through the driver until no work remains.
type Runner struct {
	fetcher *Fetcher
	driver  *spider.Driver
	queue   *requestQueue
	workers int

	// OnPatch, when set, is invoked for each patch as it is found.
	OnPatch func(spider.Patch)

	mu      sync.Mutex
	patches []spider.Patch
}

// NewRunner wires a fetcher and a traversal driver together.
func NewRunner(f *Fetcher, d *spider.Driver) *Runner {
	workers := f.config.MaxConcurrency
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		fetcher: f,
		driver:  d,
		queue:   newRequestQueue(),
		workers: workers,
	}
}

// Run executes the crawl and returns the discovered patches in the
// order they were found. Fetch failures are logged and skipped; only
// context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context) ([]spider.Patch, error) {
	for _, res := range r.driver.Seed() {
		if req, ok := res.(spider.FetchRequest); ok {
			r.queue.push(req)
		}
	}

	stop := context.AfterFunc(ctx, r.queue.close)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		g.Go(func() error {
			return r.work(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return r.collected(), err
	}
	return r.collected(), ctx.Err()
}

func (r *Runner) work(ctx context.Context) error {
	for {
		req, ok := r.queue.pop()
		if !ok {
			return nil
		}

		r.process(ctx, req)
		r.queue.taskDone()

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r *Runner) process(ctx context.Context, req spider.FetchRequest) {
	pg, err := r.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		log.Warn().
			Str("url", req.URL).
			Err(err).
			Msg("Fetch failed, skipping page")
		return
	}

	pg.Depth = req.Depth
	pg.AliasPass = req.AliasPass

	for _, res := range r.driver.Handle(pg) {
		switch v := res.(type) {
		case spider.Patch:
			r.record(v)
		case spider.FetchRequest:
			r.queue.push(v)
		}
	}
}

// record appends a patch and notifies OnPatch. The callback runs under
// the runner's lock so callers see patches serially, in found order.
func (r *Runner) record(p spider.Patch) {
	r.mu.Lock()
	r.patches = append(r.patches, p)
	if r.OnPatch != nil {
		r.OnPatch(p)
	}
	r.mu.Unlock()

	log.Info().
		Str("patch", p.PatchLink).
		Str("found_on", p.ReachingPath).
		Msg("Patch found")
}

func (r *Runner) collected() []spider.Patch {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]spider.Patch, len(r.patches))
	copy(out, r.patches)
	return out
}
