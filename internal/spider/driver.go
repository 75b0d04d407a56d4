package spider

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/patchhound/patchhound/internal/page"
	"github.com/patchhound/patchhound/internal/util"
	"github.com/patchhound/patchhound/internal/vuln"
)

// pageHandler pairs a predicate with the handling logic for the pages
// it matches. The driver evaluates handlers in order and uses the
// first match.
type pageHandler struct {
	name   string
	match  func(p *page.Page) bool
	handle func(p *page.Page, doc *page.Document) []Result
}

// Driver routes fetched pages through the engine: source pages go to
// the alias resolver first, then every page feeds the crawl frontier.
// Safe for concurrent Handle calls.
type Driver struct {
	registry *vuln.Registry
	root     *vuln.Descriptor
	resolver *AliasResolver
	frontier *CrawlFrontier
	handlers []pageHandler

	mu      sync.Mutex
	sources map[string]*vuln.Descriptor
}

// NewDriver builds the engine for one crawl run rooted at root.
func NewDriver(root *vuln.Descriptor, cfg *Config, registry *vuln.Registry) *Driver {
	d := &Driver{
		registry: registry,
		root:     root,
		resolver: newAliasResolver(registry, root),
		frontier: newCrawlFrontier(cfg),
		sources:  make(map[string]*vuln.Descriptor),
	}

	d.handlers = []pageHandler{
		{
			name:   "vulnerability-source",
			match:  d.isSourcePage,
			handle: d.handleSourcePage,
		},
		{
			name: "default",
			match: func(*page.Page) bool {
				return true
			},
			handle: func(p *page.Page, doc *page.Document) []Result {
				return d.frontier.Advance(p.URL, p.Depth, doc)
			},
		},
	}

	return d
}

// Seed produces the initial fetch requests for the run's root
// descriptor: one per entrypoint URL, or exactly one for the base URL
// when the descriptor has no entrypoints (generic advisories must be
// parsed for aliases before anything else is known about them).
func (d *Driver) Seed() []Result {
	if len(d.root.EntrypointURLs) == 0 {
		d.registerSource(d.root.BaseURL, d.root)
		return []Result{FetchRequest{URL: d.root.BaseURL, AliasPass: true}}
	}

	out := make([]Result, 0, len(d.root.EntrypointURLs))
	for _, u := range d.root.EntrypointURLs {
		d.registerSource(u, d.root)
		out = append(out, FetchRequest{
			URL:      u,
			Priority: d.frontier.priorityFor(util.Hostname(u)),
		})
	}
	return out
}

// Handle processes one fetched page and returns the patches found on
// it plus any follow-up fetch requests. A page the content layer
// cannot parse yields no results; that is not an error.
func (d *Driver) Handle(p *page.Page) []Result {
	doc, err := page.Parse(p)
	if err != nil {
		log.Debug().Str("url", p.URL).Err(err).Msg("Unparseable page, skipping")
		return nil
	}

	for _, h := range d.handlers {
		if h.match(p) {
			log.Debug().
				Str("url", p.URL).
				Str("handler", h.name).
				Int("depth", p.Depth).
				Msg("Handling page")
			return h.handle(p, doc)
		}
	}
	return nil
}

// Aliases returns the Specific identifiers resolved during the run.
func (d *Driver) Aliases() []*vuln.Descriptor {
	return d.resolver.Aliases()
}

func (d *Driver) isSourcePage(p *page.Page) bool {
	if d.registry.IsSourceURL(p.URL) {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.sources[p.URL]
	return ok
}

// handleSourcePage runs the alias pass before ordinary link discovery;
// a source page can carry both alias references and direct patch
// links. Newly resolved aliases have their entrypoint URLs fed into
// the main traversal at depth 0.
func (d *Driver) handleSourcePage(p *page.Page, doc *page.Document) []Result {
	desc := d.descriptorFor(p.URL)

	requests, newAliases := d.resolver.DetermineAliases(desc, doc)
	for _, res := range requests {
		req, ok := res.(FetchRequest)
		if !ok {
			continue
		}
		if ref, found := d.resolver.descriptorForURL(req.URL); found {
			d.registerSource(req.URL, ref)
		}
	}

	// Entrypoints are only seeded for aliases of a generic advisory's
	// own page; ordinary source pages (e.g. a CVE's tracker entry) may
	// mention unrelated identifiers, which are recorded but not crawled.
	results := requests
	if p.AliasPass && d.frontier.state.budgetLeft() {
		for _, alias := range newAliases {
			for _, u := range alias.EntrypointURLs {
				d.registerSource(u, alias)
				results = append(results, FetchRequest{
					URL:      u,
					Priority: d.frontier.priorityFor(util.Hostname(u)),
				})
			}
		}
	}

	return append(results, d.frontier.Advance(p.URL, p.Depth, doc)...)
}

// descriptorFor maps a source page URL to the vulnerability it was
// fetched for, defaulting to the run's root.
func (d *Driver) descriptorFor(url string) *vuln.Descriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc, ok := d.sources[url]; ok {
		return desc
	}
	return d.root
}

func (d *Driver) registerSource(url string, desc *vuln.Descriptor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.sources[url]; !exists {
		d.sources[url] = desc
	}
}
