package spider

import (
	"github.com/rs/zerolog/log"

	"github.com/patchhound/patchhound/internal/entrypoint"
	"github.com/patchhound/patchhound/internal/page"
	"github.com/patchhound/patchhound/internal/util"
)

// CrawlFrontier turns the links on a fetched page into Patch results
// and follow-up FetchRequests, enforcing the deny-domain policy, the
// depth ceiling and the run's patch budget.
type CrawlFrontier struct {
	cfg   *Config
	state *crawlState
}

func newCrawlFrontier(cfg *Config) *CrawlFrontier {
	return &CrawlFrontier{
		cfg:   cfg,
		state: newCrawlState(cfg.PatchLimit),
	}
}

// Advance processes the navigable links of one page fetched from
// currentURL at depth. Patch capture is not depth-limited (the patch
// page itself is never traversed further), but ordinary links found at
// the depth ceiling are not followed.
func (f *CrawlFrontier) Advance(currentURL string, depth int, doc *page.Document) []Result {
	var out []Result

	for _, link := range doc.Links() {
		host := util.Hostname(link)
		if host == "" || util.MatchesAny(host, f.cfg.DenyDomains) {
			continue
		}

		if entrypoint.IsPatch(link) {
			if f.state.addPatch(link) {
				log.Debug().Str("patch", link).Str("found_on", currentURL).Msg("Patch link captured")
				out = append(out, Patch{PatchLink: link, ReachingPath: currentURL})
			}
			continue
		}

		if !f.state.budgetLeft() || depth >= f.cfg.DepthLimit {
			continue
		}

		out = append(out, FetchRequest{
			URL:      link,
			Depth:    depth + 1,
			Priority: f.priorityFor(host),
		})
	}

	return out
}

func (f *CrawlFrontier) priorityFor(host string) int {
	if util.MatchesAny(host, f.cfg.PriorityDomains) {
		return 1
	}
	return 0
}
