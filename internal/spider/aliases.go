package spider

import (
	"github.com/rs/zerolog/log"

	"github.com/patchhound/patchhound/internal/page"
	"github.com/patchhound/patchhound/internal/vuln"
)

// AliasResolver extracts referenced vulnerability identifiers from
// source pages. Specific identifiers (CVEs) are only recorded; the
// traversal driver decides what to do with their entrypoints. Generic
// advisories get exactly one fetch of their base page per run,
// regardless of how many other advisories reference them.
type AliasResolver struct {
	registry *vuln.Registry
	state    *aliasState
	rootID   string
}

func newAliasResolver(registry *vuln.Registry, root *vuln.Descriptor) *AliasResolver {
	r := &AliasResolver{
		registry: registry,
		state:    newAliasState(),
		rootID:   root.ID,
	}
	if root.Kind == vuln.Generic {
		// The root's own base page is seeded by the driver; never
		// re-request it when the page references itself.
		r.state.addPending(root)
	}
	return r
}

// DetermineAliases scans a source page for referenced identifiers.
// Newly seen Specific identifiers are resolved and recorded without
// emitting a fetch. Each not-yet-pending Generic cross reference emits
// one FetchRequest for its base URL so its own page can be resolved
// later. Idempotent: reprocessing the same content records nothing new
// and emits no requests.
func (r *AliasResolver) DetermineAliases(d *vuln.Descriptor, doc *page.Document) ([]Result, []*vuln.Descriptor) {
	var (
		requests   []Result
		newAliases []*vuln.Descriptor
	)

	chunks := append(doc.TextChunks(), doc.Links()...)

	for _, chunk := range chunks {
		for _, id := range vuln.FindSpecificIDs(chunk) {
			if id == r.rootID || id == d.ID || r.state.isResolved(id) {
				continue
			}
			alias, err := r.registry.Resolve(id)
			if err != nil {
				log.Debug().Str("id", id).Err(err).Msg("Skipping unresolvable alias")
				continue
			}
			if r.state.addResolved(alias) {
				log.Debug().Str("alias", id).Str("source", d.ID).Msg("Recorded alias")
				newAliases = append(newAliases, alias)
			}
		}

		for _, id := range vuln.FindGenericIDs(chunk) {
			if id == r.rootID || id == d.ID {
				continue
			}
			ref, err := r.registry.Resolve(id)
			if err != nil {
				log.Debug().Str("id", id).Err(err).Msg("Skipping unresolvable advisory reference")
				continue
			}
			if r.state.addPending(ref) {
				log.Debug().Str("advisory", id).Str("source", d.ID).Msg("Requesting referenced advisory")
				requests = append(requests, FetchRequest{
					URL:       ref.BaseURL,
					AliasPass: true,
				})
			}
		}
	}

	return requests, newAliases
}

// Aliases returns every Specific identifier resolved so far.
func (r *AliasResolver) Aliases() []*vuln.Descriptor {
	return r.state.aliases()
}

// descriptorForURL maps a pending generic advisory's base URL back to
// its descriptor.
func (r *AliasResolver) descriptorForURL(url string) (*vuln.Descriptor, bool) {
	return r.state.descriptorForURL(url)
}
