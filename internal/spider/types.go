// Package spider implements the resolution-and-traversal engine: alias
// expansion for generic advisories, patch-link capture with dedup and
// limit enforcement, and priority/depth-bounded frontier traversal.
// The engine performs no network I/O; the fetcher feeds it one page at
// a time and dispatches the requests it emits.
package spider

// Result is one outcome of handling a fetched page: a discovered Patch
// or a follow-up FetchRequest. Ordering within a returned sequence is
// preserved.
type Result interface {
	isResult()
}

// Patch is a discovered fix artifact. Dedup across a run is by
// PatchLink only.
type Patch struct {
	PatchLink    string
	ReachingPath string
}

func (Patch) isResult() {}

// FetchRequest asks the fetch collaborator to retrieve a URL. Requests
// with Priority 1 must be dispatched before priority 0 requests, FIFO
// within the same priority.
type FetchRequest struct {
	URL      string
	Depth    int
	Priority int

	// AliasPass marks a request fetching a generic advisory's own page
	// for alias resolution; such pages do not count against traversal
	// depth.
	AliasPass bool
}

func (FetchRequest) isResult() {}
