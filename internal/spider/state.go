package spider

import (
	"sync"

	"github.com/patchhound/patchhound/internal/vuln"
)

// crawlState tracks patch capture for one run. Handle may be called
// concurrently for pages completing out of order, so the
// check-and-increment against the limit and the dedup insertion happen
// in a single critical section.
type crawlState struct {
	mu      sync.Mutex
	visited map[string]struct{}
	count   int
	limit   int
}

func newCrawlState(limit int) *crawlState {
	return &crawlState{
		visited: make(map[string]struct{}),
		limit:   limit,
	}
}

// addPatch records a patch link. Returns false when the link is a
// duplicate or the run's patch budget is exhausted.
func (s *crawlState) addPatch(link string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count >= s.limit {
		return false
	}
	if _, dup := s.visited[link]; dup {
		return false
	}
	s.visited[link] = struct{}{}
	s.count++
	return true
}

// budgetLeft reports whether the patch limit has not been reached yet.
func (s *crawlState) budgetLeft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count < s.limit
}

// aliasState tracks which identifiers have been resolved and which
// generic advisories have already had their base page requested.
type aliasState struct {
	mu       sync.Mutex
	resolved map[string]*vuln.Descriptor
	pending  map[string]struct{}
	byURL    map[string]*vuln.Descriptor
}

func newAliasState() *aliasState {
	return &aliasState{
		resolved: make(map[string]*vuln.Descriptor),
		pending:  make(map[string]struct{}),
		byURL:    make(map[string]*vuln.Descriptor),
	}
}

// addResolved records d as a resolved alias. Returns false when the
// identifier was already recorded.
func (s *aliasState) addResolved(d *vuln.Descriptor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.resolved[d.ID]; seen {
		return false
	}
	s.resolved[d.ID] = d
	return true
}

func (s *aliasState) isResolved(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, seen := s.resolved[id]
	return seen
}

// addPending marks a generic advisory as requested. Returns false when
// it was already pending.
func (s *aliasState) addPending(d *vuln.Descriptor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.pending[d.ID]; seen {
		return false
	}
	s.pending[d.ID] = struct{}{}
	s.byURL[d.BaseURL] = d
	return true
}

// descriptorForURL returns the pending generic advisory whose base URL
// is url, if any.
func (s *aliasState) descriptorForURL(url string) (*vuln.Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byURL[url]
	return d, ok
}

// aliases returns the resolved alias descriptors in no particular order.
func (s *aliasState) aliases() []*vuln.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*vuln.Descriptor, 0, len(s.resolved))
	for _, d := range s.resolved {
		out = append(out, d)
	}
	return out
}
