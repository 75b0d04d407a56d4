// Package vuln resolves vulnerability identifiers to their canonical
// tracker pages and crawl entrypoints.
package vuln

// Kind classifies a vulnerability identifier.
type Kind int

const (
	// Specific identifies exactly one flaw (e.g. a CVE).
	Specific Kind = iota
	// Generic identifies an advisory that may bundle several flaws and
	// reference other advisories (e.g. a DSA or GLSA).
	Generic
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	if k == Generic {
		return "generic"
	}
	return "specific"
}

// Descriptor is the canonical representation of one vulnerability.
// Immutable once constructed; the engine constructs at most one per
// distinct identifier per run.
type Descriptor struct {
	ID             string
	Kind           Kind
	BaseURL        string
	EntrypointURLs []string
}
