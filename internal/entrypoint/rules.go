// Package entrypoint decides, per page URL, which extraction rules
// apply and whether a link points at a patch artifact.
package entrypoint

import "strings"

// PageKind names the family of extraction rules for a page.
type PageKind int

const (
	// DefaultHTML applies to any page without a more specific rule set.
	DefaultHTML PageKind = iota
	// DebianTracker applies to security-tracker.debian.org pages.
	DebianTracker
	// GentooGLSA applies to the raw GLSA XML served from gitweb.gentoo.org.
	GentooGLSA
	// RedHatJSON applies to the Red Hat security data API.
	RedHatJSON
)

// RuleSet is the set of selector rules used to pull candidate links and
// alias-bearing text out of a fetched page. HTML rule sets use CSS
// selectors; XML and JSON rule sets use XPath expressions (JSON bodies
// are transcoded to an XPath-traversable tree first).
type RuleSet struct {
	Kind PageKind

	// NavSelectors locate navigable link candidates.
	NavSelectors []string

	// AliasSelectors locate text likely to name vulnerability
	// identifiers (CVE aliases, cross-referenced advisories).
	AliasSelectors []string
}

// RulesFor returns the extraction rules applicable to a page URL.
func RulesFor(rawURL string) RuleSet {
	switch {
	case strings.HasPrefix(rawURL, "https://security-tracker.debian.org/tracker/"):
		return RuleSet{
			Kind:           DebianTracker,
			NavSelectors:   []string{"table a[href]", "pre a[href]"},
			AliasSelectors: []string{"table a", "pre"},
		}

	case strings.HasPrefix(rawURL, "https://gitweb.gentoo.org/data/glsa.git/plain/"):
		return RuleSet{
			Kind:           GentooGLSA,
			NavSelectors:   []string{"//references//uri/@link", "//resolution//uri/@link"},
			AliasSelectors: []string{"//references//uri", "//synopsis"},
		}

	case strings.HasPrefix(rawURL, "https://access.redhat.com/labs/securitydataapi/"):
		return RuleSet{
			Kind:           RedHatJSON,
			NavSelectors:   []string{"//references/*", "//resources/*", "//upstream_fix"},
			AliasSelectors: []string{"//CVE", "//cve", "//advisory"},
		}
	}

	return RuleSet{
		Kind:         DefaultHTML,
		NavSelectors: []string{"body a[href]"},
	}
}
