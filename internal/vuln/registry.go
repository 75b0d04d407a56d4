package vuln

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnrecognizedIdentifier is returned by Resolve when an identifier
// matches no known advisory family.
var ErrUnrecognizedIdentifier = errors.New("unrecognised vulnerability identifier")

var (
	cvePattern  = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)
	dsaPattern  = regexp.MustCompile(`^DSA-\d+(?:-\d+)?$`)
	glsaPattern = regexp.MustCompile(`^GLSA-(\d{6}-\d{2})$`)

	// Scanning variants used to pull identifiers out of page content.
	cveScan      = regexp.MustCompile(`CVE-\d{4}-\d{4,}`)
	dsaScan      = regexp.MustCompile(`DSA-\d+(?:-\d+)?`)
	glsaTextScan = regexp.MustCompile(`GLSA[- ](\d{6}-\d{2})`)
	glsaLinkScan = regexp.MustCompile(`glsa-(\d{6}-\d{2})\.xml`)
)

// Source page URL prefixes the traversal driver treats as
// vulnerability-source pages (alias extraction applies before ordinary
// link discovery).
var sourceURLPrefixes = []string{
	"https://security-tracker.debian.org/tracker/",
	"https://gitweb.gentoo.org/data/glsa.git/plain/",
	"https://access.redhat.com/labs/securitydataapi/",
	"https://cve.circl.lu/cve/",
}

// Registry maps identifier families to base URLs and entrypoint URLs.
type Registry struct{}

// NewRegistry returns a Registry covering the CVE, DSA and GLSA families.
func NewRegistry() *Registry {
	return &Registry{}
}

// Resolve determines the kind, base URL and entrypoint URLs for id.
// Returns ErrUnrecognizedIdentifier when id matches no known family.
func (r *Registry) Resolve(id string) (*Descriptor, error) {
	id = strings.TrimSpace(id)

	switch {
	case cvePattern.MatchString(id):
		return &Descriptor{
			ID:      id,
			Kind:    Specific,
			BaseURL: "https://nvd.nist.gov/vuln/detail/" + id,
			EntrypointURLs: []string{
				"https://cve.circl.lu/cve/" + id,
				"https://security-tracker.debian.org/tracker/" + id,
				"https://access.redhat.com/labs/securitydataapi/cve/" + id + ".json",
			},
		}, nil

	case dsaPattern.MatchString(id):
		return &Descriptor{
			ID:      id,
			Kind:    Generic,
			BaseURL: "https://security-tracker.debian.org/tracker/" + id,
		}, nil

	case glsaPattern.MatchString(id):
		m := glsaPattern.FindStringSubmatch(id)
		return &Descriptor{
			ID:      id,
			Kind:    Generic,
			BaseURL: "https://gitweb.gentoo.org/data/glsa.git/plain/glsa-" + m[1] + ".xml",
		}, nil
	}

	return nil, fmt.Errorf("%q: %w", id, ErrUnrecognizedIdentifier)
}

// IsSourceURL reports whether url points at a recognised
// vulnerability-tracking source page.
func (r *Registry) IsSourceURL(url string) bool {
	for _, prefix := range sourceURLPrefixes {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// FindSpecificIDs scans s for Specific-kind identifiers (CVEs).
func FindSpecificIDs(s string) []string {
	return cveScan.FindAllString(s, -1)
}

// FindGenericIDs scans s for Generic-kind identifiers. GLSA references
// appear both as "GLSA 200601-06" style text and as glsa-200601-06.xml
// link paths; both normalise to the GLSA-nnnnnn-nn form.
func FindGenericIDs(s string) []string {
	var ids []string
	ids = append(ids, dsaScan.FindAllString(s, -1)...)
	for _, m := range glsaTextScan.FindAllStringSubmatch(s, -1) {
		ids = append(ids, "GLSA-"+m[1])
	}
	for _, m := range glsaLinkScan.FindAllStringSubmatch(s, -1) {
		ids = append(ids, "GLSA-"+m[1])
	}
	return ids
}
