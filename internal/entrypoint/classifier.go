package entrypoint

import (
	"net/url"
	"regexp"
	"strings"
)

// Host-specific patch conventions. Checked before the generic
// extension rule so a tracker-specific match always wins.
var patchHostPatterns = []*regexp.Regexp{
	// GitHub / GitLab commit and compare views, with or without the
	// .patch/.diff suffix.
	regexp.MustCompile(`^https?://github\.com/[^/]+/[^/]+/(?:commit|compare)/[0-9a-fA-F.]+`),
	regexp.MustCompile(`^https?://gitlab\.[^/]+/.+/(?:-/)?commit/[0-9a-fA-F]+`),
	// kernel.org and other cgit/gitweb instances expose commits via an
	// id query parameter on commit/commitdiff/patch views.
	regexp.MustCompile(`^https?://[^/]+/.*(?:commit|commitdiff|patch)/?.*[?&;]id=[0-9a-fA-F]{7,}`),
	// Pagure commit pages.
	regexp.MustCompile(`^https?://pagure\.io/.+/c/[0-9a-fA-F]{7,}`),
}

// IsPatch reports whether url looks like a direct patch artifact. It
// is a pure heuristic over URL structure: total, deterministic, and
// never matching is simply "not a patch".
func IsPatch(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}

	for _, p := range patchHostPatterns {
		if p.MatchString(rawURL) {
			return true
		}
	}

	path := strings.ToLower(u.Path)
	return strings.HasSuffix(path, ".patch") || strings.HasSuffix(path, ".diff")
}
