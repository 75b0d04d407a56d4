package spider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchhound/patchhound/internal/page"
	"github.com/patchhound/patchhound/internal/vuln"
)

// loadPage builds a Page from a testdata fixture.
func loadPage(t *testing.T, file, url, contentType string) *page.Page {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", file))
	require.NoError(t, err)
	return &page.Page{URL: url, Body: body, ContentType: contentType}
}

func parseFixture(t *testing.T, file, url, contentType string) *page.Document {
	t.Helper()
	doc, err := page.Parse(loadPage(t, file, url, contentType))
	require.NoError(t, err)
	return doc
}

func mustResolve(t *testing.T, registry *vuln.Registry, id string) *vuln.Descriptor {
	t.Helper()
	desc, err := registry.Resolve(id)
	require.NoError(t, err)
	return desc
}

func aliasIDs(r *AliasResolver) []string {
	var ids []string
	for _, d := range r.Aliases() {
		ids = append(ids, d.ID)
	}
	return ids
}

func requestURLs(results []Result) []string {
	var urls []string
	for _, res := range results {
		if req, ok := res.(FetchRequest); ok {
			urls = append(urls, req.URL)
		}
	}
	return urls
}

func TestDetermineAliasesWithNoGenericRefs(t *testing.T) {
	registry := vuln.NewRegistry()
	root := mustResolve(t, registry, "DSA-4444-1")
	resolver := newAliasResolver(registry, root)

	doc := parseFixture(t, "dsa_4444_1.html", root.BaseURL, "text/html")

	requests, newAliases := resolver.DetermineAliases(root, doc)
	assert.Empty(t, requests)
	assert.Len(t, newAliases, 4)

	assert.ElementsMatch(t, []string{
		"CVE-2018-12126",
		"CVE-2018-12127",
		"CVE-2018-12130",
		"CVE-2019-11091",
	}, aliasIDs(resolver))
}

func TestDetermineAliasesIsIdempotent(t *testing.T) {
	registry := vuln.NewRegistry()
	root := mustResolve(t, registry, "DSA-4444-1")
	resolver := newAliasResolver(registry, root)

	doc := parseFixture(t, "dsa_4444_1.html", root.BaseURL, "text/html")

	_, first := resolver.DetermineAliases(root, doc)
	assert.Len(t, first, 4)

	requests, second := resolver.DetermineAliases(root, doc)
	assert.Empty(t, requests)
	assert.Empty(t, second)
	assert.Len(t, resolver.Aliases(), 4)
}

func TestDetermineAliasesWithGenericRefAndCVE(t *testing.T) {
	registry := vuln.NewRegistry()
	root := mustResolve(t, registry, "GLSA-200602-01")
	resolver := newAliasResolver(registry, root)

	doc := parseFixture(t, "glsa_200602_01.xml", root.BaseURL, "text/plain")

	requests, _ := resolver.DetermineAliases(root, doc)

	assert.Equal(t, []string{"CVE-2005-4048"}, aliasIDs(resolver))
	assert.Equal(t,
		[]string{"https://gitweb.gentoo.org/data/glsa.git/plain/glsa-200601-06.xml"},
		requestURLs(requests))
}

func TestDetermineAliasesWithSameAliasInResultingPage(t *testing.T) {
	registry := vuln.NewRegistry()
	root := mustResolve(t, registry, "GLSA-200602-01")
	resolver := newAliasResolver(registry, root)

	doc := parseFixture(t, "glsa_200602_01.xml", root.BaseURL, "text/plain")
	requests, _ := resolver.DetermineAliases(root, doc)

	refURL := "https://gitweb.gentoo.org/data/glsa.git/plain/glsa-200601-06.xml"
	require.Contains(t, requestURLs(requests), refURL)

	ref, ok := resolver.descriptorForURL(refURL)
	require.True(t, ok)

	// The referenced advisory's page re-mentions the alias already
	// resolved; nothing new may be recorded or requested.
	refDoc := parseFixture(t, "glsa_200602_01.xml", refURL, "text/plain")
	requests, newAliases := resolver.DetermineAliases(ref, refDoc)

	assert.Empty(t, requests)
	assert.Empty(t, newAliases)
	assert.Equal(t, []string{"CVE-2005-4048"}, aliasIDs(resolver))
}

func TestDetermineAliasesWithOnlyGenericRefs(t *testing.T) {
	registry := vuln.NewRegistry()
	root := mustResolve(t, registry, "GLSA-200607-06")
	resolver := newAliasResolver(registry, root)

	doc := parseFixture(t, "glsa_200607_06.xml", root.BaseURL, "text/plain")

	requests, newAliases := resolver.DetermineAliases(root, doc)

	assert.Empty(t, newAliases)
	assert.Empty(t, resolver.Aliases())
	assert.ElementsMatch(t, []string{
		"https://gitweb.gentoo.org/data/glsa.git/plain/glsa-200601-06.xml",
		"https://gitweb.gentoo.org/data/glsa.git/plain/glsa-200603-02.xml",
		"https://gitweb.gentoo.org/data/glsa.git/plain/glsa-200605-04.xml",
	}, requestURLs(requests))
}

func TestDetermineAliasesWithNothingRecognisable(t *testing.T) {
	registry := vuln.NewRegistry()
	root := mustResolve(t, registry, "GLSA-200311-04")
	resolver := newAliasResolver(registry, root)

	doc := parseFixture(t, "glsa_200311_04.xml", root.BaseURL, "text/plain")

	requests, newAliases := resolver.DetermineAliases(root, doc)

	assert.Empty(t, requests)
	assert.Empty(t, newAliases)
	assert.Empty(t, resolver.Aliases())
}

func TestDetermineAliasesFromJSONSource(t *testing.T) {
	registry := vuln.NewRegistry()
	root := mustResolve(t, registry, "CVE-2016-4796")
	resolver := newAliasResolver(registry, root)

	body := `[{"CVE": "CVE-2015-5370"}, {"CVE": "CVE-2016-2110"}]`
	doc, err := page.Parse(&page.Page{
		URL:         "https://access.redhat.com/labs/securitydataapi/cve.json?advisory=foobar",
		Body:        []byte(body),
		ContentType: "application/json",
	})
	require.NoError(t, err)

	requests, _ := resolver.DetermineAliases(root, doc)

	assert.Empty(t, requests)
	assert.ElementsMatch(t, []string{"CVE-2015-5370", "CVE-2016-2110"}, aliasIDs(resolver))
}
