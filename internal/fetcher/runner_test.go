package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchhound/patchhound/internal/spider"
	"github.com/patchhound/patchhound/internal/vuln"
)

const commitPatch = "https://github.com/uclouvain/openjpeg/commit/162f6199c0cd3ec1c6c6dc65e41b2faab92b2d91.patch"

func TestRunnerCrawlsToCompletion(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body>
			<a href="%s">fix</a>
			<a href="%s/next">advisory thread</a>
		</body></html>`, commitPatch, ts.URL)
	})
	mux.HandleFunc("/next", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body>
			<a href="https://git.kernel.org/stable/patch/?id=a89b4ce00ae36ce0e8ffe194d1a704384a6acac0">backport</a>
			<a href="%s/too-deep">further discussion</a>
		</body></html>`, ts.URL)
	})
	tooDeepFetched := false
	mux.HandleFunc("/too-deep", func(w http.ResponseWriter, r *http.Request) {
		tooDeepFetched = true
	})

	root := &vuln.Descriptor{
		ID:             "CVE-2016-4796",
		Kind:           vuln.Specific,
		BaseURL:        ts.URL + "/start",
		EntrypointURLs: []string{ts.URL + "/start"},
	}
	cfg := spider.DefaultConfig() // depth limit 1
	driver := spider.NewDriver(root, cfg, vuln.NewRegistry())

	runner := NewRunner(New(testConfig()), driver)

	var streamed []spider.Patch
	runner.OnPatch = func(p spider.Patch) {
		streamed = append(streamed, p)
	}

	patches, err := runner.Run(context.Background())
	require.NoError(t, err)

	links := make([]string, 0, len(patches))
	for _, p := range patches {
		links = append(links, p.PatchLink)
	}
	assert.ElementsMatch(t, []string{
		commitPatch,
		"https://git.kernel.org/stable/patch/?id=a89b4ce00ae36ce0e8ffe194d1a704384a6acac0",
	}, links)

	// Links found at the depth ceiling are never followed.
	assert.False(t, tooDeepFetched)
	assert.Len(t, streamed, len(patches))
}

func TestRunnerSkipsFailedFetches(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body>
			<a href="%s">fix</a>
			<a href="%s/missing">dead link</a>
		</body></html>`, commitPatch, ts.URL)
	})

	root := &vuln.Descriptor{
		ID:             "CVE-2016-4796",
		Kind:           vuln.Specific,
		BaseURL:        ts.URL + "/start",
		EntrypointURLs: []string{ts.URL + "/start"},
	}
	driver := spider.NewDriver(root, spider.DefaultConfig(), vuln.NewRegistry())

	runner := NewRunner(New(testConfig()), driver)
	patches, err := runner.Run(context.Background())

	// The 404 on /missing is skipped, not fatal.
	require.NoError(t, err)
	require.Len(t, patches, 1)
	assert.Equal(t, commitPatch, patches[0].PatchLink)
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := &vuln.Descriptor{
		ID:             "CVE-2016-4796",
		Kind:           vuln.Specific,
		BaseURL:        "https://example.com/start",
		EntrypointURLs: []string{"https://example.com/start"},
	}
	driver := spider.NewDriver(root, spider.DefaultConfig(), vuln.NewRegistry())

	runner := NewRunner(New(testConfig()), driver)
	_, err := runner.Run(ctx)
	assert.Error(t, err)
}
