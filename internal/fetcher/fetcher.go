// Package fetcher is the network collaborator of the traversal engine:
// it retrieves pages with colly, schedules pending requests in priority
// order, and feeds each fetched page back through the driver.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/patchhound/patchhound/internal/page"
)

// Fetcher retrieves single pages over HTTP.
type Fetcher struct {
	config  *Config
	colly   *colly.Collector
	limiter *rate.Limiter
}

// New creates a Fetcher with the given configuration. If config is
// nil, default configuration is used.
func New(config *Config) *Fetcher {
	if config == nil {
		config = DefaultConfig()
	}

	c := colly.NewCollector(
		colly.UserAgent(config.UserAgent),
		colly.MaxDepth(1),
		colly.Async(true),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(int(config.MaxBodyBytes)),
	)

	c.SetClient(&http.Client{
		Timeout: config.DefaultTimeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 25,
			MaxConnsPerHost:     50,
			IdleConnTimeout:     120 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	})

	return &Fetcher{
		config:  config,
		colly:   c,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit),
	}
}

// Fetch retrieves one URL and returns the page, or an error on network
// failure or a non-2xx status. It respects context cancellation.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*page.Page, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Handlers are registered on a clone so concurrent fetches do not
	// observe each other's results.
	clone := f.colly.Clone()

	var (
		result   *page.Page
		fetchErr error
	)

	clone.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")

		log.Debug().
			Str("url", r.URL.String()).
			Msg("Fetching page")
	})

	clone.OnResponse(func(r *colly.Response) {
		result = &page.Page{
			URL:         r.Request.URL.String(),
			Body:        r.Body,
			ContentType: r.Headers.Get("Content-Type"),
		}
	})

	clone.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		if err := clone.Visit(rawURL); err != nil {
			done <- err
			return
		}
		clone.Wait()
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if fetchErr != nil {
		return nil, fetchErr
	}
	if result == nil {
		return nil, fmt.Errorf("no response for %s", rawURL)
	}
	return result, nil
}
