// Package page turns fetched bodies into traversable documents and
// applies extraction rules to them. HTML is handled with goquery, XML
// with xmlquery, and JSON is transcoded into an XPath-traversable tree
// so the same rule mechanism covers API responses.
package page

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/jsonquery"
	"github.com/antchfx/xmlquery"

	"github.com/patchhound/patchhound/internal/entrypoint"
)

// Page is one fetched document handed to the traversal engine.
type Page struct {
	URL         string
	Body        []byte
	ContentType string

	// Depth is the traversal depth the request that produced this page
	// was issued at. Alias-resolution pages carry depth 0.
	Depth int

	// AliasPass marks pages fetched to resolve a generic advisory
	// rather than through ordinary traversal.
	AliasPass bool
}

// Document is a parsed page plus the extraction rules that apply to it.
type Document struct {
	base  *url.URL
	rules entrypoint.RuleSet

	html *goquery.Document
	xml  *xmlquery.Node
	json *jsonquery.Node
}

// Parse builds a Document from a fetched page. The parser is chosen by
// URL shape first (a GLSA path is XML even when served as text/plain),
// then by content type.
func Parse(p *Page) (*Document, error) {
	base, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	rules := entrypoint.RulesFor(p.URL)
	doc := &Document{base: base, rules: rules}

	ct := strings.ToLower(p.ContentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}

	switch {
	case rules.Kind == entrypoint.RedHatJSON || strings.HasPrefix(ct, "application/json"):
		doc.json, err = jsonquery.Parse(bytes.NewReader(p.Body))
	case rules.Kind == entrypoint.GentooGLSA || strings.Contains(ct, "xml") || strings.HasSuffix(base.Path, ".xml"):
		doc.xml, err = xmlquery.Parse(bytes.NewReader(p.Body))
	default:
		doc.html, err = goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	}
	if err != nil {
		return nil, fmt.Errorf("parse page body: %w", err)
	}

	return doc, nil
}

// Rules returns the extraction rules selected for this document.
func (d *Document) Rules() entrypoint.RuleSet {
	return d.rules
}

// Links extracts navigable link candidates as absolute URLs, in
// document order. Unusable hrefs (fragments, javascript:, mailto:,
// non-HTTP schemes) are dropped.
func (d *Document) Links() []string {
	var links []string

	switch {
	case d.html != nil:
		for _, sel := range d.rules.NavSelectors {
			d.html.Find(sel).Each(func(_ int, s *goquery.Selection) {
				if link := d.cleanLink(s.AttrOr("href", "")); link != "" {
					links = append(links, link)
				}
			})
		}

	case d.xml != nil:
		for _, expr := range d.rules.NavSelectors {
			nodes, err := xmlquery.QueryAll(d.xml, expr)
			if err != nil {
				continue
			}
			for _, n := range nodes {
				if link := d.cleanLink(n.InnerText()); link != "" {
					links = append(links, link)
				}
			}
		}

	case d.json != nil:
		for _, expr := range d.rules.NavSelectors {
			nodes, err := jsonquery.QueryAll(d.json, expr)
			if err != nil {
				continue
			}
			for _, n := range nodes {
				v := strings.TrimSpace(n.InnerText())
				if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
					links = append(links, v)
				}
			}
		}
	}

	return links
}

// TextChunks extracts the text of alias-candidate nodes. Identifier
// matching over the chunks is the caller's concern.
func (d *Document) TextChunks() []string {
	var chunks []string

	switch {
	case d.html != nil:
		for _, sel := range d.rules.AliasSelectors {
			d.html.Find(sel).Each(func(_ int, s *goquery.Selection) {
				if t := strings.TrimSpace(s.Text()); t != "" {
					chunks = append(chunks, t)
				}
			})
		}

	case d.xml != nil:
		for _, expr := range d.rules.AliasSelectors {
			nodes, err := xmlquery.QueryAll(d.xml, expr)
			if err != nil {
				continue
			}
			for _, n := range nodes {
				if t := strings.TrimSpace(n.InnerText()); t != "" {
					chunks = append(chunks, t)
				}
			}
		}

	case d.json != nil:
		for _, expr := range d.rules.AliasSelectors {
			nodes, err := jsonquery.QueryAll(d.json, expr)
			if err != nil {
				continue
			}
			for _, n := range nodes {
				if t := strings.TrimSpace(n.InnerText()); t != "" {
					chunks = append(chunks, t)
				}
			}
		}
	}

	return chunks
}

// cleanLink validates an href and resolves it against the page URL.
func (d *Document) cleanLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	abs := d.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
