// Package links enumerates document links on a listing page.
package links

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/civisort/county-ingest/internal/model"
)

// Enumerate returns every anchor whose href ends with suffix, in page
// order. Hrefs without a scheme are prefixed with siteRoot; absolute hrefs
// are kept as-is. sourceURL is recorded on each link.
func Enumerate(r io.Reader, siteRoot, sourceURL, suffix string) ([]model.DocumentLink, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "links: parse html")
	}

	var out []model.DocumentLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || !strings.HasSuffix(href, suffix) {
			return
		}
		out = append(out, model.DocumentLink{
			URL:        Absolute(siteRoot, href),
			AnchorText: collapseSpace(s.Text()),
			SourceURL:  sourceURL,
		})
	})
	return out, nil
}

// Absolute prefixes site-relative hrefs with siteRoot. Hrefs that already
// carry a scheme, in any case, are returned unchanged.
func Absolute(siteRoot, href string) string {
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return href
	}
	root := strings.TrimRight(siteRoot, "/")
	if strings.HasPrefix(href, "//") {
		scheme := "https:"
		if i := strings.Index(root, "//"); i > 0 {
			scheme = root[:i]
		}
		return scheme + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return root + href
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
