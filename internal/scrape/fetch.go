// Package scrape collects product and seller details from public review and
// storefront pages.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// FeefoProductURL is the public Feefo page for one SKU; %s is the
	// query-escaped SKU.
	FeefoProductURL = "https://www.feefo.com/en-GB/reviews/notonthehighstreet-com/products/*?sku=%s&displayFeedbackType=PRODUCT&timeFrame=ALL"

	visitProductSelector = "a#product-info-visit-product-page-button"
)

// FeefoURL formats pattern for sku.
func FeefoURL(pattern, sku string) string {
	return fmt.Sprintf(pattern, url.QueryEscape(sku))
}

type fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// document GETs target within the per-request timeout and parses the body.
// Non-2xx answers are errors.
func (f fetcher) document(ctx context.Context, target string) (*goquery.Document, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	client := f.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: status %d", target, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// spacedText joins the text nodes below the selection with single spaces,
// so "12<br>reviews" reads "12 reviews".
func spacedText(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
