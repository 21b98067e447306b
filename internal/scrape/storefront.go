package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"nothsreports/internal/catalog"
)

const (
	// NoReviews marks a storefront that shows no review count.
	NoReviews = "--"

	storefrontInfoSelector = "h4.toga-storefront-intro__information"
)

// StorefrontClient reads the current review count from seller storefronts.
type StorefrontClient struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	Log       *zap.Logger
}

func NewStorefrontClient(timeout time.Duration, userAgent string, log *zap.Logger) *StorefrontClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &StorefrontClient{Client: &http.Client{}, Timeout: timeout, UserAgent: userAgent, Log: log}
}

// ReviewCount returns the storefront's review count formatted with
// thousands separators, NoReviews when the page has none, or
// "ERROR: ..." when the page could not be fetched.
func (c *StorefrontClient) ReviewCount(ctx context.Context, storefrontURL string) string {
	f := fetcher{client: c.Client, userAgent: c.UserAgent, timeout: c.Timeout}
	doc, err := f.document(ctx, storefrontURL)
	if err != nil {
		return "ERROR: " + err.Error()
	}
	if n, ok := ParseReviewCount(doc); ok {
		return catalog.FormatCount(n)
	}
	return NoReviews
}

// ParseReviewCount reads the storefront intro line, e.g.
// "Est. 2015 / 1,234 reviews / London", and returns the digits of the first
// "/"-separated part that mentions reviews.
func ParseReviewCount(doc *goquery.Document) (int, bool) {
	h4 := doc.Find(storefrontInfoSelector).First()
	if h4.Length() == 0 {
		return 0, false
	}
	for _, part := range strings.Split(spacedText(h4), "/") {
		if !strings.Contains(strings.ToLower(part), "review") {
			continue
		}
		digits := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}
			return -1
		}, part)
		if digits == "" {
			return 0, false
		}
		return catalog.ParseCount(digits), true
	}
	return 0, false
}

// RefreshFile reads the sellers array at in, replaces each record's
// "reviews" field with the live storefront count and writes the result to
// out. Fields other than "reviews" are kept as they were.
func (c *StorefrontClient) RefreshFile(ctx context.Context, in, out string) (int, error) {
	b, err := os.ReadFile(in)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", catalog.ErrInputMissing, in)
		}
		return 0, err
	}
	var sellers []map[string]json.RawMessage
	if err := json.Unmarshal(b, &sellers); err != nil {
		return 0, fmt.Errorf("parse %s: %w", in, err)
	}

	for i, s := range sellers {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		var slug, target string
		_ = json.Unmarshal(s["slug"], &slug)
		_ = json.Unmarshal(s["url"], &target)

		count := NoReviews
		if target != "" {
			count = c.ReviewCount(ctx, target)
		}
		v, _ := json.Marshal(count)
		s["reviews"] = v
		c.Log.Info("seller refreshed", zap.String("slug", slug), zap.String("reviews", count))
	}
	return len(sellers), catalog.WriteJSON(out, sellers)
}
