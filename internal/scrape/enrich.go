package scrape

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"nothsreports/internal/catalog"
	"nothsreports/internal/feefo"
)

const (
	// FeefoReviewsURL is the Feefo page the enrichment job renders in a
	// browser; %s is the query-escaped SKU.
	FeefoReviewsURL = "https://www.feefo.com/en-US/reviews/notonthehighstreet-com/products/*?sku=%s&displayFeedbackType=PRODUCT&timeFrame=ALL"

	productTitleSelector = `[data-aqa-id="product-rating-title"]`
	sellerLinkSelector   = `a[href^="/"]`
)

// Browser renders a page, scripts included, and returns its HTML.
type Browser interface {
	HTML(ctx context.Context, url string) (string, error)
}

// ChromeBrowser drives a headless Chrome through chromedp.
type ChromeBrowser struct {
	ctx    context.Context
	cancel context.CancelFunc
	// Settle is waited after the body is ready so client-side rendering can
	// finish.
	Settle  time.Duration
	Timeout time.Duration
}

func NewChromeBrowser(parent context.Context, settle, timeout time.Duration) *ChromeBrowser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)
	return &ChromeBrowser{
		ctx: ctx,
		cancel: func() {
			cancelCtx()
			cancelAlloc()
		},
		Settle:  settle,
		Timeout: timeout,
	}
}

func (b *ChromeBrowser) HTML(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	runCtx := b.ctx
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(b.ctx, b.Timeout)
		defer cancel()
	}
	var out string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.Settle),
		chromedp.OuterHTML("html", &out, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return out, nil
}

// Close shuts the browser down.
func (b *ChromeBrowser) Close() {
	b.cancel()
}

// Candidate is a product from the weekly ratings export.
type Candidate struct {
	ProductCode string
	ReviewCount int
}

// Candidates picks the products with more than minReviews reviews from a
// ratings export.
func Candidates(sheet catalog.Sheet, minReviews int) ([]Candidate, error) {
	code := sheet.Index(feefo.ProductCodeColumn)
	count := sheet.Index("review_count")
	if code < 0 || count < 0 {
		return nil, fmt.Errorf("ratings export needs %q and review_count columns", feefo.ProductCodeColumn)
	}
	codes, counts := sheet.Column(code), sheet.Column(count)
	var out []Candidate
	for i := range codes {
		n := catalog.ParseCount(counts[i])
		if n <= minReviews || codes[i] == "" {
			continue
		}
		out = append(out, Candidate{ProductCode: productCode(codes[i]), ReviewCount: n})
	}
	return out, nil
}

// productCode drops the ".0" spreadsheets add to numeric codes.
func productCode(s string) string {
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// Review is one row of the web-ready review report.
type Review struct {
	ProductCode  string
	ProductTitle string
	Seller       string
	ReviewCount  int
	ProductURL   string
	FeefoURL     string
}

// Enricher visits each candidate's Feefo page and then its product page to
// collect the title, product link and seller name.
type Enricher struct {
	Browser    Browser
	URLPattern string
	Delay      time.Duration
	Log        *zap.Logger
}

func NewEnricher(b Browser, delay time.Duration, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{Browser: b, URLPattern: FeefoReviewsURL, Delay: delay, Log: log}
}

// Enrich processes candidates one at a time, waiting Delay between them. A
// candidate whose Feefo page cannot be rendered is left out; a missing
// title, link or seller is left blank.
func (e *Enricher) Enrich(ctx context.Context, candidates []Candidate) ([]Review, error) {
	var out []Review
	for i, c := range candidates {
		if i > 0 && e.Delay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(e.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		r, err := e.enrich(ctx, c)
		if err != nil {
			e.Log.Warn("enrichment failed", zap.String("product_code", c.ProductCode), zap.Error(err))
			continue
		}
		e.Log.Info("product enriched", zap.String("product_code", c.ProductCode), zap.String("seller", r.Seller))
		out = append(out, r)
	}
	return out, nil
}

func (e *Enricher) enrich(ctx context.Context, c Candidate) (Review, error) {
	r := Review{
		ProductCode: c.ProductCode,
		ReviewCount: c.ReviewCount,
		FeefoURL:    FeefoURL(e.URLPattern, c.ProductCode),
	}
	doc, err := e.document(ctx, r.FeefoURL)
	if err != nil {
		return r, err
	}
	r.ProductTitle = strings.TrimSpace(doc.Find(productTitleSelector).First().Text())
	r.ProductURL, _ = doc.Find(visitProductSelector).First().Attr("href")
	r.ProductURL = strings.TrimSpace(r.ProductURL)

	if r.ProductURL != "" {
		page, err := e.document(ctx, r.ProductURL)
		if err != nil {
			e.Log.Debug("product page unavailable", zap.String("url", r.ProductURL), zap.Error(err))
		} else {
			r.Seller = strings.TrimSpace(page.Find(sellerLinkSelector).First().Text())
		}
	}
	return r, nil
}

func (e *Enricher) document(ctx context.Context, url string) (*goquery.Document, error) {
	src, err := e.Browser.HTML(ctx, url)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(src))
}

// WriteReviews saves the report with the column names the website expects.
func WriteReviews(path string, reviews []Review) error {
	rows := make([][]any, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, []any{r.ProductCode, r.ProductTitle, r.Seller, r.ReviewCount, r.ProductURL, r.FeefoURL})
	}
	header := []string{"Product Code", "Product Title", "Seller", "Review Count", "NOTHS URL", "Feefo URL"}
	return catalog.WriteSheet(path, header, rows)
}
