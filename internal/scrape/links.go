package scrape

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"nothsreports/internal/catalog"
)

const (
	LinkNotFound     = "NOTHS link not found"
	ErrorPlaceholder = "Error"
)

// LinkResult is one row of the SKU link report.
type LinkResult struct {
	SKU        string
	FeefoURL   string
	ProductURL string
	Err        error
}

// LinkExtractor resolves SKUs to product page links by reading the "visit
// product page" button of each SKU's Feefo page.
type LinkExtractor struct {
	Client     *http.Client
	URLPattern string
	Workers    int
	Timeout    time.Duration
	UserAgent  string
	Log        *zap.Logger
}

func NewLinkExtractor(workers int, timeout time.Duration, userAgent string, log *zap.Logger) *LinkExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &LinkExtractor{
		Client:     &http.Client{},
		URLPattern: FeefoProductURL,
		Workers:    workers,
		Timeout:    timeout,
		UserAgent:  userAgent,
		Log:        log,
	}
}

// Extract looks up every SKU using a fixed pool of workers. Results are in
// input order. A failed lookup yields ErrorPlaceholder and never stops the
// batch.
func (e *LinkExtractor) Extract(ctx context.Context, skus []string) []LinkResult {
	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}
	f := fetcher{client: e.Client, userAgent: e.UserAgent, timeout: e.Timeout}

	results := make([]LinkResult, len(skus))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.lookup(ctx, f, skus[i])
			}
		}()
	}
	for i := range skus {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func (e *LinkExtractor) lookup(ctx context.Context, f fetcher, sku string) LinkResult {
	res := LinkResult{SKU: sku, FeefoURL: FeefoURL(e.URLPattern, sku)}
	doc, err := f.document(ctx, res.FeefoURL)
	if err != nil {
		res.ProductURL = ErrorPlaceholder
		res.Err = err
		e.Log.Warn("sku lookup failed", zap.String("sku", sku), zap.Error(err))
		return res
	}
	href, ok := doc.Find(visitProductSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		res.ProductURL = LinkNotFound
	} else {
		res.ProductURL = strings.TrimSpace(href)
	}
	e.Log.Info("sku resolved", zap.String("sku", sku), zap.String("url", res.ProductURL))
	return res
}

// WriteLinks saves results as SKU | Feefo URL | NOTHS URL.
func WriteLinks(path string, results []LinkResult) error {
	rows := make([][]any, 0, len(results))
	for _, r := range results {
		rows = append(rows, []any{r.SKU, r.FeefoURL, r.ProductURL})
	}
	return catalog.WriteSheet(path, []string{"SKU", "Feefo URL", "NOTHS URL"}, rows)
}
