// Package site renders the full report tree from the materialised data
// snapshots.
package site

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nothsreports/internal/affiliate"
	"nothsreports/internal/catalog"
	"nothsreports/internal/rank"
	"nothsreports/internal/render"
	"nothsreports/internal/sitewrite"
)

// Input file names below Options.DataDir.
const (
	SellersFile          = "sellers.json"
	ProductsAllTimeFile  = "products_all_time.json"
	ProductsLast12MFile  = "products_last_12_months.json"
	ProductsLastMonth    = "products_last_month.json"
	TopPerPartnerFile    = "top_product_per_partner.json"
	PartnerDirectoryFile = "hollyco_sellers.json"
)

// Options configure one site build.
type Options struct {
	DataDir   string
	StaticDir string

	Title        string
	BaseURL      string
	StaticPath   string
	SellerTopN   int
	ReviewBands  rank.Bands
	ProductBands rank.Bands

	// SitemapChunk caps the URLs per sitemap file; zero means the protocol
	// maximum.
	SitemapChunk int
	// Now fixes the run date used for sitemap lastmod values.
	Now time.Time
}

// Step is one named unit of the build.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// StepStatus is how a step ended.
type StepStatus int

const (
	StepOK StepStatus = iota
	StepSkipped
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepSkipped:
		return "skipped"
	case StepFailed:
		return "failed"
	default:
		return "ok"
	}
}

// StepResult records one executed step.
type StepResult struct {
	Name     string
	Status   StepStatus
	Err      error
	Duration time.Duration
}

// Summary is the outcome of a whole build.
type Summary struct {
	RunID string
	Steps []StepResult
	Pages sitewrite.Stats
}

// Count returns how many steps ended with status s.
func (s Summary) Count(status StepStatus) int {
	n := 0
	for _, r := range s.Steps {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any step failed for a reason other than a missing
// optional input.
func (s Summary) Failed() bool {
	return s.Count(StepFailed) > 0
}

// Builder renders the site from the data directory in a fixed sequence of steps.
type Builder struct {
	opts     Options
	renderer *render.Renderer
	writer   *sitewrite.Writer
	links    affiliate.Normalizer
	log      *zap.Logger
	runID    string

	partners []catalog.Partner
	bySlug   map[string]catalog.Partner
	pages    []string
}

// NewBuilder returns a Builder with a fresh run id.
func NewBuilder(opts Options, r *render.Renderer, w *sitewrite.Writer, links affiliate.Normalizer, log *zap.Logger) *Builder {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.SellerTopN <= 0 {
		opts.SellerTopN = 100
	}
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Builder{
		opts:     opts,
		renderer: r,
		writer:   w,
		links:    links,
		log:      log.With(zap.String("run_id", id)),
		runID:    id,
	}
}

// RunID identifies this build in logs and snapshots.
func (b *Builder) RunID() string { return b.runID }

// Steps returns the build sequence in execution order.
func (b *Builder) Steps() []Step {
	return []Step{
		{"home", b.renderHome},
		{"static", b.copyStatic},
		{"seller-pages", b.renderSellerPages},
		{"seller-index", b.renderSellerIndex},
		{"seller-by-year", b.renderSellerByYear},
		{"seller-most-reviews", b.renderSellerMostReviews},
		{"seller-most-products", b.renderSellerMostProducts},
		{"seller-review-bands", b.renderReviewBands},
		{"seller-product-bands", b.renderProductBands},
		{"products-all-time", b.productList(ProductsAllTimeFile, "products-all-time.html", "Most reviewed products of all time")},
		{"products-last-12-months", b.productList(ProductsLast12MFile, "products-last-12-months.html", "Most reviewed products of the last 12 months")},
		{"products-last-month", b.productList(ProductsLastMonth, "products-last-month.html", "Most reviewed products of the last month")},
		{"top-product-per-partner", b.renderTopPerPartner},
		{"partner-directory", b.renderPartnerDirectory},
		{"sitemap", b.writeSitemap},
	}
}

// Run loads the sellers snapshot and executes every step. A missing or
// unreadable sellers file aborts the run; any other step error is recorded
// in the summary and the build moves on.
func (b *Builder) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: b.runID}

	partners, skipped, err := catalog.ReadPartners(b.dataPath(SellersFile))
	if err != nil {
		return sum, fmt.Errorf("load sellers: %w", err)
	}
	b.logSkipped(SellersFile, skipped)
	b.partners = partners
	b.bySlug = make(map[string]catalog.Partner, len(partners))
	for _, p := range partners {
		b.bySlug[p.Slug] = p
	}
	b.pages = nil
	b.log.Info("loaded sellers", zap.Int("count", len(partners)))

	for _, step := range b.Steps() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		start := time.Now()
		err := step.Run(ctx)
		res := StepResult{Name: step.Name, Err: err, Duration: time.Since(start)}
		switch {
		case err == nil:
			res.Status = StepOK
			b.log.Info("step done", zap.String("step", step.Name), zap.Duration("took", res.Duration))
		case errors.Is(err, catalog.ErrInputMissing):
			res.Status = StepSkipped
			b.log.Warn("step skipped", zap.String("step", step.Name), zap.Error(err))
		default:
			res.Status = StepFailed
			b.log.Error("step failed", zap.String("step", step.Name), zap.Error(err))
		}
		sum.Steps = append(sum.Steps, res)
	}

	sum.Pages = b.writer.Stats()
	b.log.Info("build finished",
		zap.Int("ok", sum.Count(StepOK)),
		zap.Int("skipped", sum.Count(StepSkipped)),
		zap.Int("failed", sum.Count(StepFailed)),
		zap.Int("updated", sum.Pages.Updated),
		zap.Int("unchanged", sum.Pages.Unchanged),
	)
	return sum, nil
}

func (b *Builder) dataPath(name string) string {
	return filepath.Join(b.opts.DataDir, name)
}

// page renders tmpl into rel and records rel for the sitemap.
func (b *Builder) page(rel, tmpl string, ctx render.Context) (sitewrite.Status, error) {
	if ctx == nil {
		ctx = render.Context{}
	}
	if _, ok := ctx["title"]; !ok {
		ctx["title"] = b.opts.Title
	}
	ctx["static_path"] = b.opts.StaticPath
	ctx["base_url"] = b.opts.BaseURL

	html, err := b.renderer.Render(tmpl, ctx)
	if err != nil {
		return sitewrite.Unchanged, err
	}
	st, err := b.writer.WriteString(rel, html)
	if err != nil {
		return st, err
	}
	b.pages = append(b.pages, rel)
	b.log.Debug("page written", zap.String("path", rel), zap.Stringer("status", st))
	return st, nil
}

func (b *Builder) logSkipped(file string, skipped []catalog.Skipped) {
	for _, sk := range skipped {
		b.log.Warn("partner record skipped",
			zap.String("file", file),
			zap.Int("index", sk.Index),
			zap.String("slug", sk.Slug),
			zap.String("reason", sk.Reason),
		)
	}
}
