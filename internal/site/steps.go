package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"nothsreports/internal/affiliate"
	"nothsreports/internal/catalog"
	"nothsreports/internal/rank"
	"nothsreports/internal/render"
	"nothsreports/internal/sitewrite"
)

var logoExts = []string{".png", ".jpg", ".webp", ".svg"}

func partnerName(p catalog.Partner) string  { return p.Name }
func partnerSince(p catalog.Partner) string { return p.Since }
func partnerReviews(p catalog.Partner) int  { return p.ReviewCount }
func partnerProducts(p catalog.Partner) int { return p.ProductCount }

func activeOnly(in []catalog.Partner) []catalog.Partner {
	out := make([]catalog.Partner, 0, len(in))
	for _, p := range in {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

func (b *Builder) renderHome(context.Context) error {
	_, err := b.page("index.html", "index.html", render.Context{
		"seller_count": len(b.partners),
	})
	return err
}

func (b *Builder) copyStatic(context.Context) error {
	info, err := os.Stat(b.opts.StaticDir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return fmt.Errorf("%w: static dir %s", catalog.ErrInputMissing, b.opts.StaticDir)
	}
	if err != nil {
		return err
	}
	st, err := b.writer.CopyTree(b.opts.StaticDir, "static")
	if err != nil {
		return fmt.Errorf("copy static: %w", err)
	}
	b.log.Info("static assets copied", zap.Int("updated", st.Updated), zap.Int("unchanged", st.Unchanged))
	return nil
}

func (b *Builder) renderSellerPages(ctx context.Context) error {
	var count, updated int
	outcomes := make(map[affiliate.Outcome]int)
	for _, p := range b.partners {
		if err := ctx.Err(); err != nil {
			return err
		}
		link := b.links.Primary(affiliate.Links{Raw: p.URL, Affiliate: p.Awin})
		outcomes[link.Outcome]++

		since := p.Since
		if since == "" {
			since = catalog.UnknownYear
		}
		rel := path.Join("sellers", p.Dir(), p.Slug+".html")
		st, err := b.page(rel, "sellers/seller.html", render.Context{
			"title":         p.Name,
			"slug":          p.Slug,
			"name":          p.Name,
			"url":           link.Primary,
			"raw_url":       link.Raw,
			"awin":          p.Awin,
			"since":         since,
			"reviews":       p.ReviewCount,
			"product_count": p.ProductCount,
			"active":        p.Active,
			"logo":          b.logo(p.Slug),
		})
		if err != nil {
			return fmt.Errorf("seller %s: %w", p.Slug, err)
		}
		count++
		if st == sitewrite.Updated {
			updated++
			if updated <= 10 || updated%500 == 0 {
				b.log.Info("seller page updated", zap.String("path", rel))
			}
		}
	}
	b.log.Info("seller pages rendered",
		zap.Int("count", count),
		zap.Int("updated", updated),
		zap.Int("links_kept", outcomes[affiliate.Kept]),
		zap.Int("links_rebuilt", outcomes[affiliate.Rebuilt]),
		zap.Int("links_built", outcomes[affiliate.Built]),
		zap.Int("links_unverified", outcomes[affiliate.KeptUnverified]),
		zap.Int("links_passthrough", outcomes[affiliate.Passthrough]),
	)
	return nil
}

// logo resolves a seller logo under the static dir to its public path.
func (b *Builder) logo(slug string) string {
	if b.opts.StaticDir == "" {
		return ""
	}
	for _, ext := range logoExts {
		name := slug + ext
		if _, err := os.Stat(filepath.Join(b.opts.StaticDir, "logos", name)); err == nil {
			return b.opts.StaticPath + "/logos/" + name
		}
	}
	return ""
}

func (b *Builder) renderSellerIndex(context.Context) error {
	groups := rank.ByLetter(b.partners, partnerName)
	_, err := b.page("sellers/index.html", "sellers/index.html", render.Context{
		"title":   "Sellers A–Z",
		"letters": rank.Keys(groups),
		"groups":  groups,
	})
	return err
}

func (b *Builder) renderSellerByYear(context.Context) error {
	groups := rank.ByYear(b.partners, partnerSince, partnerName)
	_, err := b.page("sellers/by-year.html", "sellers/by-year.html", render.Context{
		"title":  "Sellers by year joined",
		"years":  rank.Keys(groups),
		"groups": groups,
	})
	return err
}

func (b *Builder) renderSellerMostReviews(context.Context) error {
	top := rank.TopN(activeOnly(b.partners), partnerReviews, partnerName, b.opts.SellerTopN)
	_, err := b.page("sellers/seller-most-reviews.html", "sellers/seller-most-reviews.html", render.Context{
		"title":   "Most reviewed sellers",
		"sellers": top,
	})
	return err
}

func (b *Builder) renderSellerMostProducts(context.Context) error {
	top := rank.TopN(activeOnly(b.partners), partnerProducts, partnerName, b.opts.SellerTopN)
	_, err := b.page("sellers/seller-most-products.html", "sellers/seller-most-products.html", render.Context{
		"title":   "Sellers with the most products",
		"sellers": top,
	})
	return err
}

func (b *Builder) renderReviewBands(context.Context) error {
	buckets := rank.Assign(b.opts.ReviewBands, activeOnly(b.partners), partnerReviews)
	_, err := b.page("sellers/review-bands.html", "sellers/review-bands.html", render.Context{
		"title":   "Sellers by review count",
		"buckets": buckets,
	})
	return err
}

func (b *Builder) renderProductBands(context.Context) error {
	buckets := rank.Assign(b.opts.ProductBands, activeOnly(b.partners), partnerProducts)
	_, err := b.page("sellers/product-bands.html", "sellers/product-bands.html", render.Context{
		"title":   "Sellers by product count",
		"buckets": buckets,
	})
	return err
}

// productList renders one of the optional product snapshots. Outbound
// links go through the affiliate normalizer like the seller pages.
func (b *Builder) productList(file, out, title string) func(context.Context) error {
	return func(context.Context) error {
		products, err := catalog.LoadProducts(b.dataPath(file))
		if err != nil {
			return err
		}
		for i, p := range products {
			products[i].ProductURL = b.links.Primary(affiliate.Links{Raw: p.ProductURL, Affiliate: p.Awin}).Primary
		}
		_, err = b.page(path.Join("products", out), "products/product-list.html", render.Context{
			"title":    title,
			"products": products,
		})
		return err
	}
}

func (b *Builder) renderTopPerPartner(context.Context) error {
	products, err := catalog.LoadProducts(b.dataPath(TopPerPartnerFile))
	if err != nil {
		return err
	}
	for i, p := range products {
		products[i].ProductURL = b.links.Primary(affiliate.Links{Raw: p.ProductURL, Affiliate: p.Awin}).Primary
	}
	_, err = b.page("products/top-product-per-partner.html", "products/top-product-per-partner.html", render.Context{
		"title":    "Top product per partner",
		"products": products,
		"sellers":  b.bySlug,
	})
	return err
}

func (b *Builder) renderPartnerDirectory(context.Context) error {
	partners, skipped, err := catalog.ReadPartners(b.dataPath(PartnerDirectoryFile))
	if err != nil {
		return err
	}
	b.logSkipped(PartnerDirectoryFile, skipped)
	// Records carrying neither active nor is_active count as active, so an
	// export without the flag lists every partner.
	active := activeOnly(partners)
	groups := rank.ByLetter(active, partnerName)
	_, err = b.page("hollyco/index.html", "partners/index.html", render.Context{
		"title":   "Holly & Co sellers A–Z",
		"letters": rank.Keys(groups),
		"groups":  groups,
	})
	if err == nil {
		b.log.Info("partner directory rendered", zap.Int("active", len(active)))
	}
	return err
}

func (b *Builder) writeSitemap(context.Context) error {
	files, err := buildSitemap(b.opts.BaseURL, b.pages, b.opts.Now, b.opts.SitemapChunk)
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := b.writer.Write(f.Path, f.Content); err != nil {
			return err
		}
	}
	b.log.Info("sitemap written", zap.Int("urls", len(b.pages)), zap.Int("files", len(files)))
	return nil
}
