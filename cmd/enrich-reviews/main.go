package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nothsreports/internal/catalog"
	"nothsreports/internal/cli"
	"nothsreports/internal/scrape"
)

var common cli.Common

var args struct {
	in         string
	out        string
	minReviews int
	settle     time.Duration
}

var Cmd = &cobra.Command{
	Use:   "enrich-reviews",
	Short: "Add titles, product links and sellers to the latest weekly ratings export",
	RunE:  run,
}

func init() {
	common.Register(Cmd)
	f := Cmd.Flags()
	f.StringVar(&args.in, "in", "", "ratings export (default the latest <data>/feefo_product_ratings_week_*.xlsx)")
	f.StringVar(&args.out, "out", "", "output spreadsheet (default <data>/recent_reviews_web_ready.xlsx)")
	f.IntVar(&args.minReviews, "min-reviews", 1, "only products with more reviews than this")
	f.DurationVar(&args.settle, "settle", 3*time.Second, "wait after page load for scripts to render")
}

func main() {
	cli.Execute(Cmd)
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, log, err := common.Load()
	if err != nil {
		return err
	}
	defer log.Sync()

	in := args.in
	if in == "" {
		in, err = catalog.Latest(filepath.Join(cfg.Paths.DataDir, "feefo_product_ratings_week_*.xlsx"))
		if err != nil {
			return err
		}
	}
	out := args.out
	if out == "" {
		out = filepath.Join(cfg.Paths.DataDir, "recent_reviews_web_ready.xlsx")
	}
	log.Info("using ratings export", zap.String("path", in))

	sheet, err := catalog.ReadSheet(in)
	if err != nil {
		return err
	}
	candidates, err := scrape.Candidates(sheet, args.minReviews)
	if err != nil {
		return err
	}

	browser := scrape.NewChromeBrowser(cmd.Context(), args.settle, cfg.Scrape.Timeout+args.settle)
	defer browser.Close()

	reviews, err := scrape.NewEnricher(browser, cfg.Scrape.Delay, log).Enrich(cmd.Context(), candidates)
	if werr := scrape.WriteReviews(out, reviews); werr != nil {
		return werr
	}
	log.Info("reviews saved", zap.String("path", out), zap.Int("products", len(reviews)), zap.Int("candidates", len(candidates)))
	return err
}
