package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nothsreports/internal/catalog"
	"nothsreports/internal/cli"
	"nothsreports/internal/scrape"
)

var common cli.Common

var args struct {
	in      string
	out     string
	workers int
}

var Cmd = &cobra.Command{
	Use:   "extract-links",
	Short: "Resolve the SKUs in a spreadsheet to product page links via Feefo",
	RunE:  run,
}

func init() {
	common.Register(Cmd)
	f := Cmd.Flags()
	f.StringVar(&args.in, "in", "input_skus.xlsx", "spreadsheet with SKUs in the first column")
	f.StringVar(&args.out, "out", "sku_feefo_noths_links_output.xlsx", "output spreadsheet")
	f.IntVar(&args.workers, "workers", 0, "concurrent lookups (default from config)")
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

	sheet, err := catalog.ReadSheet(args.in)
	if err != nil {
		return err
	}
	var skus []string
	for _, sku := range sheet.Column(0) {
		if sku != "" {
			skus = append(skus, sku)
		}
	}

	workers := cfg.Scrape.Workers
	if args.workers > 0 {
		workers = args.workers
	}
	log.Info("extracting links", zap.Int("skus", len(skus)), zap.Int("workers", workers))

	e := scrape.NewLinkExtractor(workers, cfg.Scrape.Timeout, cfg.Scrape.UserAgent, log)
	results := e.Extract(cmd.Context(), skus)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if err := scrape.WriteLinks(args.out, results); err != nil {
		return err
	}
	log.Info("links saved", zap.String("path", args.out), zap.Int("rows", len(results)), zap.Int("errors", failed))
	return nil
}
