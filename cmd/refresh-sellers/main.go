package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nothsreports/internal/cli"
	"nothsreports/internal/scrape"
	"nothsreports/internal/site"
)

var common cli.Common

var args struct {
	in  string
	out string
}

var Cmd = &cobra.Command{
	Use:   "refresh-sellers",
	Short: "Re-read each seller's review count from their storefront",
	RunE:  run,
}

func init() {
	common.Register(Cmd)
	f := Cmd.Flags()
	f.StringVar(&args.in, "in", "", "sellers JSON (default <data>/"+site.SellersFile+")")
	f.StringVar(&args.out, "out", "", "updated sellers JSON (default <data>/sellers_updated.json)")
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
		in = filepath.Join(cfg.Paths.DataDir, site.SellersFile)
	}
	out := args.out
	if out == "" {
		out = filepath.Join(cfg.Paths.DataDir, "sellers_updated.json")
	}

	c := scrape.NewStorefrontClient(cfg.Scrape.Timeout, cfg.Scrape.UserAgent, log)
	n, err := c.RefreshFile(cmd.Context(), in, out)
	if err != nil {
		return err
	}
	log.Info("sellers refreshed", zap.Int("count", n), zap.String("out", out))
	return nil
}
