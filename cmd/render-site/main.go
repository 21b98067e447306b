package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nothsreports/internal/cli"
	"nothsreports/internal/render"
	"nothsreports/internal/site"
	"nothsreports/internal/sitewrite"
)

var common cli.Common

var args struct {
	dataDir      string
	templatesDir string
	staticDir    string
	outDir       string
	baseURL      string
}

var Cmd = &cobra.Command{
	Use:   "render-site",
	Short: "Render the seller and product report site from the data snapshots",
	RunE:  run,
}

func init() {
	common.Register(Cmd)
	f := Cmd.Flags()
	f.StringVar(&args.dataDir, "data", "", "input data directory (default from config)")
	f.StringVar(&args.templatesDir, "templates", "", "template directory overriding the built-in templates")
	f.StringVar(&args.staticDir, "static", "", "static assets directory")
	f.StringVar(&args.outDir, "out", "", "output directory")
	f.StringVar(&args.baseURL, "base-url", "", "public base URL used in the sitemap")
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

	override(&cfg.Paths.DataDir, args.dataDir)
	override(&cfg.Paths.TemplatesDir, args.templatesDir)
	override(&cfg.Paths.StaticDir, args.staticDir)
	override(&cfg.Paths.OutputDir, args.outDir)
	override(&cfg.Site.BaseURL, args.baseURL)

	templates := render.Embedded()
	if cfg.Paths.TemplatesDir != "" {
		if _, err := os.Stat(cfg.Paths.TemplatesDir); err != nil {
			return fmt.Errorf("templates dir: %w", err)
		}
		templates = os.DirFS(cfg.Paths.TemplatesDir)
	}

	b := site.NewBuilder(site.Options{
		DataDir:      cfg.Paths.DataDir,
		StaticDir:    cfg.Paths.StaticDir,
		Title:        cfg.Site.Title,
		BaseURL:      cfg.Site.BaseURL,
		StaticPath:   cfg.Site.StaticPath,
		SellerTopN:   cfg.Site.SellerTopN,
		ReviewBands:  cfg.Site.ReviewBands,
		ProductBands: cfg.Site.ProductBands,
	}, render.New(templates), sitewrite.New(cfg.Paths.OutputDir), cfg.Normalizer(), log)

	log.Info("rendering site",
		zap.String("run_id", b.RunID()),
		zap.String("data", cfg.Paths.DataDir),
		zap.String("out", cfg.Paths.OutputDir),
	)
	sum, err := b.Run(cmd.Context())
	if err != nil {
		return err
	}
	if sum.Failed() {
		return fmt.Errorf("%d step(s) failed", sum.Count(site.StepFailed))
	}
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
