package main

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nothsreports/internal/catalog"
	"nothsreports/internal/cli"
	"nothsreports/internal/site"
	"nothsreports/internal/snapshot"
)

var common cli.Common

var args struct {
	in         string
	out        string
	minReviews int
	sqlite     string
	noSnapshot bool
}

var Cmd = &cobra.Command{
	Use:   "top-products",
	Short: "Pick each partner's most reviewed product from the 12 month product snapshot",
	RunE:  run,
}

func init() {
	common.Register(Cmd)
	f := Cmd.Flags()
	f.StringVar(&args.in, "in", "", "input products JSON (default <data>/top_products_12months.json)")
	f.StringVar(&args.out, "out", "", "output JSON (default <data>/"+site.TopPerPartnerFile+")")
	f.IntVar(&args.minReviews, "min-reviews", 0, "minimum review count, 0 keeps every product (default from config)")
	f.StringVar(&args.sqlite, "sqlite", "", "snapshot database (default from config)")
	f.BoolVar(&args.noSnapshot, "no-snapshot", false, "skip the SQLite snapshot")
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
		in = filepath.Join(cfg.Paths.DataDir, "top_products_12months.json")
	}
	out := args.out
	if out == "" {
		out = filepath.Join(cfg.Paths.DataDir, site.TopPerPartnerFile)
	}
	minReviews := cfg.Site.MinReviews
	if cmd.Flags().Changed("min-reviews") {
		minReviews = args.minReviews
	}

	products, err := catalog.LoadProducts(in)
	if err != nil {
		return err
	}
	top := site.TopProductPerPartner(products, minReviews)
	if err := catalog.WriteJSON(out, top); err != nil {
		return err
	}
	log.Info("top products saved", zap.Int("partners", len(top)), zap.Int("min_reviews", minReviews), zap.String("out", out))

	if args.noSnapshot {
		return nil
	}
	dbPath := args.sqlite
	if dbPath == "" {
		dbPath = cfg.Paths.SnapshotDB
	}
	store, err := snapshot.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	runID := uuid.NewString()
	if err := store.SaveTopProducts(cmd.Context(), runID, time.Now(), top); err != nil {
		return err
	}
	log.Info("snapshot stored", zap.String("run_id", runID), zap.String("db", dbPath))
	return nil
}
