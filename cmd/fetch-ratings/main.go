package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nothsreports/internal/cli"
	"nothsreports/internal/feefo"
)

var common cli.Common

var args struct {
	period   string
	outDir   string
	pageSize int
}

var Cmd = &cobra.Command{
	Use:   "fetch-ratings",
	Short: "Download Feefo product ratings for a period into a dated spreadsheet",
	RunE:  run,
}

func init() {
	common.Register(Cmd)
	f := Cmd.Flags()
	f.StringVar(&args.period, "period", "week", "since_period: week, month, year or all")
	f.StringVar(&args.outDir, "out-dir", "", "output directory (default the data directory)")
	f.IntVar(&args.pageSize, "page-size", 0, "products per page (default from config)")
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

	period, err := feefo.ParsePeriod(args.period)
	if err != nil {
		return err
	}
	if args.pageSize > 0 {
		cfg.Feefo.PageSize = args.pageSize
	}
	outDir := args.outDir
	if outDir == "" {
		outDir = cfg.Paths.DataDir
	}
	if cfg.Feefo.Token == "" {
		log.Warn("FEEFO_API_TOKEN is not set; requests are sent without authorization")
	}

	client := feefo.NewClient(cfg.Feefo.BaseURL, cfg.Feefo.Token, cfg.Feefo.Merchant, cfg.Feefo.PageSize, log)
	table, fetchErr := client.Ratings(cmd.Context(), period)
	var statusErr *feefo.StatusError
	if fetchErr != nil && !errors.As(fetchErr, &statusErr) {
		return fetchErr
	}
	if len(table.Rows) == 0 {
		log.Warn("no product data found")
		return fetchErr
	}

	path := feefo.FileName(outDir, period, time.Now())
	if err := table.WriteXLSX(path); err != nil {
		return err
	}
	log.Info("ratings saved", zap.String("path", path), zap.Int("rows", len(table.Rows)), zap.Strings("columns", table.Columns))
	return fetchErr
}
