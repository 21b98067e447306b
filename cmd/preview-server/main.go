package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nothsreports/internal/cli"
	"nothsreports/internal/preview"
	"nothsreports/internal/snapshot"
)

var common cli.Common

var args struct {
	addr   string
	root   string
	sqlite string
}

var Cmd = &cobra.Command{
	Use:   "preview-server",
	Short: "Serve the rendered site locally",
	RunE:  run,
}

func init() {
	common.Register(Cmd)
	f := Cmd.Flags()
	f.StringVar(&args.addr, "addr", "", "HTTP listen address (default from config)")
	f.StringVar(&args.root, "root", "", "site directory (default the output directory)")
	f.StringVar(&args.sqlite, "sqlite", "", "snapshot database for /api/top-products (default from config)")
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

	addr := cfg.Server.Addr
	if args.addr != "" {
		addr = args.addr
	}
	root := cfg.Paths.OutputDir
	if args.root != "" {
		root = args.root
	}
	if _, err := os.Stat(root); err != nil {
		return err
	}

	dbPath := cfg.Paths.SnapshotDB
	if args.sqlite != "" {
		dbPath = args.sqlite
	}
	var store *snapshot.Store
	if _, err := os.Stat(dbPath); err == nil {
		store, err = snapshot.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	} else {
		log.Info("no snapshot database, /api/top-products disabled", zap.String("path", dbPath))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           preview.New(root, cfg.Site.BaseURL, store, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("preview server listening", zap.String("addr", addr), zap.String("root", root))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
