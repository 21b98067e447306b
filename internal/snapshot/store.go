// Package snapshot keeps a SQLite history of the top-product leaderboard.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"nothsreports/internal/catalog"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS top_products (
		run_id       TEXT    NOT NULL,
		taken_at     TEXT    NOT NULL,
		rank         INTEGER NOT NULL,
		sku          TEXT,
		name         TEXT,
		seller_slug  TEXT    NOT NULL,
		review_count INTEGER NOT NULL,
		product_url  TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_top_products_run ON top_products(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_top_products_seller ON top_products(seller_slug)`,
}

// Row is one leaderboard entry as stored.
type Row struct {
	RunID       string `db:"run_id" json:"run_id"`
	TakenAt     string `db:"taken_at" json:"taken_at"`
	Rank        int    `db:"rank" json:"rank"`
	SKU         string `db:"sku" json:"sku"`
	Name        string `db:"name" json:"name"`
	SellerSlug  string `db:"seller_slug" json:"seller_slug"`
	ReviewCount int    `db:"review_count" json:"review_count"`
	ProductURL  string `db:"product_url" json:"product_url"`
}

// Store is a leaderboard history database.
type Store struct {
	DB *sqlx.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// SaveTopProducts stores one run of the leaderboard in a single transaction.
func (s *Store) SaveTopProducts(ctx context.Context, runID string, takenAt time.Time, products []catalog.Product) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO top_products (run_id, taken_at, rank, sku, name, seller_slug, review_count, product_url)
        VALUES (:run_id, :taken_at, :rank, :sku, :name, :seller_slug, :review_count, :product_url)
    `
	stamp := takenAt.UTC().Format(time.RFC3339)
	for _, p := range products {
		row := Row{
			RunID:       runID,
			TakenAt:     stamp,
			Rank:        p.Rank,
			SKU:         p.SKU,
			Name:        p.Name,
			SellerSlug:  p.SellerSlug,
			ReviewCount: p.ReviewCount,
			ProductURL:  p.ProductURL,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("insert %s: %w", p.SellerSlug, err)
		}
	}
	return tx.Commit()
}

// TopProducts returns the rows of one run ordered by rank.
func (s *Store) TopProducts(ctx context.Context, runID string) ([]Row, error) {
	var rows []Row
	err := s.DB.SelectContext(ctx, &rows, `SELECT * FROM top_products WHERE run_id = ? ORDER BY rank, seller_slug`, runID)
	return rows, err
}

// LatestRun returns the id of the most recently stored run, or "" when the
// table is empty.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := s.DB.GetContext(ctx, &id, `SELECT run_id FROM top_products ORDER BY taken_at DESC, rowid DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}
