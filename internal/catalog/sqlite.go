package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	internal_code  TEXT NOT NULL DEFAULT '',
	purchase_price TEXT NOT NULL DEFAULT '0',
	sale_price     TEXT NOT NULL DEFAULT '0',
	stock          INTEGER NOT NULL DEFAULT 0,
	barcode        TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_barcode ON products (barcode);
`

const selectProducts = `SELECT id, name, internal_code, purchase_price, sale_price,
	stock, barcode, created_at, updated_at FROM products`

// SQLite is a catalogue backed by a SQLite database.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := s.db.SelectContext(ctx, &products, selectProducts+" ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *SQLite) Product(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.db.GetContext(ctx, &p, selectProducts+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return p, nil
}

// Upsert inserts or replaces products in one transaction.
func (s *SQLite) Upsert(ctx context.Context, products ...Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO products (id, name, internal_code, purchase_price, sale_price, stock, barcode, created_at, updated_at)
		VALUES (:id, :name, :internal_code, :purchase_price, :sale_price, :stock, :barcode, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			internal_code = excluded.internal_code,
			purchase_price = excluded.purchase_price,
			sale_price = excluded.sale_price,
			stock = excluded.stock,
			barcode = excluded.barcode,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC()
	for _, p := range products {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
		if _, err := tx.NamedExecContext(ctx, q, p); err != nil {
			return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// MigrateLegacyBarcodes rewrites every dash-delimited barcode to the
// compact scheme in a single transaction.
func (s *SQLite) MigrateLegacyBarcodes(ctx context.Context, conv Converter) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var rows []struct {
		ID      string `db:"id"`
		Barcode string `db:"barcode"`
	}
	if err := tx.SelectContext(ctx, &rows, `SELECT id, barcode FROM products WHERE barcode LIKE '%-%'`); err != nil {
		return 0, fmt.Errorf("failed to select legacy barcodes: %w", err)
	}

	now := time.Now().UTC()
	n := 0
	for _, r := range rows {
		if !strings.Contains(r.Barcode, "-") {
			continue
		}
		code := conv.ConvertLegacyToCompact(r.Barcode)
		if _, err := tx.ExecContext(ctx, `UPDATE products SET barcode = ?, updated_at = ? WHERE id = ?`, code, now, r.ID); err != nil {
			return 0, fmt.Errorf("failed to update barcode for %s: %w", r.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit barcode migration: %w", err)
	}
	return n, nil
}
