package catalog

import (
	"context"
	"path/filepath"
	"strings"
)

// Store is a product source that can also migrate legacy barcodes.
type Store interface {
	Source
	MigrateLegacyBarcodes(ctx context.Context, conv Converter) (int, error)
	Close() error
}

// Open picks the backend from the file extension: .db, .sqlite and
// .sqlite3 open a SQLite database, anything else a JSON file.
func Open(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return NewJSONFile(path), nil
	}
}
