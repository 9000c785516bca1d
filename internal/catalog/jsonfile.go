package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// JSONFile is a catalogue stored as a JSON array of products.
type JSONFile struct {
	path string
	mu   sync.Mutex
}

// NewJSONFile returns a source reading path on every call.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (f *JSONFile) Products(ctx context.Context) ([]Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *JSONFile) Product(ctx context.Context, id string) (Product, error) {
	products, err := f.Products(ctx)
	if err != nil {
		return Product{}, err
	}
	return find(products, id)
}

// Close is a no-op; the file is reopened on every call.
func (f *JSONFile) Close() error { return nil }

// Save replaces the file contents.
func (f *JSONFile) Save(products []Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(products)
}

// MigrateLegacyBarcodes rewrites legacy barcodes and saves the file.
func (f *JSONFile) MigrateLegacyBarcodes(ctx context.Context, conv Converter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	products, err := f.load()
	if err != nil {
		return 0, err
	}
	n := MigrateLegacy(products, conv, time.Now())
	if n == 0 {
		return 0, nil
	}
	if err := f.save(products); err != nil {
		return 0, err
	}
	return n, nil
}

func (f *JSONFile) load() ([]Product, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return products, nil
}

func (f *JSONFile) save(products []Product) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}
