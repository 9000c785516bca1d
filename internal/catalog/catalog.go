// Package catalog loads the products labels are printed for.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product id is unknown.
var ErrNotFound = errors.New("product not found")

// Product is one catalogue record.
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	InternalCode  string          `json:"internalCode,omitempty" db:"internal_code"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" db:"purchase_price"`
	SalePrice     decimal.Decimal `json:"salePrice" db:"sale_price"`
	Stock         int             `json:"stock" db:"stock"`
	Barcode       string          `json:"barcode,omitempty" db:"barcode"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// HasBarcode reports whether the product carries a printable barcode.
func (p Product) HasBarcode() bool {
	return strings.TrimSpace(p.Barcode) != ""
}

// FileStem names files written for the product: barcode, else internal
// code, else id.
func (p Product) FileStem() string {
	switch {
	case p.HasBarcode():
		return p.Barcode
	case p.InternalCode != "":
		return p.InternalCode
	default:
		return p.ID
	}
}

// Source provides products.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
	Product(ctx context.Context, id string) (Product, error)
}

// Converter rewrites a legacy barcode into the compact scheme.
type Converter interface {
	ConvertLegacyToCompact(code string) string
}

// MigrateLegacy converts every dash-delimited barcode in place and returns
// how many changed.
func MigrateLegacy(products []Product, conv Converter, now time.Time) int {
	n := 0
	for i := range products {
		if !strings.Contains(products[i].Barcode, "-") {
			continue
		}
		products[i].Barcode = conv.ConvertLegacyToCompact(products[i].Barcode)
		products[i].UpdatedAt = now
		n++
	}
	return n
}

func find(products []Product, id string) (Product, error) {
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}
