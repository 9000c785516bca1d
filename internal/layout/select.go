package layout

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/thereceipt/label-engine/internal/catalog"
	"github.com/thereceipt/label-engine/pkg/printopts"
)

// EndOfDay moves t to the last nanosecond of its calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999999999, t.Location())
}

// Filter keeps products created within [start, end]. The end bound covers
// its whole day. Products without a creation time always pass.
func Filter(products []catalog.Product, start, end *time.Time) []catalog.Product {
	if start == nil && end == nil {
		return slices.Clone(products)
	}
	var last time.Time
	if end != nil {
		last = EndOfDay(*end)
	}

	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if p.CreatedAt.IsZero() {
			out = append(out, p)
			continue
		}
		if start != nil && p.CreatedAt.Before(*start) {
			continue
		}
		if end != nil && p.CreatedAt.After(last) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Subset keeps the products whose id is listed, in their original order.
// An empty list keeps everything.
func Subset(products []catalog.Product, ids []string) []catalog.Product {
	if len(ids) == 0 {
		return slices.Clone(products)
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]catalog.Product, 0, len(ids))
	for _, p := range products {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Sort orders products in place. Equal keys keep their input order.
func Sort(products []catalog.Product, s printopts.Sort) {
	compare := func(a, b catalog.Product) int {
		switch s.By {
		case printopts.SortByBarcode:
			return cmp.Compare(strings.ToLower(a.Barcode), strings.ToLower(b.Barcode))
		case printopts.SortByCreatedDate:
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}
	if s.Order == printopts.Descending {
		slices.SortStableFunc(products, func(a, b catalog.Product) int { return compare(b, a) })
		return
	}
	slices.SortStableFunc(products, compare)
}

// Prepare applies the id subset, then the date filter, then the sort.
func Prepare(products []catalog.Product, opts printopts.PrintOptions) []catalog.Product {
	out := Subset(products, opts.ProductIDs)
	out = Filter(out, opts.StartDate, opts.EndDate)
	Sort(out, opts.Sort)
	return out
}
