// Package layout decides which products print, in what order, and where
// each one lands on a page.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/thereceipt/label-engine/internal/catalog"
	"github.com/thereceipt/label-engine/pkg/printopts"
)

// Gap separates neighbouring containers, in mm.
const Gap = 5.0

// Container padding around the barcode footprint, in mm.
const (
	ContainerPadX = 20.0
	ContainerPadY = 35.0
)

// ErrUnknownSize is returned for a size class other than small, medium
// or large.
var ErrUnknownSize = errors.New("unknown barcode size")

// PageGeometry is a page size and uniform margin in mm.
type PageGeometry struct {
	Width  float64
	Height float64
	Margin float64
}

// A4 is the default sheet.
func A4() PageGeometry {
	return PageGeometry{Width: 210, Height: 297, Margin: 10}
}

func (g PageGeometry) ContentWidth() float64  { return g.Width - 2*g.Margin }
func (g PageGeometry) ContentHeight() float64 { return g.Height - 2*g.Margin }

// Toggles select the optional text blocks of a grid card.
type Toggles struct {
	IncludeName bool
	IncludeCode bool
}

// Plan is the grid for one print invocation.
type Plan struct {
	Geometry        PageGeometry
	Size            printopts.SizeClass
	Barcode         printopts.Dimensions
	ContainerWidth  float64
	ContainerHeight float64
	ItemsPerRow     int
	ItemsPerColumn  int
	ItemsPerPage    int
	Toggles         Toggles
}

// NewPlan computes the grid for a geometry and size class. Every count is
// at least one, so a page without printable area still holds one item.
func NewPlan(g PageGeometry, size printopts.SizeClass, toggles Toggles) (Plan, error) {
	switch size {
	case printopts.Small, printopts.Medium, printopts.Large:
	default:
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownSize, size)
	}

	dims := size.Dimensions()
	p := Plan{
		Geometry:        g,
		Size:            size,
		Barcode:         dims,
		ContainerWidth:  dims.Width + ContainerPadX,
		ContainerHeight: dims.Height + ContainerPadY,
		Toggles:         toggles,
	}

	p.ItemsPerRow = int(math.Floor(g.ContentWidth() / (p.ContainerWidth + Gap)))
	if size == printopts.Small {
		// Small labels go on a fixed sheet: three 60 mm containers and two
		// 5 mm gaps fill the 190 mm A4 content width.
		p.ItemsPerRow = 3
	}
	p.ItemsPerColumn = int(math.Floor(g.ContentHeight() / (p.ContainerHeight + Gap)))

	p.ItemsPerRow = max(p.ItemsPerRow, 1)
	p.ItemsPerColumn = max(p.ItemsPerColumn, 1)
	p.ItemsPerPage = max(p.ItemsPerRow*p.ItemsPerColumn, 1)
	return p, nil
}

// PageCount is the number of pages n items occupy.
func (p Plan) PageCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + p.ItemsPerPage - 1) / p.ItemsPerPage
}

// Placement is where one product prints. Page, Row and Col are zero
// based; X and Y are the container's top-left corner in mm.
type Placement struct {
	Product catalog.Product
	Page    int
	Row     int
	Col     int
	X       float64
	Y       float64
}

// Place assigns products to slots in row-major order.
func Place(products []catalog.Product, p Plan) []Placement {
	out := make([]Placement, 0, len(products))
	for i, prod := range products {
		page := i / p.ItemsPerPage
		pos := i % p.ItemsPerPage
		row := pos / p.ItemsPerRow
		col := pos % p.ItemsPerRow
		out = append(out, Placement{
			Product: prod,
			Page:    page,
			Row:     row,
			Col:     col,
			X:       p.Geometry.Margin + float64(col)*(p.ContainerWidth+Gap),
			Y:       p.Geometry.Margin + float64(row)*(p.ContainerHeight+Gap),
		})
	}
	return out
}

// Pages groups placements by page, in order.
func Pages(placements []Placement) [][]Placement {
	var pages [][]Placement
	for _, pl := range placements {
		for len(pages) <= pl.Page {
			pages = append(pages, nil)
		}
		pages[pl.Page] = append(pages[pl.Page], pl)
	}
	return pages
}
