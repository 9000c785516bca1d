package export

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/phpdave11/gofpdf"
	"github.com/thereceipt/label-engine/internal/catalog"
	"github.com/thereceipt/label-engine/internal/label"
	"github.com/thereceipt/label-engine/internal/layout"
	"github.com/thereceipt/label-engine/internal/notify"
	"github.com/thereceipt/label-engine/internal/raster"
	"github.com/thereceipt/label-engine/internal/renderer"
	"github.com/thereceipt/label-engine/pkg/printopts"
)

// GridReport describes a written grid document.
type GridReport struct {
	Products int
	Pages    int
	Footers  []string
	Plan     layout.Plan
}

// GridPDF writes products as a paginated sheet of bordered cards. Products
// are subset, filtered and sorted by opts before placement.
func (p *Pipeline) GridPDF(products []catalog.Product, opts printopts.PrintOptions, w io.Writer) (GridReport, error) {
	prepared := layout.Prepare(products, opts)
	if len(prepared) == 0 {
		return GridReport{}, p.nothingToPrint()
	}

	plan, err := layout.NewPlan(p.cfg.Geometry, opts.BarcodeSize, layout.Toggles{
		IncludeName: opts.IncludeProductName,
		IncludeCode: opts.IncludeProductCode,
	})
	if err != nil {
		return GridReport{}, err
	}

	notify.Send(p.notifier, notify.Info, "Preparing printable document...", "")

	pages := layout.Pages(layout.Place(prepared, plan))
	report := GridReport{Products: len(prepared), Pages: len(pages), Plan: plan}

	g := p.cfg.Geometry
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: g.Width, Ht: g.Height},
	})
	pdf.SetMargins(g.Margin, g.Margin, g.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(107, 114, 128)

	ppm := p.cfg.PixelsPerMM
	codes := renderer.New(p.surfaces, renderer.CardOptions())
	cards := label.New(p.surfaces, p.style(label.GridStyle(ppm)))
	slot := label.Size{
		Width:  raster.MMToPx(plan.ContainerWidth, ppm),
		Height: raster.MMToPx(plan.ContainerHeight, ppm),
	}

	for i, page := range pages {
		pdf.AddPage()
		for _, pl := range page {
			data, err := p.card(cards, codes, slot, pl, plan.Toggles)
			if err != nil {
				return GridReport{}, p.fail("Error preparing print", err)
			}

			name := fmt.Sprintf("slot-%d-%d-%d", pl.Page, pl.Row, pl.Col)
			imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(data))
			pdf.ImageOptions(name, pl.X, pl.Y, plan.ContainerWidth, plan.ContainerHeight, false, imgOpts, 0, "")
		}

		footer := p.Footer(i+1, len(pages))
		report.Footers = append(report.Footers, footer)
		fw := pdf.GetStringWidth(footer)
		pdf.Text((g.Width-fw)/2, g.Height-g.Margin/2, footer)
	}

	if err := pdf.Output(w); err != nil {
		return GridReport{}, p.fail("Error preparing print", fmt.Errorf("failed to write pdf: %w", err))
	}

	p.logger.Info("grid document written",
		slog.Int("products", report.Products),
		slog.Int("pages", report.Pages),
		slog.String("size", string(opts.BarcodeSize)),
	)
	notify.Send(p.notifier, notify.Success, "Document ready", fmt.Sprintf("%d products on %d pages", report.Products, report.Pages))
	return report, nil
}

// card composes one grid slot. The barcode is only drawn when codes are
// enabled and the product has one.
func (p *Pipeline) card(cards *label.Compositor, codes *renderer.Renderer, slot label.Size, pl layout.Placement, t layout.Toggles) ([]byte, error) {
	content := label.Content{}
	if t.IncludeName {
		content.Name = pl.Product.Name
	}
	if t.IncludeCode && pl.Product.HasBarcode() {
		img, err := p.barcode(codes, pl.Product.Barcode)
		if err != nil {
			return nil, err
		}
		content.Barcode = img
	}

	img, err := cards.Compose(slot, content)
	if err != nil {
		return nil, unavailable(err)
	}
	return encodePNG(img)
}
