package export

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/thereceipt/label-engine/internal/catalog"
	"github.com/thereceipt/label-engine/internal/label"
	"github.com/thereceipt/label-engine/internal/notify"
	"github.com/thereceipt/label-engine/internal/raster"
	"github.com/thereceipt/label-engine/internal/renderer"
)

// LabelKind selects what a continuous-feed label carries.
type LabelKind string

const (
	// BarcodeLabel is a barcode with its value underneath.
	BarcodeLabel LabelKind = "barcode"
	// PriceLabel is the product name and sale price.
	PriceLabel LabelKind = "label"
)

// ParseLabelKind validates a kind name.
func ParseLabelKind(s string) (LabelKind, error) {
	switch k := LabelKind(s); k {
	case BarcodeLabel, PriceLabel:
		return k, nil
	}
	return "", fmt.Errorf("unknown label kind %q", s)
}

// Thermal label stock, in mm.
const (
	ThermalWidth  = 40.0
	ThermalHeight = 60.0
)

var labelTemplate = template.Must(template.New("labels").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: 40mm 60mm; margin: 0; }
html, body { margin: 0; padding: 0; font-family: Arial, Helvetica, sans-serif; }
.label { width: 40mm; height: 60mm; box-sizing: border-box; display: flex; flex-direction: column; align-items: flex-start; justify-content: flex-start; padding-top: 3mm; padding-left: 1mm; gap: 1mm; overflow: hidden; }
.label:not(:last-child) { page-break-after: always; break-after: page; }
img.bar { width: 38mm; height: 10mm; display: block; }
.code-text { font-size: 8px; font-family: monospace; text-align: center; word-break: break-all; width: 38mm; }
.label-name { font-size: 11px; font-weight: bold; width: 38mm; word-break: break-word; }
.label-price { font-size: 14px; font-weight: bold; color: #000; }
</style>
</head>
<body>
{{- range .Units}}
<div class="label">
{{- if .Image}}<img class="bar" src="{{.Image}}" alt="barcode"><div class="code-text">{{.Code}}</div>
{{- else}}<div class="label-name">{{.Name}}</div><div class="label-price">{{.Price}}</div>
{{- end}}</div>
{{- end}}
</body>
</html>
`))

type labelUnit struct {
	Image template.URL
	Code  string
	Name  string
	Price string
}

// LabelDocument writes a self-contained HTML document with one 40x60 mm
// label per physical unit. Each product is repeated copies times and every
// unit is followed by a page break except the last. Images are inlined as
// data URLs. It returns the number of units written.
func (p *Pipeline) LabelDocument(products []catalog.Product, kind LabelKind, copies int, w io.Writer) (int, error) {
	if len(products) == 0 || copies <= 0 {
		return 0, p.nothingToPrint()
	}

	codes := renderer.New(p.surfaces, renderer.ThermalOptions())
	units := make([]labelUnit, 0, len(products)*copies)
	for _, prod := range products {
		var unit labelUnit
		switch kind {
		case BarcodeLabel:
			code := prod.FileStem()
			img, err := p.barcode(codes, code)
			if err != nil {
				return 0, p.fail("Error preparing barcode", err)
			}
			data, err := encodePNG(img)
			if err != nil {
				return 0, p.fail("Error preparing barcode", err)
			}
			unit = labelUnit{Image: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(data)), Code: code}
		case PriceLabel:
			unit = labelUnit{Name: prod.Name, Price: label.FormatPrice(p.cfg.Currency, prod.SalePrice)}
		default:
			return 0, fmt.Errorf("unknown label kind %q", kind)
		}
		for range copies {
			units = append(units, unit)
		}
	}

	title := "Print Labels"
	if kind == BarcodeLabel {
		title = "Print Barcodes"
	}
	notify.Send(p.notifier, notify.Info, fmt.Sprintf("Preparing %d label(s)...", len(units)), "")
	if err := labelTemplate.Execute(w, struct {
		Title string
		Units []labelUnit
	}{title, units}); err != nil {
		return 0, p.fail("Error preparing labels", fmt.Errorf("failed to write label document: %w", err))
	}

	p.logger.Info("label document written", slog.String("kind", string(kind)), slog.Int("units", len(units)))
	return len(units), nil
}

// LabelRasters composes the same units as LabelDocument as 40x60 mm
// images, for printers driven directly.
func (p *Pipeline) LabelRasters(products []catalog.Product, kind LabelKind, copies int) ([]image.Image, error) {
	if len(products) == 0 || copies <= 0 {
		return nil, p.nothingToPrint()
	}

	ppm := p.cfg.PixelsPerMM
	slot := label.Size{Width: raster.MMToPx(ThermalWidth, ppm), Height: raster.MMToPx(ThermalHeight, ppm)}
	comp := label.New(p.surfaces, p.style(label.ThermalStyle(ppm)))
	codes := renderer.New(p.surfaces, renderer.ThermalOptions())

	out := make([]image.Image, 0, len(products)*copies)
	for _, prod := range products {
		var content label.Content
		switch kind {
		case BarcodeLabel:
			code := prod.FileStem()
			img, err := p.barcode(codes, code)
			if err != nil {
				return nil, p.fail("Error preparing barcode", err)
			}
			content = label.Content{Barcode: img, Caption: code}
		case PriceLabel:
			content = label.Content{Name: prod.Name, Price: decimal.NewNullDecimal(prod.SalePrice)}
		default:
			return nil, fmt.Errorf("unknown label kind %q", kind)
		}

		img, err := comp.Compose(slot, content)
		if err != nil {
			return nil, p.fail("Error preparing labels", unavailable(err))
		}
		for range copies {
			out = append(out, img)
		}
	}
	return out, nil
}
