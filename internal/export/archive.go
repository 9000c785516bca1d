package export

import (
	"archive/zip"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thereceipt/label-engine/internal/catalog"
	"github.com/thereceipt/label-engine/internal/label"
	"github.com/thereceipt/label-engine/internal/notify"
	"github.com/thereceipt/label-engine/internal/renderer"
)

// ImageKind selects the standalone image rendered per product.
type ImageKind string

const (
	// BarcodeImage is the barcode with its value underneath.
	BarcodeImage ImageKind = "barcode"
	// BarcodeInfoImage is the barcode topped by name and price.
	BarcodeInfoImage ImageKind = "barcode-info"
	// PriceTagImage is a 300x80 px name and price tag.
	PriceTagImage ImageKind = "price-label"
)

// ParseImageKind validates a kind name.
func ParseImageKind(s string) (ImageKind, error) {
	switch k := ImageKind(s); k {
	case BarcodeImage, BarcodeInfoImage, PriceTagImage:
		return k, nil
	}
	return "", fmt.Errorf("unknown image kind %q", s)
}

// NeedsBarcode reports whether products without a barcode are skipped.
func (k ImageKind) NeedsBarcode() bool {
	return k == BarcodeImage || k == BarcodeInfoImage
}

func (k ImageKind) folder() string {
	switch k {
	case BarcodeInfoImage:
		return "barcodes-info"
	case PriceTagImage:
		return "labels"
	default:
		return "barcodes"
	}
}

// FileName names the image of prod. Path separators in the product code
// become underscores and an empty or dot-only code becomes "barcode", so
// the name is always a single path element. SingleImage never reaches the
// empty case for barcode kinds; it refuses products without a barcode with
// ErrNothingToPrint.
func (k ImageKind) FileName(prod catalog.Product) string {
	switch k {
	case BarcodeInfoImage:
		return safeStem(prod.Barcode) + "-info.png"
	case PriceTagImage:
		return safeStem(prod.FileStem()) + "-label.png"
	default:
		return safeStem(prod.Barcode) + ".png"
	}
}

var separators = strings.NewReplacer("/", "_", "\\", "_")

func safeStem(code string) string {
	stem := separators.Replace(strings.TrimSpace(code))
	if strings.Trim(stem, ".") == "" {
		return "barcode"
	}
	return stem
}

// uniqueName returns name, or name with "-2", "-3", ... before its
// extension when an earlier entry already took it.
func uniqueName(name string, seen map[string]bool) string {
	if !seen[name] {
		seen[name] = true
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", base, i, ext)
		if !seen[candidate] {
			seen[candidate] = true
			return candidate
		}
	}
}

// ArchiveName is the folder and file stem of an archive for one batch.
func ArchiveName(kind ImageKind, batch int) string {
	return fmt.Sprintf("%s-page-%d", kind.folder(), batch)
}

// Archive writes a zip of one image per product into folder
// "<kind>-page-<batch>/", in input order. Barcode kinds skip products
// without a barcode. It returns the archive file name.
func (p *Pipeline) Archive(products []catalog.Product, kind ImageKind, batch int, w io.Writer) (string, error) {
	if _, err := ParseImageKind(string(kind)); err != nil {
		return "", err
	}
	if kind.NeedsBarcode() {
		products = withBarcode(products)
	}
	if len(products) == 0 {
		return "", p.nothingToPrint()
	}

	folder := ArchiveName(kind, batch)
	r := p.imageRenderer(kind)
	zw := zip.NewWriter(w)
	now := time.Now()
	seen := make(map[string]bool, len(products))

	for _, prod := range products {
		img, err := r(prod)
		if err != nil {
			return "", p.fail("Error exporting images", err)
		}
		data, err := encodePNG(img)
		if err != nil {
			return "", p.fail("Error exporting images", err)
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     folder + "/" + uniqueName(kind.FileName(prod), seen),
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return "", p.fail("Error exporting images", fmt.Errorf("failed to add archive entry: %w", err))
		}
		if _, err := fw.Write(data); err != nil {
			return "", p.fail("Error exporting images", fmt.Errorf("failed to write archive entry: %w", err))
		}
	}
	if err := zw.Close(); err != nil {
		return "", p.fail("Error exporting images", fmt.Errorf("failed to finish archive: %w", err))
	}

	filename := folder + ".zip"
	p.logger.Info("archive written", slog.String("file", filename), slog.Int("images", len(products)))
	notify.Send(p.notifier, notify.Success, "Images exported", fmt.Sprintf("%d images in %s", len(products), filename))
	return filename, nil
}

// SingleImage writes the PNG of one product and returns its file name.
func (p *Pipeline) SingleImage(prod catalog.Product, kind ImageKind, w io.Writer) (string, error) {
	if _, err := ParseImageKind(string(kind)); err != nil {
		return "", err
	}
	if kind.NeedsBarcode() && !prod.HasBarcode() {
		return "", p.nothingToPrint()
	}

	img, err := p.imageRenderer(kind)(prod)
	if err != nil {
		return "", p.fail("Error downloading image", err)
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", p.fail("Error downloading image", err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return kind.FileName(prod), nil
}

// imageRenderer returns the per-product renderer of kind. Renderers and
// compositors are built per call.
func (p *Pipeline) imageRenderer(kind ImageKind) func(catalog.Product) (image.Image, error) {
	ppm := p.cfg.PixelsPerMM
	codes := renderer.New(p.surfaces, renderer.CardOptions())

	switch kind {
	case PriceTagImage:
		comp := label.New(p.surfaces, p.style(label.PriceTagStyle(ppm)))
		return func(prod catalog.Product) (image.Image, error) {
			img, err := comp.Compose(label.PriceTagSize, label.Content{
				Name:  displayName(prod),
				Price: decimal.NewNullDecimal(prod.SalePrice),
			})
			if err != nil {
				return nil, unavailable(err)
			}
			return img, nil
		}

	case BarcodeInfoImage:
		style := p.style(label.InfoStyle(ppm))
		comp := label.New(p.surfaces, style)
		return func(prod catalog.Product) (image.Image, error) {
			code, err := p.barcode(codes, prod.Barcode)
			if err != nil {
				return nil, err
			}
			b := code.Bounds()
			slot := label.Size{
				Width:  b.Dx() + 2*style.Padding,
				Height: b.Dy() + infoTextHeight + 2*style.Padding,
			}
			img, err := comp.Compose(slot, label.Content{
				Name:    displayName(prod),
				Price:   decimal.NewNullDecimal(prod.SalePrice),
				Barcode: code,
			})
			if err != nil {
				return nil, unavailable(err)
			}
			return img, nil
		}

	default:
		return func(prod catalog.Product) (image.Image, error) {
			return p.barcode(codes, prod.Barcode)
		}
	}
}

// PlaceholderName stands in for a blank product name on standalone images.
const PlaceholderName = "Product"

func displayName(prod catalog.Product) string {
	if strings.TrimSpace(prod.Name) == "" {
		return PlaceholderName
	}
	return prod.Name
}

// infoTextHeight is the band above the barcode reserved for name and price.
const infoTextHeight = 60
