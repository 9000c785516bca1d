// Package export assembles printable artifacts: paginated PDF sheets,
// continuous-feed label documents, image archives and single images.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/thereceipt/label-engine/internal/catalog"
	"github.com/thereceipt/label-engine/internal/label"
	"github.com/thereceipt/label-engine/internal/layout"
	"github.com/thereceipt/label-engine/internal/notify"
	"github.com/thereceipt/label-engine/internal/raster"
	"github.com/thereceipt/label-engine/internal/renderer"
)

var (
	// ErrNothingToPrint is returned when no product survives filtering.
	ErrNothingToPrint = errors.New("nothing to print")
	// ErrRenderingUnavailable is returned when no drawing surface can be
	// created. Only the current call is aborted.
	ErrRenderingUnavailable = errors.New("rendering unavailable")
)

// DefaultFooterFormat is filled with the page number and page count.
const DefaultFooterFormat = "page %d of %d"

// Config holds pipeline settings.
type Config struct {
	PixelsPerMM  float64
	Currency     string
	Geometry     layout.PageGeometry
	FooterFormat string
}

// DefaultConfig prints on A4 at thermal printer density.
func DefaultConfig() Config {
	return Config{
		PixelsPerMM:  raster.DefaultPixelsPerMM,
		Currency:     label.DefaultCurrency,
		Geometry:     layout.A4(),
		FooterFormat: DefaultFooterFormat,
	}
}

// Pipeline turns products into artifacts. It holds no per-call state, so
// one pipeline serves concurrent calls.
type Pipeline struct {
	cfg      Config
	surfaces raster.Factory
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates a pipeline. A nil notifier or logger discards output.
func New(surfaces raster.Factory, notifier notify.Notifier, logger *slog.Logger, cfg Config) *Pipeline {
	def := DefaultConfig()
	if cfg.PixelsPerMM <= 0 {
		cfg.PixelsPerMM = def.PixelsPerMM
	}
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}
	if cfg.Geometry == (layout.PageGeometry{}) {
		cfg.Geometry = def.Geometry
	}
	if cfg.FooterFormat == "" {
		cfg.FooterFormat = def.FooterFormat
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, surfaces: surfaces, notifier: notifier, logger: logger}
}

// Config returns the pipeline settings.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Footer formats the footer of page (1-based) out of total.
func (p *Pipeline) Footer(page, total int) string {
	return fmt.Sprintf(p.cfg.FooterFormat, page, total)
}

func (p *Pipeline) style(s label.Style) label.Style {
	s.Currency = p.cfg.Currency
	return s
}

// barcode renders code, degrading to text for values Code 128 rejects.
// Degraded slots are reported and the batch continues.
func (p *Pipeline) barcode(r *renderer.Renderer, code string) (image.Image, error) {
	img, degraded, err := r.RenderOrFallback(code)
	if err != nil {
		return nil, unavailable(err)
	}
	if degraded {
		p.logger.Warn("barcode rendered as text", slog.String("code", code))
		notify.Send(p.notifier, notify.Warning, "Barcode printed as text", fmt.Sprintf("%q cannot be encoded as Code 128", code))
	}
	return img, nil
}

func (p *Pipeline) fail(message string, err error) error {
	p.logger.Error(message, slog.Any("error", err))
	notify.Send(p.notifier, notify.Error, message, err.Error())
	return err
}

func (p *Pipeline) nothingToPrint() error {
	notify.Send(p.notifier, notify.Warning, "Nothing to print", "no products match the selected filters")
	return ErrNothingToPrint
}

func unavailable(err error) error {
	if errors.Is(err, ErrRenderingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRenderingUnavailable, err)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func withBarcode(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0, len(products))
	for _, prod := range products {
		if prod.HasBarcode() {
			out = append(out, prod)
		}
	}
	return out
}
