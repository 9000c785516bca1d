// Package label composes one printable unit: a product name, a price and a
// barcode image arranged on a fixed-size slot.
package label

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/thereceipt/label-engine/internal/raster"
)

// Size is a slot in pixels.
type Size struct {
	Width  int
	Height int
}

// Content is what goes on a unit. Zero fields are skipped.
type Content struct {
	Name    string
	Price   decimal.NullDecimal
	Barcode image.Image
	Caption string // printed under the barcode in the monospace face
}

// Compositor draws units on surfaces from its factory.
type Compositor struct {
	surfaces raster.Factory
	style    Style
}

// New creates a compositor.
func New(surfaces raster.Factory, style Style) *Compositor {
	if style.LineHeight <= 0 {
		style.LineHeight = 16
	}
	if style.BorderColor == nil {
		style.BorderColor = BorderGray
	}
	if style.BorderWidth <= 0 {
		style.BorderWidth = 1
	}
	return &Compositor{surfaces: surfaces, style: style}
}

// Style returns the compositor's style.
func (c *Compositor) Style() Style {
	return c.style
}

// Compose draws content on a fresh slot-sized surface. Blocks are stacked
// top to bottom: name, price, barcode, caption. Each block is centered
// horizontally.
func (c *Compositor) Compose(slot Size, content Content) (image.Image, error) {
	s, err := c.surfaces.NewSurface(slot.Width, slot.Height)
	if err != nil {
		return nil, err
	}
	defer s.Release()

	st := c.style
	w := float64(slot.Width)
	cx := w / 2
	avail := w - 2*float64(st.Padding)

	if st.Border {
		s.SetColor(st.BorderColor)
		half := st.BorderWidth / 2
		s.StrokeRect(half, half, w-st.BorderWidth, float64(slot.Height)-st.BorderWidth, st.BorderWidth)
		s.SetColor(color.Black)
	}

	y := float64(st.Top)

	if content.Name != "" {
		if err := s.SetFont(raster.Bold, st.NameSize); err != nil {
			return nil, err
		}
		var lines []string
		if st.SingleLineName {
			lines = []string{Truncate(s.MeasureString, content.Name, avail)}
		} else {
			lines = Wrap(s.MeasureString, content.Name, avail)
		}
		ascent := s.FontHeight()
		for _, line := range lines {
			s.DrawStringCentered(line, cx, y+ascent)
			y += math.Max(float64(st.LineHeight), ascent)
		}
		y += float64(st.Gap)
	}

	if content.Price.Valid {
		if err := s.SetFont(raster.Bold, st.PriceSize); err != nil {
			return nil, err
		}
		h := s.FontHeight()
		s.DrawStringCentered(FormatPrice(st.Currency, content.Price.Decimal), cx, y+h)
		y += h*1.25 + float64(st.Gap)
	}

	if content.Barcode != nil {
		bw, bh := scaledSize(content.Barcode, int(avail))
		if bw > 0 && bh > 0 {
			scaled := imaging.Resize(content.Barcode, bw, bh, imaging.NearestNeighbor)
			s.DrawImage(scaled, (slot.Width-bw)/2, int(math.Round(y)))
			y += float64(bh) + float64(st.Gap)
		}
	}

	if content.Caption != "" && st.CaptionSize > 0 {
		if err := s.SetFont(raster.Mono, st.CaptionSize); err != nil {
			return nil, err
		}
		h := s.FontHeight()
		s.DrawStringCentered(Truncate(s.MeasureString, content.Caption, avail), cx, y+h)
	}

	return s.Image(), nil
}

// scaledSize fits img to width, keeping its aspect ratio.
func scaledSize(img image.Image, width int) (int, int) {
	b := img.Bounds()
	if b.Dx() == 0 || width <= 0 {
		return 0, 0
	}
	height := int(math.Round(float64(width) * float64(b.Dy()) / float64(b.Dx())))
	return width, height
}
