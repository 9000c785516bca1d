package label

import "image/color"

// DefaultCurrency is the symbol printed before prices.
const DefaultCurrency = "S/"

// BorderGray is the card outline colour.
var BorderGray = color.RGBA{R: 229, G: 231, B: 235, A: 255}

// Style describes how a unit is laid out. Lengths are pixels, font sizes
// are points.
type Style struct {
	Border      bool
	BorderColor color.Color
	BorderWidth float64

	Padding int // left and right padding, also the barcode inset
	Top     int // space above the first block
	Gap     int // space between blocks

	NameSize       float64
	LineHeight     int
	SingleLineName bool

	PriceSize float64
	Currency  string

	CaptionSize float64
}

func mm(v, pixelsPerMM float64) int {
	return int(v*pixelsPerMM + 0.5)
}

// cssPt converts CSS pixels (1/96 in) to points.
func cssPt(px float64) float64 {
	return px * 72 / 96
}

// rasterPt converts raw raster pixels to points at the surface density.
func rasterPt(px, pixelsPerMM float64) float64 {
	return px * 72 / (pixelsPerMM * 25.4)
}

// GridStyle is the bordered card used on A4 sheets.
func GridStyle(pixelsPerMM float64) Style {
	return Style{
		Border:      true,
		BorderColor: BorderGray,
		BorderWidth: 2,
		Padding:     mm(4, pixelsPerMM),
		Top:         mm(4, pixelsPerMM),
		Gap:         mm(2, pixelsPerMM),
		NameSize:    9,
		LineHeight:  mm(4, pixelsPerMM),
		PriceSize:   11,
		Currency:    DefaultCurrency,
		CaptionSize: 6,
	}
}

// ThermalStyle is the 40x60 mm continuous-feed label.
func ThermalStyle(pixelsPerMM float64) Style {
	return Style{
		Padding:     mm(1, pixelsPerMM),
		Top:         mm(3, pixelsPerMM),
		Gap:         mm(1, pixelsPerMM),
		NameSize:    cssPt(11),
		LineHeight:  mm(4, pixelsPerMM),
		PriceSize:   cssPt(14),
		Currency:    DefaultCurrency,
		CaptionSize: cssPt(8),
	}
}

// PriceTagStyle is the one-line name plus price tag. Its canvas is sized
// in raster pixels, see PriceTagSize.
func PriceTagStyle(pixelsPerMM float64) Style {
	return Style{
		Padding:        20,
		Top:            20,
		Gap:            6,
		NameSize:       rasterPt(14, pixelsPerMM),
		LineHeight:     18,
		SingleLineName: true,
		PriceSize:      rasterPt(24, pixelsPerMM),
		Currency:       DefaultCurrency,
	}
}

// InfoStyle is a barcode image topped by the product name and price.
func InfoStyle(pixelsPerMM float64) Style {
	return Style{
		Padding:        20,
		Top:            20,
		Gap:            6,
		NameSize:       rasterPt(14, pixelsPerMM),
		LineHeight:     18,
		SingleLineName: true,
		PriceSize:      rasterPt(18, pixelsPerMM),
		Currency:       DefaultCurrency,
	}
}

// PriceTagSize is the fixed canvas of a price tag.
var PriceTagSize = Size{Width: 300, Height: 80}
