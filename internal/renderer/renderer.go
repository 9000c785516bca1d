// Package renderer turns barcode values into raster images.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/thereceipt/label-engine/internal/raster"
)

// ErrInvalidValue means the value cannot be encoded in the symbology.
var ErrInvalidValue = errors.New("renderer: value cannot be encoded")

// Options controls the geometry of a rendered barcode, in pixels.
type Options struct {
	ModuleWidth int     // width of the narrowest bar
	Height      int     // bar height
	Margin      int     // white quiet zone on every side
	ShowText    bool    // print the value under the bars
	FontSize    float64 // points, for the value text
	TextGap     int     // space between bars and text
}

// CardOptions is used for grid sheets and downloadable images.
func CardOptions() Options {
	return Options{
		ModuleWidth: 2,
		Height:      60,
		Margin:      10,
		ShowText:    true,
		FontSize:    5,
		TextGap:     2,
	}
}

// ThermalOptions is used on 40x60 mm labels, where the value is printed
// separately as HTML text.
func ThermalOptions() Options {
	return Options{
		ModuleWidth: 2,
		Height:      25,
		Margin:      0,
		ShowText:    false,
	}
}

// Renderer draws barcodes onto surfaces from its factory.
type Renderer struct {
	surfaces raster.Factory
	opts     Options
}

// New creates a renderer.
func New(surfaces raster.Factory, opts Options) *Renderer {
	if opts.ModuleWidth <= 0 {
		opts.ModuleWidth = 1
	}
	if opts.Height <= 0 {
		opts.Height = 60
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 5
	}
	return &Renderer{surfaces: surfaces, opts: opts}
}

// Options returns the renderer's geometry.
func (r *Renderer) Options() Options {
	return r.opts
}

// RenderText draws code as plain monospaced text. It is the degraded
// output for values the symbology rejects.
func (r *Renderer) RenderText(code string) (image.Image, error) {
	width, height, err := r.measure(code)
	if err != nil {
		return nil, err
	}
	margin := r.opts.Margin
	if margin < 4 {
		margin = 4
	}

	s, err := r.surfaces.NewSurface(width+2*margin, height+2*margin)
	if err != nil {
		return nil, err
	}
	defer s.Release()

	if err := s.SetFont(raster.Mono, r.opts.FontSize); err != nil {
		return nil, err
	}
	s.DrawStringCentered(code, float64(s.Width())/2, float64(margin)+s.FontHeight())

	return s.Image(), nil
}

// RenderOrFallback renders code as a barcode, degrading to RenderText when
// the value cannot be encoded. Only surface failures are returned as errors.
func (r *Renderer) RenderOrFallback(code string) (img image.Image, degraded bool, err error) {
	img, err = r.Render(code)
	if err == nil {
		return img, false, nil
	}
	if !errors.Is(err, ErrInvalidValue) {
		return nil, false, err
	}
	img, err = r.RenderText(code)
	if err != nil {
		return nil, true, err
	}
	return img, true, nil
}

// measure reports the pixel size of code in the text face using a scratch
// surface.
func (r *Renderer) measure(code string) (int, int, error) {
	probe, err := r.surfaces.NewSurface(1, 1)
	if err != nil {
		return 0, 0, err
	}
	defer probe.Release()

	if err := probe.SetFont(raster.Mono, r.opts.FontSize); err != nil {
		return 0, 0, err
	}
	w := int(math.Ceil(probe.MeasureString(code)))
	h := int(math.Ceil(probe.FontHeight() * 1.3))
	if w < 1 {
		w = 1
	}
	return w, h, nil
}

// cropHeight trims img to its top height rows.
func cropHeight(img image.Image, height int) image.Image {
	b := img.Bounds()
	if height >= b.Dy() {
		return img
	}
	return imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+height))
}

func invalid(code string, err error) error {
	return fmt.Errorf("%w: %q: %v", ErrInvalidValue, code, err)
}
