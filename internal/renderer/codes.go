package renderer

import (
	"errors"
	"image"
	"math"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/thereceipt/label-engine/internal/raster"
)

// Render encodes code as Code 128 and draws it with the configured margins,
// optionally followed by the human-readable value.
func (r *Renderer) Render(code string) (image.Image, error) {
	if code == "" {
		return nil, invalid(code, errors.New("empty value"))
	}

	bc, err := code128.Encode(code)
	if err != nil {
		return nil, invalid(code, err)
	}

	barsWidth := bc.Bounds().Dx() * r.opts.ModuleWidth
	bars, err := barcode.Scale(bc, barsWidth, r.opts.Height)
	if err != nil {
		return nil, invalid(code, err)
	}

	margin := r.opts.Margin
	// Reserve as much room for the text as the bars take; the unused part
	// is cropped away below.
	reserve := 0
	if r.opts.ShowText {
		reserve = r.opts.Height + r.opts.TextGap
	}

	s, err := r.surfaces.NewSurface(barsWidth+2*margin, r.opts.Height+reserve+2*margin)
	if err != nil {
		return nil, err
	}
	defer s.Release()

	s.DrawImage(bars, margin, margin)
	used := margin + r.opts.Height

	if r.opts.ShowText {
		if err := s.SetFont(raster.Mono, r.opts.FontSize); err != nil {
			return nil, err
		}
		baseline := float64(used+r.opts.TextGap) + s.FontHeight()
		s.DrawStringCentered(code, float64(s.Width())/2, baseline)
		used = int(math.Ceil(baseline + s.FontHeight()*0.3))
	}

	return cropHeight(s.Image(), used+margin), nil
}
