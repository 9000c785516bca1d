// Package raster provides the drawing surface the renderer and compositor
// paint on. The gg-backed implementation uses the embedded Go fonts so text
// metrics are identical on every host, headless servers included.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// ErrUnavailable means no drawing surface could be created.
var ErrUnavailable = errors.New("raster: drawing surface unavailable")

// DefaultPixelsPerMM is roughly 203 dpi, the usual thermal printer density.
const DefaultPixelsPerMM = 8.0

// maxPixels caps a single surface at 64 megapixels.
const maxPixels = 64 << 20

// FontStyle selects one of the embedded faces.
type FontStyle int

const (
	Regular FontStyle = iota
	Bold
	Mono
)

// Surface is a white canvas with black ink by default.
type Surface interface {
	Width() int
	Height() int
	SetColor(c color.Color)
	FillRect(x, y, w, h float64)
	StrokeRect(x, y, w, h, lineWidth float64)
	SetFont(style FontStyle, sizePt float64) error
	MeasureString(s string) float64
	FontHeight() float64
	DrawString(s string, x, baseline float64)
	DrawStringCentered(s string, cx, baseline float64)
	DrawImage(img image.Image, x, y int)
	Image() image.Image
	EncodePNG(w io.Writer) error
	// Release frees the font faces held by the surface. The image returned
	// by Image stays valid.
	Release()
}

// Factory creates surfaces.
type Factory interface {
	NewSurface(width, height int) (Surface, error)
}

// MMToPx converts millimetres to whole pixels.
func MMToPx(mm, pixelsPerMM float64) int {
	return int(math.Round(mm * pixelsPerMM))
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

var (
	fontsOnce sync.Once
	fonts     map[FontStyle]*opentype.Font
	fontsErr  error
)

func loadFonts() (map[FontStyle]*opentype.Font, error) {
	fontsOnce.Do(func() {
		sources := map[FontStyle][]byte{
			Regular: goregular.TTF,
			Bold:    gobold.TTF,
			Mono:    gomono.TTF,
		}
		parsed := make(map[FontStyle]*opentype.Font, len(sources))
		for style, ttf := range sources {
			f, err := opentype.Parse(ttf)
			if err != nil {
				fontsErr = fmt.Errorf("parse embedded font: %w", err)
				return
			}
			parsed[style] = f
		}
		fonts = parsed
	})
	return fonts, fontsErr
}

// GG creates surfaces backed by fogleman/gg.
type GG struct {
	dpi float64
}

// NewGG returns a factory whose font sizes are interpreted at the given
// pixel density.
func NewGG(pixelsPerMM float64) *GG {
	if pixelsPerMM <= 0 {
		pixelsPerMM = DefaultPixelsPerMM
	}
	return &GG{dpi: pixelsPerMM * 25.4}
}

// NewSurface allocates a width x height canvas cleared to white.
func (f *GG) NewSurface(width, height int) (Surface, error) {
	if width <= 0 || height <= 0 || width*height > maxPixels {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrUnavailable, width, height)
	}
	faces, err := loadFonts()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ctx := gg.NewContext(width, height)
	ctx.SetColor(color.White)
	ctx.Clear()
	ctx.SetColor(color.Black)

	return &ggSurface{ctx: ctx, fonts: faces, dpi: f.dpi}, nil
}

type ggSurface struct {
	ctx   *gg.Context
	fonts map[FontStyle]*opentype.Font
	dpi   float64
	faces []font.Face
}

func (s *ggSurface) Width() int  { return s.ctx.Width() }
func (s *ggSurface) Height() int { return s.ctx.Height() }

func (s *ggSurface) SetColor(c color.Color) { s.ctx.SetColor(c) }

func (s *ggSurface) FillRect(x, y, w, h float64) {
	s.ctx.DrawRectangle(x, y, w, h)
	s.ctx.Fill()
}

func (s *ggSurface) StrokeRect(x, y, w, h, lineWidth float64) {
	s.ctx.SetLineWidth(lineWidth)
	s.ctx.DrawRectangle(x, y, w, h)
	s.ctx.Stroke()
}

func (s *ggSurface) SetFont(style FontStyle, sizePt float64) error {
	f, ok := s.fonts[style]
	if !ok {
		return fmt.Errorf("unknown font style %d", style)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     s.dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("create font face: %w", err)
	}
	s.faces = append(s.faces, face)
	s.ctx.SetFontFace(face)
	return nil
}

func (s *ggSurface) MeasureString(str string) float64 {
	w, _ := s.ctx.MeasureString(str)
	return w
}

func (s *ggSurface) FontHeight() float64 { return s.ctx.FontHeight() }

func (s *ggSurface) DrawString(str string, x, baseline float64) {
	s.ctx.DrawString(str, x, baseline)
}

func (s *ggSurface) DrawStringCentered(str string, cx, baseline float64) {
	s.ctx.DrawStringAnchored(str, cx, baseline, 0.5, 0)
}

func (s *ggSurface) DrawImage(img image.Image, x, y int) {
	s.ctx.DrawImage(img, x, y)
}

func (s *ggSurface) Image() image.Image { return s.ctx.Image() }

func (s *ggSurface) EncodePNG(w io.Writer) error { return s.ctx.EncodePNG(w) }

func (s *ggSurface) Release() {
	for _, face := range s.faces {
		face.Close()
	}
	s.faces = nil
}

// Unavailable is a factory for environments without raster support.
type Unavailable struct {
	Reason string
}

func (u Unavailable) NewSurface(width, height int) (Surface, error) {
	if u.Reason == "" {
		return nil, ErrUnavailable
	}
	return nil, fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}
