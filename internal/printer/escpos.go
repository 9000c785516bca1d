// Package printer drives thermal label printers over ESC/POS.
package printer

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// ESC/POS commands
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
)

// threshold separates ink from paper on the 0-255 gray scale.
const threshold = 128

// Encoder generates ESC/POS commands from label images.
type Encoder struct {
	buffer *bytes.Buffer
}

// NewEncoder creates an encoder with an empty buffer.
func NewEncoder() *Encoder {
	return &Encoder{buffer: new(bytes.Buffer)}
}

// Initialize resets the printer (ESC @).
func (e *Encoder) Initialize() {
	e.buffer.Write([]byte{ESC, '@'})
}

// RasterImage prints img with the raster bit image command
// GS v 0 m xL xH yL yH d1...dk. Rows are padded to whole bytes.
func (e *Encoder) RasterImage(img image.Image) {
	bitmap, bytesPerLine, height := Bitmap(img)
	if height == 0 {
		return
	}
	e.buffer.Write([]byte{
		GS, 'v', '0', 0,
		byte(bytesPerLine), byte(bytesPerLine >> 8),
		byte(height), byte(height >> 8),
	})
	e.buffer.Write(bitmap)
}

// Feed advances the paper n lines.
func (e *Encoder) Feed(n int) {
	for range n {
		e.buffer.WriteByte(0x0A)
	}
}

// Cut sends a full cut (GS V 0).
func (e *Encoder) Cut() {
	e.buffer.Write([]byte{GS, 'V', 0})
}

// Bytes returns the generated commands.
func (e *Encoder) Bytes() []byte {
	return e.buffer.Bytes()
}

// Reset clears the buffer.
func (e *Encoder) Reset() {
	e.buffer.Reset()
}

// Bitmap converts img to a packed 1-bit bitmap, most significant bit
// first, with a set bit for ink.
func Bitmap(img image.Image) (bitmap []byte, bytesPerLine, height int) {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	bytesPerLine = (width + 7) / 8
	bitmap = make([]byte, bytesPerLine*height)

	for y := 0; y < height; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < width; x++ {
			// NRGBA pixels: the gray level is in R, coverage in A.
			r, a := row[x*4], row[x*4+3]
			if a >= threshold && r < threshold {
				bitmap[y*bytesPerLine+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return bitmap, bytesPerLine, height
}

// EncodeLabels frames a batch of label images: initialize, then each label
// followed by a feed and a cut.
func EncodeLabels(imgs []image.Image) []byte {
	e := NewEncoder()
	e.Initialize()
	for _, img := range imgs {
		e.RasterImage(img)
		e.Feed(3)
		e.Cut()
	}
	return e.Bytes()
}
