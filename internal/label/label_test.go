package label

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereceipt/label-engine/internal/raster"
)

// fixedWidth measures every rune as 10 px.
func fixedWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s) * 10)
}

func TestTruncate_FitsUnchanged(t *testing.T) {
	assert.Equal(t, "Ball", Truncate(fixedWidth, "Ball", 100))
}

func TestTruncate_AddsEllipsis(t *testing.T) {
	got := Truncate(fixedWidth, "Locomotives set", 100)

	assert.Equal(t, "Locomot...", got)
	assert.LessOrEqual(t, fixedWidth(got), 100.0)
}

func TestTruncate_EllipsisWiderThanDroppedRunes(t *testing.T) {
	// Ellipsis dots are wide here, so extra runes must go.
	measure := func(s string) float64 {
		n := 0.0
		for _, r := range s {
			if r == '.' {
				n += 20
			} else {
				n += 10
			}
		}
		return n
	}

	got := Truncate(measure, "abcdefghijkl", 100)
	assert.True(t, strings.HasSuffix(got, Ellipsis))
	assert.LessOrEqual(t, measure(got), 100.0)
}

func TestTruncate_NarrowSlot(t *testing.T) {
	tests := []struct {
		max  float64
		want string
	}{
		{30, "..."},
		{20, ".."},
		{10, "."},
		{5, ""},
	}
	for _, tt := range tests {
		got := Truncate(fixedWidth, "abcdefgh", tt.max)
		assert.Equal(t, tt.want, got, "max %v", tt.max)
		assert.LessOrEqual(t, fixedWidth(got), tt.max)
	}

	for _, l := range Wrap(fixedWidth, "Locomotive", 20) {
		assert.LessOrEqual(t, fixedWidth(l), 20.0)
	}
}

func TestTruncate_RealFont(t *testing.T) {
	pixelsPerMM := raster.DefaultPixelsPerMM
	s, err := raster.NewGG(pixelsPerMM).NewSurface(10, 10)
	require.NoError(t, err)
	defer s.Release()

	style := GridStyle(pixelsPerMM)
	require.NoError(t, s.SetFont(raster.Bold, style.NameSize))

	// 40 mm slot minus padding on both sides.
	avail := float64(raster.MMToPx(40, pixelsPerMM) - 2*style.Padding)
	got := Truncate(s.MeasureString, "Supercalifragilisticexpialidocious Toy", avail)

	assert.True(t, strings.HasSuffix(got, "..."), "got %q", got)
	assert.LessOrEqual(t, s.MeasureString(got), avail)
}

func TestWrap(t *testing.T) {
	lines := Wrap(fixedWidth, "red wooden toy car with lights", 100)

	assert.Equal(t, []string{"red wooden", "toy car", "with", "lights"}, lines)
	for _, l := range lines {
		assert.LessOrEqual(t, fixedWidth(l), 100.0)
	}
}

func TestWrap_LongWordIsTruncated(t *testing.T) {
	lines := Wrap(fixedWidth, "Supercalifragilisticexpialidocious Toy", 100)

	require.Len(t, lines, 2)
	assert.Equal(t, "Superca...", lines[0])
	assert.Equal(t, "Toy", lines[1])
}

func TestWrap_Empty(t *testing.T) {
	assert.Nil(t, Wrap(fixedWidth, "   ", 100))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "S/ 12.50", FormatPrice("S/", decimal.RequireFromString("12.5")))
	assert.Equal(t, "S/ 0.00", FormatPrice("S/", decimal.Zero))
	assert.Equal(t, "3.14", FormatPrice("", decimal.RequireFromString("3.14159")))
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestCompose(t *testing.T) {
	pixelsPerMM := raster.DefaultPixelsPerMM
	c := New(raster.NewGG(pixelsPerMM), GridStyle(pixelsPerMM))
	slot := Size{Width: raster.MMToPx(80, pixelsPerMM), Height: raster.MMToPx(65, pixelsPerMM)}

	img, err := c.Compose(slot, Content{
		Name:    "Remote control car",
		Price:   decimal.NewNullDecimal(decimal.RequireFromString("49.9")),
		Barcode: solidImage(200, 100),
	})
	require.NoError(t, err)
	assert.Equal(t, slot.Width, img.Bounds().Dx())
	assert.Equal(t, slot.Height, img.Bounds().Dy())

	// The barcode spans the slot minus padding, centered.
	pad := GridStyle(pixelsPerMM).Padding
	row := findInkRow(img, slot.Width/2)
	require.GreaterOrEqual(t, row, 0)
	assert.True(t, isDark(img.At(pad+1, row)))
	assert.False(t, isDark(img.At(pad/2, row)))
}

func TestCompose_Unavailable(t *testing.T) {
	c := New(raster.Unavailable{}, GridStyle(raster.DefaultPixelsPerMM))

	_, err := c.Compose(Size{Width: 10, Height: 10}, Content{Name: "x"})
	assert.ErrorIs(t, err, raster.ErrUnavailable)
}

func TestScaledSize(t *testing.T) {
	w, h := scaledSize(solidImage(200, 100), 300)
	assert.Equal(t, 300, w)
	assert.Equal(t, 150, h)
}

func isDark(c color.Color) bool {
	r, _, _, _ := c.RGBA()
	return r < 0x4000
}

// findInkRow returns the lowest row with ink at column x, which is inside
// the solid barcode block.
func findInkRow(img image.Image, x int) int {
	b := img.Bounds()
	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		if isDark(img.At(x, y)) {
			return y
		}
	}
	return -1
}
