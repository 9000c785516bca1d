package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereceipt/label-engine/internal/raster"
)

func newCardRenderer() *Renderer {
	return New(raster.NewGG(raster.DefaultPixelsPerMM), CardOptions())
}

func TestRender_Code128(t *testing.T) {
	img, err := newCardRenderer().Render("482X7")
	require.NoError(t, err)

	b := img.Bounds()
	assert.Greater(t, b.Dx(), b.Dy(), "barcode should be wider than tall")
	assert.Greater(t, b.Dy(), 60+2*10, "text row should add height below the bars")

	// Somewhere in the bar area there must be ink.
	dark := false
	y := b.Min.Y + 10 + 30
	for x := b.Min.X; x < b.Max.X && !dark; x++ {
		r, _, _, _ := img.At(x, y).RGBA()
		dark = r < 0x8000
	}
	assert.True(t, dark)
}

func TestRender_ThermalHasNoText(t *testing.T) {
	r := New(raster.NewGG(raster.DefaultPixelsPerMM), ThermalOptions())

	img, err := r.Render("750000123-GEN")
	require.NoError(t, err)
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestRender_InvalidValue(t *testing.T) {
	_, err := newCardRenderer().Render("código™")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = newCardRenderer().Render("")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestRenderOrFallback(t *testing.T) {
	r := newCardRenderer()

	img, degraded, err := r.RenderOrFallback("123G4")
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.NotNil(t, img)

	img, degraded, err = r.RenderOrFallback("código™")
	require.NoError(t, err)
	assert.True(t, degraded)
	assert.NotNil(t, img)
}

func TestRenderOrFallback_SurfaceUnavailable(t *testing.T) {
	r := New(raster.Unavailable{}, CardOptions())

	_, _, err := r.RenderOrFallback("123G4")
	assert.ErrorIs(t, err, raster.ErrUnavailable)
}
