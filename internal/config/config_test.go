package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":12212", cfg.Addr)
	assert.Equal(t, 8.0, cfg.PixelsPerMM)
	assert.Equal(t, "S/", cfg.Currency)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.False(t, cfg.IsProduction())

	ec := cfg.Export()
	assert.Equal(t, 210.0, ec.Geometry.Width)
	assert.Equal(t, 190.0, ec.Geometry.ContentWidth())
	assert.Equal(t, "page %d of %d", ec.FooterFormat)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("LABEL_PAGE_WIDTH_MM", "230")
	t.Setenv("LABEL_CURRENCY", "$")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 230.0, cfg.PageWidth)
	assert.Equal(t, "$", cfg.Export().Currency)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LABEL_PIXELS_PER_MM", "0")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LABEL_PIXELS_PER_MM", "abc")
	_, err = Load()
	assert.Error(t, err)
}
