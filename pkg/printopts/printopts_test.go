package printopts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	opts, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, SortByName, opts.By)
	assert.Equal(t, Ascending, opts.Order)
	assert.Equal(t, Medium, opts.BarcodeSize)
	assert.True(t, opts.IncludeProductName)
	assert.True(t, opts.IncludeProductCode)
	assert.Nil(t, opts.StartDate)
	assert.Nil(t, opts.EndDate)
	assert.Empty(t, opts.ProductIDs)
}

func TestParse_Full(t *testing.T) {
	opts, err := Parse([]byte(`{
		"startDate": "2024-01-01",
		"endDate": "2024-01-31T00:00:00Z",
		"productIds": ["p1", "p2"],
		"sortBy": "createdDate",
		"sortOrder": "desc",
		"barcodeSize": "small",
		"includeProductName": false,
		"includeProductCode": true
	}`))
	require.NoError(t, err)

	require.NotNil(t, opts.StartDate)
	require.NotNil(t, opts.EndDate)
	assert.Equal(t, 2024, opts.StartDate.Year())
	assert.Equal(t, 31, opts.EndDate.Day())
	assert.Equal(t, []string{"p1", "p2"}, opts.ProductIDs)
	assert.Equal(t, Sort{By: SortByCreatedDate, Order: Descending}, opts.Sort)
	assert.Equal(t, Small, opts.BarcodeSize)
	assert.False(t, opts.IncludeProductName)
	assert.True(t, opts.IncludeProductCode)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"malformed json": `{`,
		"bad sort key":   `{"sortBy": "price"}`,
		"bad order":      `{"sortOrder": "up"}`,
		"bad size":       `{"barcodeSize": "huge"}`,
		"bad date":       `{"startDate": "yesterday"}`,
		"empty id":       `{"productIds": [""]}`,
		"reversed range": `{"startDate": "2024-02-01", "endDate": "2024-01-01"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestValidate_SameDayRange(t *testing.T) {
	opts, err := Parse([]byte(`{"startDate": "2024-01-15T12:00:00Z", "endDate": "2024-01-15T00:00:00Z"}`))
	require.NoError(t, err)
	assert.NotNil(t, opts.EndDate)
}

func TestValidate_ErrInvalid(t *testing.T) {
	o := Default()
	o.BarcodeSize = "tiny"
	assert.ErrorIs(t, Validate(&o), ErrInvalid)
}

func TestSizeClass_Dimensions(t *testing.T) {
	assert.Equal(t, Dimensions{Width: 40, Height: 20}, Small.Dimensions())
	assert.Equal(t, Dimensions{Width: 60, Height: 30}, Medium.Dimensions())
	assert.Equal(t, Dimensions{Width: 80, Height: 40}, Large.Dimensions())
	assert.Equal(t, Medium.Dimensions(), SizeClass("").Dimensions())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"barcodeSize": "large"}`), 0o644))

	opts, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, Large, opts.BarcodeSize)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
