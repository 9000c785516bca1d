package printopts

import "time"

// SortBy is the product attribute a batch is ordered by.
type SortBy string

const (
	SortByName        SortBy = "name"
	SortByBarcode     SortBy = "barcode"
	SortByCreatedDate SortBy = "createdDate"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// SizeClass selects the physical barcode size.
type SizeClass string

const (
	Small  SizeClass = "small"
	Medium SizeClass = "medium"
	Large  SizeClass = "large"
)

// Dimensions is a width and height in millimetres.
type Dimensions struct {
	Width  float64
	Height float64
}

// Dimensions returns the barcode footprint of the size class. Unknown
// classes fall back to medium.
func (s SizeClass) Dimensions() Dimensions {
	switch s {
	case Small:
		return Dimensions{Width: 40, Height: 20}
	case Large:
		return Dimensions{Width: 80, Height: 40}
	default:
		return Dimensions{Width: 60, Height: 30}
	}
}

// Sort is a sort key and its direction. They are never set apart.
type Sort struct {
	By    SortBy    `json:"sortBy" validate:"oneof=name barcode createdDate"`
	Order SortOrder `json:"sortOrder" validate:"oneof=asc desc"`
}

// PrintOptions is the user's request for one print job.
type PrintOptions struct {
	StartDate          *time.Time `json:"startDate,omitempty"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	ProductIDs         []string   `json:"productIds,omitempty" validate:"dive,required"`
	Sort
	BarcodeSize        SizeClass `json:"barcodeSize" validate:"oneof=small medium large"`
	IncludeProductName bool      `json:"includeProductName"`
	IncludeProductCode bool      `json:"includeProductCode"`
}

// Default returns options that print every product by name, medium size,
// with name and code.
func Default() PrintOptions {
	return PrintOptions{
		Sort:               Sort{By: SortByName, Order: Ascending},
		BarcodeSize:        Medium,
		IncludeProductName: true,
		IncludeProductCode: true,
	}
}
