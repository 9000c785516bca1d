package printopts

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Parse decodes PrintOptions from JSON, fills defaults and validates.
// Dates may be RFC 3339 timestamps or plain YYYY-MM-DD days.
func Parse(data []byte) (*PrintOptions, error) {
	var temp struct {
		StartDate          string    `json:"startDate,omitempty"`
		EndDate            string    `json:"endDate,omitempty"`
		ProductIDs         []string  `json:"productIds,omitempty"`
		SortBy             SortBy    `json:"sortBy,omitempty"`
		SortOrder          SortOrder `json:"sortOrder,omitempty"`
		BarcodeSize        SizeClass `json:"barcodeSize,omitempty"`
		IncludeProductName *bool     `json:"includeProductName,omitempty"`
		IncludeProductCode *bool     `json:"includeProductCode,omitempty"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return nil, fmt.Errorf("failed to parse print options: %w", err)
	}

	opts := Default()
	opts.ProductIDs = temp.ProductIDs
	if temp.SortBy != "" {
		opts.By = temp.SortBy
	}
	if temp.SortOrder != "" {
		opts.Order = temp.SortOrder
	}
	if temp.BarcodeSize != "" {
		opts.BarcodeSize = temp.BarcodeSize
	}
	if temp.IncludeProductName != nil {
		opts.IncludeProductName = *temp.IncludeProductName
	}
	if temp.IncludeProductCode != nil {
		opts.IncludeProductCode = *temp.IncludeProductCode
	}

	var err error
	if opts.StartDate, err = parseDate(temp.StartDate); err != nil {
		return nil, fmt.Errorf("startDate: %w", err)
	}
	if opts.EndDate, err = parseDate(temp.EndDate); err != nil {
		return nil, fmt.Errorf("endDate: %w", err)
	}

	if err := Validate(&opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// ParseFile reads and parses a print options file.
func ParseFile(path string) (*PrintOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read print options file: %w", err)
	}
	return Parse(data)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	return &t, nil
}
