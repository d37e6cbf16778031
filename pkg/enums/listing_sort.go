package enums

import "fmt"

// ListingSort names the supported browse orderings.
type ListingSort string

const (
	ListingSortNewest    ListingSort = "newest"
	ListingSortOldest    ListingSort = "oldest"
	ListingSortPriceLow  ListingSort = "price-low"
	ListingSortPriceHigh ListingSort = "price-high"
)

var validListingSorts = []ListingSort{
	ListingSortNewest,
	ListingSortOldest,
	ListingSortPriceLow,
	ListingSortPriceHigh,
}

// String implements fmt.Stringer.
func (s ListingSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ListingSort.
func (s ListingSort) IsValid() bool {
	for _, candidate := range validListingSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseListingSort converts raw input into a ListingSort.
func ParseListingSort(value string) (ListingSort, error) {
	for _, candidate := range validListingSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing sort %q", value)
}
