package enums

import "fmt"

// ListingStatus describes the availability lifecycle of a listing.
type ListingStatus string

const (
	ListingStatusActive ListingStatus = "ACTIVE"
	ListingStatusSold   ListingStatus = "SOLD"
)

var validListingStatuses = []ListingStatus{
	ListingStatusActive,
	ListingStatusSold,
}

// String implements fmt.Stringer.
func (s ListingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ListingStatus.
func (s ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the status change is allowed. The only
// legal transition is ACTIVE to SOLD.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	return s == ListingStatusActive && next == ListingStatusSold
}

// ParseListingStatus converts raw input into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}
