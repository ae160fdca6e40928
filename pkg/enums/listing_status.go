package enums

import "fmt"

// ListingStatus tracks the lifecycle of a delivery listing.
// Legal transitions: open -> {closed, no_bidders, assigned};
// no_bidders -> assigned (manual manager assignment only).
type ListingStatus string

const (
	ListingStatusOpen      ListingStatus = "open"
	ListingStatusClosed    ListingStatus = "closed"
	ListingStatusNoBidders ListingStatus = "no_bidders"
	ListingStatusAssigned  ListingStatus = "assigned"
)

var validListingStatuses = []ListingStatus{
	ListingStatusOpen,
	ListingStatusClosed,
	ListingStatusNoBidders,
	ListingStatusAssigned,
}

// String implements fmt.Stringer.
func (l ListingStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known ListingStatus.
func (l ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == l {
			return true
		}
	}
	return false
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

// AssignmentType records how a listing's winner was chosen.
type AssignmentType string

const (
	AssignmentTypeAuto            AssignmentType = "auto_assign"
	AssignmentTypeManagerOverride AssignmentType = "manager_override"
)

// IsValid reports whether the value is a known AssignmentType.
func (a AssignmentType) IsValid() bool {
	return a == AssignmentTypeAuto || a == AssignmentTypeManagerOverride
}
