package enums

import "fmt"

// ReputationStatus is the standing derived from a user's reputation fold.
// Customers move between normal/vip/blacklisted; staff between
// normal/warned/demoted/fired. Deactivated applies to any role.
type ReputationStatus string

const (
	ReputationStatusNormal      ReputationStatus = "normal"
	ReputationStatusVIP         ReputationStatus = "vip"
	ReputationStatusBlacklisted ReputationStatus = "blacklisted"
	ReputationStatusWarned      ReputationStatus = "warned"
	ReputationStatusDemoted     ReputationStatus = "demoted"
	ReputationStatusFired       ReputationStatus = "fired"
	ReputationStatusDeactivated ReputationStatus = "deactivated"
)

var validReputationStatuses = []ReputationStatus{
	ReputationStatusNormal,
	ReputationStatusVIP,
	ReputationStatusBlacklisted,
	ReputationStatusWarned,
	ReputationStatusDemoted,
	ReputationStatusFired,
	ReputationStatusDeactivated,
}

// String implements fmt.Stringer.
func (r ReputationStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReputationStatus.
func (r ReputationStatus) IsValid() bool {
	for _, candidate := range validReputationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (r ReputationStatus) IsTerminal() bool {
	switch r {
	case ReputationStatusBlacklisted, ReputationStatusFired, ReputationStatusDeactivated:
		return true
	}
	return false
}

// ParseReputationStatus converts raw input into a ReputationStatus.
func ParseReputationStatus(value string) (ReputationStatus, error) {
	for _, candidate := range validReputationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reputation status %q", value)
}
