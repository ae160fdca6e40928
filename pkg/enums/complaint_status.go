package enums

import "fmt"

// ComplaintStatus tracks the dispute lifecycle of a complaint.
// open -> disputed (one narrative allowed) -> {upheld, dismissed, warned};
// open may also move straight to a terminal state on a manager decision.
type ComplaintStatus string

const (
	ComplaintStatusOpen      ComplaintStatus = "open"
	ComplaintStatusDisputed  ComplaintStatus = "disputed"
	ComplaintStatusUpheld    ComplaintStatus = "upheld"
	ComplaintStatusDismissed ComplaintStatus = "dismissed"
	ComplaintStatusWarned    ComplaintStatus = "warned"
)

var validComplaintStatuses = []ComplaintStatus{
	ComplaintStatusOpen,
	ComplaintStatusDisputed,
	ComplaintStatusUpheld,
	ComplaintStatusDismissed,
	ComplaintStatusWarned,
}

// IsValid reports whether the value is a known ComplaintStatus.
func (c ComplaintStatus) IsValid() bool {
	for _, candidate := range validComplaintStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a manager decision already resolved it.
func (c ComplaintStatus) IsTerminal() bool {
	switch c {
	case ComplaintStatusUpheld, ComplaintStatusDismissed, ComplaintStatusWarned:
		return true
	}
	return false
}

// ParseComplaintStatus converts raw input into a ComplaintStatus.
func ParseComplaintStatus(value string) (ComplaintStatus, error) {
	for _, candidate := range validComplaintStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid complaint status %q", value)
}

// ManagerDecision is the manager's terminal call on a complaint.
type ManagerDecision string

const (
	ManagerDecisionResolve ManagerDecision = "resolve"
	ManagerDecisionReject  ManagerDecision = "reject"
	ManagerDecisionWarn    ManagerDecision = "warn"
)

// IsValid reports whether the value is a known ManagerDecision.
func (m ManagerDecision) IsValid() bool {
	switch m {
	case ManagerDecisionResolve, ManagerDecisionReject, ManagerDecisionWarn:
		return true
	}
	return false
}
