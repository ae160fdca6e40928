package enums

import "fmt"

// UserRole tags the user variant. Role-specific behavior branches on the
// tag; there is no type hierarchy behind it.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleChef     UserRole = "chef"
	UserRoleDelivery UserRole = "delivery"
	UserRoleManager  UserRole = "manager"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleChef,
	UserRoleDelivery,
	UserRoleManager,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role is evaluated under staff thresholds.
func (u UserRole) IsStaff() bool {
	return u == UserRoleChef || u == UserRoleDelivery
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
