package enums

import (
	"fmt"
	"strings"
)

// UserRole represents the account type chosen at signup. It is fixed at
// creation and never re-derived from activity.
type UserRole string

const (
	UserRoleBuyer  UserRole = "BUYER"
	UserRoleSeller UserRole = "SELLER"
	UserRoleAdmin  UserRole = "ADMIN"
)

var validUserRoles = []UserRole{
	UserRoleBuyer,
	UserRoleSeller,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole, uppercasing first.
func ParseUserRole(value string) (UserRole, error) {
	normalized := UserRole(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range validUserRoles {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
