// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "fmt"

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access, including role and permission management
	RoleAdmin UserRole = "admin"

	// Can operate tasks and webhooks but cannot manage accounts
	RoleOperator UserRole = "operator"

	// Default role for standard registered users
	RoleMember UserRole = "member"
)

// Roles lists every assignable role from most to least privileged.
var Roles = []UserRole{RoleAdmin, RoleOperator, RoleMember}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

// ParseRole converts raw input into a [UserRole], rejecting unknown values.
func ParseRole(raw string) (UserRole, error) {
	role := UserRole(raw)
	if !role.Valid() {
		return "", fmt.Errorf("sec: unknown role %q", raw)
	}
	return role, nil
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale leaves room for intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleOperator:
		return 20
	case RoleMember:
		return 10
	default:
		return 0
	}
}
