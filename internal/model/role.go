package model

import "fmt"

// Role is the closed set of account kinds. A user's role is fixed at signup.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// Roles lists every legal role.
var Roles = []Role{RoleTeacher, RoleStudent, RoleParent}

// Valid reports whether r is one of the legal roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// ParseRole converts a stored or transmitted role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
