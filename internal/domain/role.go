package domain

import "fmt"

// Role enumerates account roles. The set is closed: role labels arriving on
// the wire must go through ParseRole.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// ParseRole validates a role label from an untrusted source.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMember:
		return RoleMember, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsPrivileged reports whether the role carries the highest privilege label.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin
}
