package domain

import "fmt"

// Role is the closed set of roles a principal can carry.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", raw)}
	}
}

// Principal is the authenticated actor, as supplied by the auth layer.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
