// Package policy holds the ownership and role predicates that gate catalog
// mutations and result access. Every function is pure.
package policy

import "quiz-grading-service/internal/domain"

// CanAuthor reports whether the principal's role allows quiz authoring at all.
func CanAuthor(p domain.Principal) bool {
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleUser:
		return false
	default:
		return false
	}
}

// CanMutate is true iff the principal created the quiz. Role never overrides ownership.
func CanMutate(quiz domain.Quiz, p domain.Principal) bool {
	return p.ID != "" && p.ID == quiz.CreatedBy
}

// CanViewAllResults is true iff the principal is an admin.
func CanViewAllResults(p domain.Principal) bool {
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleUser:
		return false
	default:
		return false
	}
}

// CanViewUserResults allows users to read their own results and admins to read anyone's.
func CanViewUserResults(p domain.Principal, userID string) bool {
	return CanViewAllResults(p) || (p.ID != "" && p.ID == userID)
}
