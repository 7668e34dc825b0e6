package domain

import "github.com/google/uuid"

// NewID mints an opaque identifier for quizzes, questions, options and results.
func NewID() string {
	return uuid.NewString()
}
