package app

import (
	"context"

	"quiz-grading-service/internal/domain"
)

// QuizStore persists authored quizzes with their full answer keys.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
}

// ResultStore persists immutable results. SaveResult assigns ID and SubmittedAt
// and fails with domain.ErrQuizNotFound when the quiz no longer exists.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.Result) (domain.Result, error)
	ListResults(ctx context.Context) ([]domain.Result, error)
	ListResultsByQuiz(ctx context.Context, quizID string) ([]domain.Result, error)
	ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error)
	DeleteResultsByQuiz(ctx context.Context, quizID string) (int, error)
}

// CascadeDeleter is implemented by stores that can remove a quiz and its
// results in one transaction.
type CascadeDeleter interface {
	DeleteQuizCascade(ctx context.Context, quizID string) (int, error)
}

// QuizRepository loads answer-bearing quiz definitions for grading (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizCache drops cached definitions after the catalog changes a quiz.
type QuizCache interface {
	Invalidate(ctx context.Context, quizID string) error
}

// UserDirectory resolves user profiles for result enrichment. Unknown ids are
// left out of the returned map.
type UserDirectory interface {
	LookupUsers(ctx context.Context, userIDs []string) (map[string]domain.UserProfile, error)
}

// ResultPublisher announces newly stored results.
type ResultPublisher interface {
	Publish(ctx context.Context, result domain.Result) error
}

// ResultFeed fans out stored results to subscribers of a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
type ResultFeed interface {
	ResultPublisher
	Subscribe(ctx context.Context, quizID string) (<-chan domain.Result, func(), error)
}

// QuizLoaderFunc adapts a lookup function to the cache loaders' LoadQuiz method.
type QuizLoaderFunc func(ctx context.Context, quizID string) (domain.Quiz, error)

func (f QuizLoaderFunc) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return f(ctx, quizID)
}
