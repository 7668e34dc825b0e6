package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/infra/memory"
)

var (
	owner    = domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}
	rival    = domain.Principal{ID: "admin-2", Role: domain.RoleAdmin}
	taker    = domain.Principal{ID: "user-1", Role: domain.RoleUser}
	fixedNow = time.Date(2024, 11, 22, 9, 30, 0, 0, time.UTC)
)

type fixture struct {
	store   *memory.Store
	cache   *memory.QuizRepository
	catalog *app.CatalogService
	grading *app.GradingService
	results *app.ResultService
}

func newFixture() *fixture {
	store := memory.NewStoreWithClock(func() time.Time { return fixedNow })
	cache := memory.NewQuizRepository(app.QuizLoaderFunc(store.GetQuiz), time.Minute)
	return &fixture{
		store:   store,
		cache:   cache,
		catalog: app.NewCatalogService(store, store, app.WithQuizCache(cache), app.WithClock(func() time.Time { return fixedNow })),
		grading: app.NewGradingService(cache, store, nil),
		results: app.NewResultService(store, store, store),
	}
}

func option(id, text string, correct bool) domain.Option {
	return domain.Option{ID: id, Text: text, IsCorrect: &correct}
}

// pointsQuiz has Q1 (1pt, A correct) and Q2 (2pt, B correct).
func pointsQuiz() domain.QuizSpec {
	return domain.QuizSpec{
		Title:       "Points",
		Description: "mixed point values",
		Questions: []domain.Question{
			{ID: "Q1", QuestionText: "First", Points: 1, Options: []domain.Option{option("A", "a", true), option("B", "b", false)}},
			{ID: "Q2", QuestionText: "Second", Points: 2, Options: []domain.Option{option("A", "a", false), option("B", "b", true)}},
		},
	}
}

func createQuiz(t *testing.T, f *fixture, spec domain.QuizSpec) domain.Quiz {
	t.Helper()
	quiz, err := f.catalog.Create(context.Background(), owner, spec)
	require.NoError(t, err)
	return quiz
}
