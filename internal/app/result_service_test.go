package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"quiz-grading-service/internal/domain"
)

func TestResultListingsAreEnriched(t *testing.T) {
	f := newFixture()
	f.store.PutUser(domain.UserProfile{ID: taker.ID, Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser})
	quiz := createQuiz(t, f, pointsQuiz())
	ctx := context.Background()

	_, err := f.grading.Submit(ctx, taker, quiz.ID, domain.Submission{Answers: []domain.SubmittedAnswer{{QuestionID: "Q2", SelectedOptionID: "B"}}})
	require.NoError(t, err)
	_, err = f.grading.Submit(ctx, domain.Principal{ID: "user-ghost", Role: domain.RoleUser}, quiz.ID, domain.Submission{})
	require.NoError(t, err)

	views, err := f.results.ListAll(ctx, owner)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, &domain.QuizSummary{ID: quiz.ID, Title: "Points"}, views[0].Quiz)
	require.Equal(t, &domain.UserSummary{ID: taker.ID, Name: "Alice", Email: "alice@example.com"}, views[0].User)
	require.Equal(t, 2, views[0].Score)
	require.Nil(t, views[1].User)

	byQuiz, err := f.results.ListByQuiz(ctx, owner, quiz.ID)
	require.NoError(t, err)
	require.Len(t, byQuiz, 2)
}

func TestResultListingsRequireAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.results.ListAll(ctx, taker)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.results.ListByQuiz(ctx, taker, "quiz-1")
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.results.Stats(ctx, taker, "quiz-1")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListByUserOwnResultsOnly(t *testing.T) {
	f := newFixture()
	quiz := createQuiz(t, f, pointsQuiz())
	ctx := context.Background()

	_, err := f.grading.Submit(ctx, taker, quiz.ID, domain.Submission{})
	require.NoError(t, err)

	mine, err := f.results.ListByUser(ctx, taker, taker.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.results.ListByUser(ctx, taker, "user-2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	theirs, err := f.results.ListByUser(ctx, owner, taker.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
}

func TestStatsAggregateScores(t *testing.T) {
	f := newFixture()
	quiz := createQuiz(t, f, pointsQuiz())
	ctx := context.Background()

	for _, answers := range [][]domain.SubmittedAnswer{
		{{QuestionID: "Q1", SelectedOptionID: "A"}, {QuestionID: "Q2", SelectedOptionID: "B"}},
		{{QuestionID: "Q1", SelectedOptionID: "A"}},
		nil,
	} {
		_, err := f.grading.Submit(ctx, taker, quiz.ID, domain.Submission{Answers: answers})
		require.NoError(t, err)
	}

	stats, err := f.results.Stats(ctx, owner, quiz.ID)
	require.NoError(t, err)
	require.Equal(t, domain.QuizStats{QuizID: quiz.ID, Attempts: 3, AverageScore: 4.0 / 3.0, HighestScore: 3, LowestScore: 0}, stats)

	empty, err := f.results.Stats(ctx, owner, "no-results")
	require.NoError(t, err)
	require.Equal(t, 0, empty.Attempts)
}
