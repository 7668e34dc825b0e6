package app

import (
	"context"
	"errors"

	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/policy"
)

// ResultService serves result listings, enriched at read time with quiz
// titles and user names.
type ResultService struct {
	results ResultStore
	quizzes QuizStore
	users   UserDirectory
}

// NewResultService builds the service; users may be nil, in which case user
// projections are left empty.
func NewResultService(results ResultStore, quizzes QuizStore, users UserDirectory) *ResultService {
	return &ResultService{results: results, quizzes: quizzes, users: users}
}

// ListAll returns every result. Admin only.
func (s *ResultService) ListAll(ctx context.Context, p domain.Principal) ([]domain.ResultView, error) {
	if !policy.CanViewAllResults(p) {
		return nil, domain.ErrForbidden
	}
	results, err := s.results.ListResults(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, results)
}

// ListByQuiz returns the results of one quiz. Admin only.
func (s *ResultService) ListByQuiz(ctx context.Context, p domain.Principal, quizID string) ([]domain.ResultView, error) {
	if !policy.CanViewAllResults(p) {
		return nil, domain.ErrForbidden
	}
	results, err := s.results.ListResultsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, results)
}

// ListByUser returns the results of one user, to that user or an admin.
func (s *ResultService) ListByUser(ctx context.Context, p domain.Principal, userID string) ([]domain.ResultView, error) {
	if !policy.CanViewUserResults(p, userID) {
		return nil, domain.ErrForbidden
	}
	results, err := s.results.ListResultsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, results)
}

// Stats aggregates the results of one quiz. Admin only.
func (s *ResultService) Stats(ctx context.Context, p domain.Principal, quizID string) (domain.QuizStats, error) {
	if !policy.CanViewAllResults(p) {
		return domain.QuizStats{}, domain.ErrForbidden
	}
	results, err := s.results.ListResultsByQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizStats{}, err
	}
	return summarize(quizID, results), nil
}

func summarize(quizID string, results []domain.Result) domain.QuizStats {
	stats := domain.QuizStats{QuizID: quizID, Attempts: len(results)}
	if len(results) == 0 {
		return stats
	}
	total := 0
	stats.HighestScore = results[0].Score
	stats.LowestScore = results[0].Score
	for _, r := range results {
		total += r.Score
		if r.Score > stats.HighestScore {
			stats.HighestScore = r.Score
		}
		if r.Score < stats.LowestScore {
			stats.LowestScore = r.Score
		}
	}
	stats.AverageScore = float64(total) / float64(len(results))
	return stats
}

func (s *ResultService) enrich(ctx context.Context, results []domain.Result) ([]domain.ResultView, error) {
	titles := make(map[string]*domain.QuizSummary)
	userIDs := make([]string, 0, len(results))
	seenUsers := make(map[string]struct{})
	for _, r := range results {
		if _, ok := titles[r.QuizID]; !ok {
			summary, err := s.quizSummary(ctx, r.QuizID)
			if err != nil {
				return nil, err
			}
			titles[r.QuizID] = summary
		}
		if _, ok := seenUsers[r.UserID]; !ok {
			seenUsers[r.UserID] = struct{}{}
			userIDs = append(userIDs, r.UserID)
		}
	}

	var profiles map[string]domain.UserProfile
	if s.users != nil && len(userIDs) > 0 {
		var err error
		profiles, err = s.users.LookupUsers(ctx, userIDs)
		if err != nil {
			return nil, err
		}
	}

	views := make([]domain.ResultView, 0, len(results))
	for _, r := range results {
		view := domain.ResultView{
			ID:             r.ID,
			Quiz:           titles[r.QuizID],
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
			Answers:        r.Answers,
			SubmittedAt:    r.SubmittedAt,
		}
		if profile, ok := profiles[r.UserID]; ok {
			view.User = &domain.UserSummary{ID: profile.ID, Name: profile.Name, Email: profile.Email}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *ResultService) quizSummary(ctx context.Context, quizID string) (*domain.QuizSummary, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.QuizSummary{ID: quiz.ID, Title: quiz.Title}, nil
}
