package app

import (
	"context"
	"log"

	"quiz-grading-service/internal/domain"
)

// GradingService scores submissions and records one result per attempt.
// It holds no per-call state; concurrent submissions never share data.
type GradingService struct {
	quizzes   QuizRepository
	results   ResultStore
	publisher ResultPublisher
}

func NewGradingService(quizzes QuizRepository, results ResultStore, publisher ResultPublisher) *GradingService {
	return &GradingService{quizzes: quizzes, results: results, publisher: publisher}
}

// Submit grades the submission against the full quiz definition and persists the result.
// Nothing is stored when any answer references an id outside the quiz.
func (s *GradingService) Submit(ctx context.Context, p domain.Principal, quizID string, submission domain.Submission) (domain.Result, error) {
	if p.ID == "" {
		return domain.Result{}, &domain.ValidationError{Field: "principal", Reason: "principal id is required"}
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Result{}, err
	}

	eval, err := EvaluateSubmission(quiz, submission)
	if err != nil {
		return domain.Result{}, err
	}

	result, err := s.results.SaveResult(ctx, domain.Result{
		QuizID:         quiz.ID,
		UserID:         p.ID,
		Score:          eval.Score,
		TotalQuestions: eval.TotalQuestions,
		Answers:        eval.Answers,
	})
	if err != nil {
		return domain.Result{}, err
	}

	if s.publisher != nil {
		// The result is already stored; a feed outage only affects live viewers.
		if err := s.publisher.Publish(ctx, result); err != nil {
			log.Printf("publish result %s for quiz %s: %v", result.ID, result.QuizID, err)
		}
	}
	return result, nil
}
