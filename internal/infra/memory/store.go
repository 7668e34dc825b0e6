package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-grading-service/internal/domain"
)

// Store is an in-memory implementation of app.QuizStore, app.ResultStore,
// app.CascadeDeleter and app.UserDirectory. Quizzes and results share one
// lock, so a cascade delete and a concurrent result save never interleave.
type Store struct {
	mu      sync.RWMutex
	clock   func() time.Time
	quizzes map[string]domain.Quiz
	results []domain.Result
	users   map[string]domain.UserProfile
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		clock:   now,
		quizzes: make(map[string]domain.Quiz),
		users:   make(map[string]domain.UserProfile),
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

// ListQuizzes returns quizzes ordered by creation time.
func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		out = append(out, cloneQuiz(quiz))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}

// DeleteQuizCascade removes the quiz and its results under a single lock.
func (s *Store) DeleteQuizCascade(_ context.Context, quizID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return 0, domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return s.deleteResultsLocked(quizID), nil
}

// SaveResult rejects results whose quiz was deleted after grading started.
func (s *Store) SaveResult(_ context.Context, result domain.Result) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[result.QuizID]; !ok {
		return domain.Result{}, domain.ErrQuizNotFound
	}
	result.ID = domain.NewID()
	result.SubmittedAt = s.clock().UTC()
	result.Answers = append([]domain.AnswerOutcome{}, result.Answers...)
	s.results = append(s.results, result)
	return cloneResult(result), nil
}

func (s *Store) ListResults(_ context.Context) ([]domain.Result, error) {
	return s.filterResults(func(domain.Result) bool { return true }), nil
}

func (s *Store) ListResultsByQuiz(_ context.Context, quizID string) ([]domain.Result, error) {
	return s.filterResults(func(r domain.Result) bool { return r.QuizID == quizID }), nil
}

func (s *Store) ListResultsByUser(_ context.Context, userID string) ([]domain.Result, error) {
	return s.filterResults(func(r domain.Result) bool { return r.UserID == userID }), nil
}

func (s *Store) DeleteResultsByQuiz(_ context.Context, quizID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteResultsLocked(quizID), nil
}

// PutUser registers a profile for result enrichment.
func (s *Store) PutUser(profile domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[profile.ID] = profile
}

func (s *Store) LookupUsers(_ context.Context, userIDs []string) (map[string]domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.UserProfile, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := s.users[id]; ok {
			out[id] = profile
		}
	}
	return out, nil
}

func (s *Store) filterResults(keep func(domain.Result) bool) []domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0)
	for _, r := range s.results {
		if keep(r) {
			out = append(out, cloneResult(r))
		}
	}
	return out
}

func (s *Store) deleteResultsLocked(quizID string) int {
	kept := s.results[:0]
	removed := 0
	for _, r := range s.results {
		if r.QuizID == quizID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.results = kept
	return removed
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	out := q
	out.Questions = make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		options := make([]domain.Option, len(question.Options))
		for j, opt := range question.Options {
			if opt.IsCorrect != nil {
				correct := *opt.IsCorrect
				opt.IsCorrect = &correct
			}
			options[j] = opt
		}
		question.Options = options
		out.Questions[i] = question
	}
	return out
}

func cloneResult(r domain.Result) domain.Result {
	r.Answers = append([]domain.AnswerOutcome{}, r.Answers...)
	return r
}
