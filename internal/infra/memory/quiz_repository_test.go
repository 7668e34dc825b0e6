package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-grading-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz()}}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz()}}
	repo := NewQuizRepository(loader, time.Minute)

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	delete(loader.quizzes, "quiz-1")
	if err := repo.Invalidate(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found after invalidation, got %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidation, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryReturnsPrivateCopies(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz()}}
	repo := NewQuizRepository(loader, time.Minute)

	first, _ := repo.GetQuiz(context.Background(), "quiz-1")
	first.Questions[0].Options[0].Text = "mutated"

	second, _ := repo.GetQuiz(context.Background(), "quiz-1")
	if second.Questions[0].Options[0].Text != "3" {
		t.Fatalf("expected cached quiz untouched, got %q", second.Questions[0].Options[0].Text)
	}
}

func TestQuizRepositoryInvalidateDuringLoadKeepsFreshDefinition(t *testing.T) {
	loader := newGatedLoader(sampleQuiz())
	repo := NewQuizRepository(loader, time.Minute)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = repo.GetQuiz(ctx, "quiz-1")
	}()
	<-loader.entered

	// the owner moves the correct answer while the first load holds the old definition
	updated := sampleQuiz()
	yes, no := true, false
	updated.Questions[0].Options[0].IsCorrect = &yes
	updated.Questions[0].Options[1].IsCorrect = &no
	loader.set(updated)
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(loader.release)
	<-done

	quiz, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if !quiz.Questions[0].Options[0].Correct() {
		t.Fatalf("expected updated answer key, got %+v", quiz.Questions[0].Options)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidation, loader calls %d", loader.count())
	}
}

// gatedLoader blocks its first load after reading the definition until release is closed.
type gatedLoader struct {
	mu      sync.Mutex
	quiz    domain.Quiz
	calls   int
	entered chan struct{}
	release chan struct{}
}

func newGatedLoader(quiz domain.Quiz) *gatedLoader {
	return &gatedLoader{quiz: quiz, entered: make(chan struct{}), release: make(chan struct{})}
}

func (l *gatedLoader) LoadQuiz(_ context.Context, _ string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	first := l.calls == 1
	quiz := l.quiz
	l.mu.Unlock()
	if first {
		close(l.entered)
		<-l.release
	}
	return quiz, nil
}

func (l *gatedLoader) set(quiz domain.Quiz) {
	l.mu.Lock()
	l.quiz = quiz
	l.mu.Unlock()
}

func (l *gatedLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type countingLoader struct {
	quizzes map[string]domain.Quiz
	calls   int
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func sampleQuiz() domain.Quiz {
	yes, no := true, false
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Arithmetic",
		CreatedBy: "admin-1",
		Questions: []domain.Question{
			{
				ID:           "q1",
				QuestionText: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Text: "3", IsCorrect: &no},
					{ID: "o2", Text: "4", IsCorrect: &yes},
				},
				Points: 1,
			},
		},
	}
}
