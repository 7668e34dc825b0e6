package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/policy"
)

// CatalogService owns quiz authoring. Reads handed to quiz-takers are always redacted.
type CatalogService struct {
	quizzes QuizStore
	results ResultStore
	cache   QuizCache
	now     func() time.Time
}

// CatalogOption customizes a CatalogService.
type CatalogOption func(*CatalogService)

// WithQuizCache invalidates cached definitions after updates and deletes.
func WithQuizCache(cache QuizCache) CatalogOption {
	return func(s *CatalogService) { s.cache = cache }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) CatalogOption {
	return func(s *CatalogService) { s.now = now }
}

func NewCatalogService(quizzes QuizStore, results ResultStore, opts ...CatalogOption) *CatalogService {
	s := &CatalogService{quizzes: quizzes, results: results, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the authoring payload and stores a new quiz owned by the principal.
func (s *CatalogService) Create(ctx context.Context, p domain.Principal, spec domain.QuizSpec) (domain.Quiz, error) {
	if !policy.CanAuthor(p) {
		return domain.Quiz{}, domain.ErrForbidden
	}
	if err := validateTitle(spec.Title); err != nil {
		return domain.Quiz{}, err
	}
	questions, err := normalizeQuestions(spec.Questions)
	if err != nil {
		return domain.Quiz{}, err
	}

	now := s.now().UTC()
	quiz := domain.Quiz{
		ID:          domain.NewID(),
		Title:       spec.Title,
		Description: spec.Description,
		Questions:   questions,
		CreatedBy:   p.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Get loads a quiz; redacted strips every answer key from the returned copy.
func (s *CatalogService) Get(ctx context.Context, quizID string, redacted bool) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if redacted {
		return quiz.Redacted(), nil
	}
	return quiz, nil
}

// GetOwned returns the full definition to the quiz owner only.
func (s *CatalogService) GetOwned(ctx context.Context, p domain.Principal, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !policy.CanMutate(quiz, p) {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return quiz, nil
}

// List returns every quiz in its redacted form.
func (s *CatalogService) List(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		out = append(out, quiz.Redacted())
	}
	return out, nil
}

// Update applies a partial patch. Fields absent from the patch keep their stored value.
func (s *CatalogService) Update(ctx context.Context, p domain.Principal, quizID string, patch domain.QuizPatch) (domain.Quiz, error) {
	quiz, err := s.authorize(ctx, p, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}

	if patch.Title.Set {
		if err := validateTitle(patch.Title.Value); err != nil {
			return domain.Quiz{}, err
		}
		quiz.Title = patch.Title.Value
	}
	quiz.Description = patch.Description.Or(quiz.Description)
	if patch.Questions.Set {
		questions, err := normalizeQuestions(patch.Questions.Value)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.Questions = questions
	}
	quiz.UpdatedAt = s.now().UTC()

	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.invalidate(ctx, quizID); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Delete removes the quiz and every result recorded against it. A failed
// cascade is reported as a failed delete.
func (s *CatalogService) Delete(ctx context.Context, p domain.Principal, quizID string) error {
	if _, err := s.authorize(ctx, p, quizID); err != nil {
		return err
	}

	if cascade, ok := s.quizzes.(CascadeDeleter); ok {
		if _, err := cascade.DeleteQuizCascade(ctx, quizID); err != nil {
			return err
		}
	} else {
		if err := s.quizzes.DeleteQuiz(ctx, quizID); err != nil {
			return err
		}
		if _, err := s.results.DeleteResultsByQuiz(ctx, quizID); err != nil {
			return domain.NewInternalError(fmt.Sprintf("cascade results of quiz %s", quizID), err)
		}
	}
	return s.invalidate(ctx, quizID)
}

// authorize checks role, then existence, then ownership. A missing quiz is
// reported as not found before any ownership comparison. The role check comes
// first, matching the admin route guard, so a non-admin gets Forbidden even for
// an unknown id.
func (s *CatalogService) authorize(ctx context.Context, p domain.Principal, quizID string) (domain.Quiz, error) {
	if !policy.CanAuthor(p) {
		return domain.Quiz{}, domain.ErrForbidden
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !policy.CanMutate(quiz, p) {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return quiz, nil
}

func (s *CatalogService) invalidate(ctx context.Context, quizID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		return domain.NewInternalError("invalidate quiz cache", err)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &domain.ValidationError{Field: "title", Reason: "title is required"}
	}
	return nil
}

// normalizeQuestions returns a validated copy with ids minted where missing,
// points defaulted and every answer key made explicit. Supplied ids are kept.
func normalizeQuestions(in []domain.Question) ([]domain.Question, error) {
	if len(in) == 0 {
		return nil, &domain.ValidationError{Field: "questions", Reason: "at least one question is required"}
	}

	questionIDs := make(map[string]struct{})
	claim := func(seen map[string]struct{}, field, id string) error {
		if _, dup := seen[id]; dup {
			return &domain.ValidationError{Field: field, Reason: fmt.Sprintf("duplicate id %s", id)}
		}
		seen[id] = struct{}{}
		return nil
	}

	out := make([]domain.Question, 0, len(in))
	for i, q := range in {
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.QuestionText) == "" {
			return nil, &domain.ValidationError{Field: field + ".questionText", Reason: "question text is required"}
		}
		if q.Points < 0 {
			return nil, &domain.ValidationError{Field: field + ".points", Reason: "points must be at least 1"}
		}
		if q.Points == 0 {
			q.Points = 1
		}
		if q.ID == "" {
			q.ID = domain.NewID()
		}
		if err := claim(questionIDs, field+".id", q.ID); err != nil {
			return nil, err
		}

		// option ids only need to be unique within their question
		optionIDs := make(map[string]struct{})
		options := make([]domain.Option, 0, len(q.Options))
		for j, opt := range q.Options {
			optField := fmt.Sprintf("%s.options[%d]", field, j)
			if strings.TrimSpace(opt.Text) == "" {
				return nil, &domain.ValidationError{Field: optField + ".text", Reason: "option text is required"}
			}
			if opt.ID == "" {
				opt.ID = domain.NewID()
			}
			if err := claim(optionIDs, optField+".id", opt.ID); err != nil {
				return nil, err
			}
			correct := opt.Correct()
			opt.IsCorrect = &correct
			options = append(options, opt)
		}
		q.Options = options
		out = append(out, q)
	}
	return out, nil
}
