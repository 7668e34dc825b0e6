package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-grading-service/internal/domain"
)

// foreignKeyViolation is the SQLSTATE raised when a result references a deleted quiz.
const foreignKeyViolation = "23503"

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string      `bun:"id,pk"`
	Title     string      `bun:"title,notnull"`
	CreatedBy string      `bun:"created_by,notnull"`
	Data      domain.Quiz `bun:"data,type:jsonb"`
	CreatedAt time.Time   `bun:"created_at,notnull"`
	UpdatedAt time.Time   `bun:"updated_at,notnull"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:results"`

	ID             string                 `bun:"id,pk"`
	QuizID         string                 `bun:"quiz_id,notnull"`
	UserID         string                 `bun:"user_id,notnull"`
	Score          int                    `bun:"score,notnull"`
	TotalQuestions int                    `bun:"total_questions,notnull"`
	Answers        []domain.AnswerOutcome `bun:"answers,type:jsonb"`
	SubmittedAt    time.Time              `bun:"submitted_at,notnull"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID    string `bun:"id,pk"`
	Name  string `bun:"name"`
	Email string `bun:"email"`
	Role  string `bun:"role"`
}

// Store persists quizzes as JSONB documents and results as rows whose quiz_id
// foreign key cascades on delete. It implements app.QuizStore, app.ResultStore,
// app.CascadeDeleter and app.UserDirectory.
type Store struct {
	db    *bun.DB
	clock func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, clock: time.Now}
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := toQuizRow(quiz)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.NewInternalError("insert quiz", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, domain.NewInternalError("select quiz", err)
	}
	return row.Data, nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, domain.NewInternalError("list quizzes", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Data)
	}
	return out, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := toQuizRow(quiz)
	res, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return domain.NewInternalError("update quiz", err)
	}
	return requireAffected(res)
}

// DeleteQuiz relies on the foreign key to drop the quiz's results.
func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return domain.NewInternalError("delete quiz", err)
	}
	return requireAffected(res)
}

// DeleteQuizCascade removes the results and the quiz in one transaction and
// reports how many results were dropped.
func (s *Store) DeleteQuizCascade(ctx context.Context, quizID string) (int, error) {
	var removed int
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*resultRow)(nil)).Where("quiz_id = ?", quizID).Exec(ctx)
		if err != nil {
			return domain.NewInternalError("cascade results", err)
		}
		n, _ := res.RowsAffected()
		removed = int(n)

		res, err = tx.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
		if err != nil {
			return domain.NewInternalError("delete quiz", err)
		}
		return requireAffected(res)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Store) SaveResult(ctx context.Context, result domain.Result) (domain.Result, error) {
	result.ID = domain.NewID()
	result.SubmittedAt = s.clock().UTC()
	if result.Answers == nil {
		result.Answers = []domain.AnswerOutcome{}
	}
	row := resultRow{
		ID:             result.ID,
		QuizID:         result.QuizID,
		UserID:         result.UserID,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Answers:        result.Answers,
		SubmittedAt:    result.SubmittedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == foreignKeyViolation {
			return domain.Result{}, domain.ErrQuizNotFound
		}
		return domain.Result{}, domain.NewInternalError("insert result", err)
	}
	return result, nil
}

func (s *Store) ListResults(ctx context.Context) ([]domain.Result, error) {
	return s.listResults(ctx, "", "")
}

func (s *Store) ListResultsByQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	return s.listResults(ctx, "quiz_id = ?", quizID)
}

func (s *Store) ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	return s.listResults(ctx, "user_id = ?", userID)
}

func (s *Store) DeleteResultsByQuiz(ctx context.Context, quizID string) (int, error) {
	res, err := s.db.NewDelete().Model((*resultRow)(nil)).Where("quiz_id = ?", quizID).Exec(ctx)
	if err != nil {
		return 0, domain.NewInternalError("delete results", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) LookupUsers(ctx context.Context, userIDs []string) (map[string]domain.UserProfile, error) {
	out := make(map[string]domain.UserProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Where("id IN (?)", bun.In(userIDs)).Scan(ctx); err != nil {
		return nil, domain.NewInternalError("lookup users", err)
	}
	for _, row := range rows {
		out[row.ID] = domain.UserProfile{ID: row.ID, Name: row.Name, Email: row.Email, Role: domain.Role(row.Role)}
	}
	return out, nil
}

// UpsertUser records a directory profile.
func (s *Store) UpsertUser(ctx context.Context, profile domain.UserProfile) error {
	row := userRow{ID: profile.ID, Name: profile.Name, Email: profile.Email, Role: string(profile.Role)}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("email = EXCLUDED.email").
		Set("role = EXCLUDED.role").
		Exec(ctx)
	if err != nil {
		return domain.NewInternalError("upsert user", err)
	}
	return nil
}

func (s *Store) listResults(ctx context.Context, where string, arg string) ([]domain.Result, error) {
	var rows []resultRow
	q := s.db.NewSelect().Model(&rows).Order("submitted_at ASC", "id ASC")
	if where != "" {
		q = q.Where(where, arg)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, domain.NewInternalError("list results", err)
	}
	out := make([]domain.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Result{
			ID:             row.ID,
			QuizID:         row.QuizID,
			UserID:         row.UserID,
			Score:          row.Score,
			TotalQuestions: row.TotalQuestions,
			Answers:        row.Answers,
			SubmittedAt:    row.SubmittedAt,
		})
	}
	return out, nil
}

func toQuizRow(quiz domain.Quiz) quizRow {
	return quizRow{
		ID:        quiz.ID,
		Title:     quiz.Title,
		CreatedBy: quiz.CreatedBy,
		Data:      quiz,
		CreatedAt: quiz.CreatedAt,
		UpdatedAt: quiz.UpdatedAt,
	}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewInternalError("rows affected", err)
	}
	if n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
