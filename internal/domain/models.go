package domain

import "time"

// Option represents a possible answer for a question.
// IsCorrect is nil only on redacted copies; stored quizzes always carry a value.
type Option struct {
	ID        string `json:"id" bson:"id"`
	Text      string `json:"text" bson:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty" bson:"isCorrect,omitempty"`
}

// Correct reports whether the option is marked as the right answer.
func (o Option) Correct() bool {
	return o.IsCorrect != nil && *o.IsCorrect
}

// Question models an MCQ question.
type Question struct {
	ID           string   `json:"id" bson:"id"`
	QuestionText string   `json:"questionText" bson:"questionText"`
	Options      []Option `json:"options" bson:"options"`
	Points       int      `json:"points" bson:"points"` // defaults to 1 if zero
}

// Award returns the points granted for a correct answer.
func (q Question) Award() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Quiz is an authored collection of questions owned by CreatedBy.
type Quiz struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Questions   []Question `json:"questions" bson:"questions"`
	CreatedBy   string     `json:"createdBy" bson:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Redacted returns a deep copy of the quiz with every answer key removed.
func (q Quiz) Redacted() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		options := make([]Option, len(question.Options))
		for j, opt := range question.Options {
			options[j] = Option{ID: opt.ID, Text: opt.Text}
		}
		question.Options = options
		out.Questions[i] = question
	}
	return out
}

// QuizSpec is the authoring payload for a new quiz.
type QuizSpec struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// QuizPatch carries a partial update. Absent fields keep their stored value.
type QuizPatch struct {
	Title       Optional[string]     `json:"title"`
	Description Optional[string]     `json:"description"`
	Questions   Optional[[]Question] `json:"questions"`
}

// SubmittedAnswer is a single choice made by a quiz-taker.
type SubmittedAnswer struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
}

// Submission is the transient set of answers sent for grading.
type Submission struct {
	Answers []SubmittedAnswer `json:"answers"`
}

// AnswerOutcome records how one submitted answer was graded.
type AnswerOutcome struct {
	QuestionID     string `json:"questionId" bson:"questionId"`
	SelectedOption string `json:"selectedOption" bson:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect" bson:"isCorrect"`
}

// Evaluation is the pure outcome of grading a submission.
type Evaluation struct {
	Score          int             `json:"score"`
	TotalQuestions int             `json:"totalQuestions"`
	Answers        []AnswerOutcome `json:"answers"`
}

// Result is the immutable audit record of one graded submission.
type Result struct {
	ID             string          `json:"id" bson:"_id"`
	QuizID         string          `json:"quiz" bson:"quiz"`
	UserID         string          `json:"user" bson:"user"`
	Score          int             `json:"score" bson:"score"`
	TotalQuestions int             `json:"totalQuestions" bson:"totalQuestions"`
	Answers        []AnswerOutcome `json:"answers" bson:"answers"`
	SubmittedAt    time.Time       `json:"submittedAt" bson:"submittedAt"`
}

// QuizSummary is the quiz projection joined into result listings.
type QuizSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// UserSummary is the user projection joined into result listings.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ResultView is a result enriched at read time. Quiz or User is nil when the
// reference no longer resolves.
type ResultView struct {
	ID             string          `json:"id"`
	Quiz           *QuizSummary    `json:"quiz"`
	User           *UserSummary    `json:"user"`
	Score          int             `json:"score"`
	TotalQuestions int             `json:"totalQuestions"`
	Answers        []AnswerOutcome `json:"answers"`
	SubmittedAt    time.Time       `json:"submittedAt"`
}

// QuizStats aggregates all results recorded for one quiz.
type QuizStats struct {
	QuizID       string  `json:"quizId"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
	HighestScore int     `json:"highestScore"`
	LowestScore  int     `json:"lowestScore"`
}

// UserProfile is the directory entry used to enrich result listings.
type UserProfile struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Role  Role   `json:"role" bson:"role"`
}
