package app

import "quiz-grading-service/internal/domain"

// EvaluateSubmission grades every answer against the quiz. It never mutates quiz.
// Answers keep their submitted order; duplicate question ids are graded and
// credited once per entry. Unanswered questions simply contribute nothing.
func EvaluateSubmission(quiz domain.Quiz, submission domain.Submission) (domain.Evaluation, error) {
	eval := domain.Evaluation{
		TotalQuestions: len(quiz.Questions),
		Answers:        make([]domain.AnswerOutcome, 0, len(submission.Answers)),
	}
	for _, answer := range submission.Answers {
		correct, points, err := scoreAnswer(quiz, answer)
		if err != nil {
			return domain.Evaluation{}, err
		}
		eval.Score += points
		eval.Answers = append(eval.Answers, domain.AnswerOutcome{
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOptionID,
			IsCorrect:      correct,
		})
	}
	return eval, nil
}

// scoreAnswer validates one answer against quiz content and returns (correct, awarded points).
func scoreAnswer(quiz domain.Quiz, answer domain.SubmittedAnswer) (bool, int, error) {
	var question *domain.Question
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == answer.QuestionID {
			question = &quiz.Questions[i]
			break
		}
	}
	if question == nil {
		return false, 0, &domain.InvalidReferenceError{QuestionID: answer.QuestionID}
	}

	var selected *domain.Option
	for i := range question.Options {
		if question.Options[i].ID == answer.SelectedOptionID {
			selected = &question.Options[i]
			break
		}
	}
	if selected == nil {
		return false, 0, &domain.InvalidReferenceError{QuestionID: answer.QuestionID, OptionID: answer.SelectedOptionID}
	}

	if selected.Correct() {
		return true, question.Award(), nil
	}
	return false, 0, nil
}
