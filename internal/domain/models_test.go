package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestRedactedOmitsAnswerKey(t *testing.T) {
	quiz := sampleQuiz()

	redacted := quiz.Redacted()
	raw, err := json.Marshal(redacted)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "isCorrect") {
		t.Fatalf("redacted quiz leaks answer key: %s", raw)
	}
	if len(redacted.Questions) != 1 || len(redacted.Questions[0].Options) != 2 {
		t.Fatalf("expected structure preserved, got %+v", redacted.Questions)
	}
	if redacted.Questions[0].Options[1].ID != "o2" || redacted.Questions[0].Options[1].Text != "4" {
		t.Fatalf("expected option identity preserved, got %+v", redacted.Questions[0].Options[1])
	}
}

func TestRedactedDoesNotMutateSource(t *testing.T) {
	quiz := sampleQuiz()
	_ = quiz.Redacted()

	if !quiz.Questions[0].Options[1].Correct() {
		t.Fatalf("expected source quiz to keep its answer key")
	}
}

func TestOptionalDistinguishesAbsentFromEmpty(t *testing.T) {
	var patch QuizPatch
	if err := json.Unmarshal([]byte(`{"title":"New"}`), &patch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !patch.Title.Set || patch.Title.Value != "New" {
		t.Fatalf("expected title set, got %+v", patch.Title)
	}
	if patch.Description.Set {
		t.Fatalf("expected description absent")
	}

	patch = QuizPatch{}
	if err := json.Unmarshal([]byte(`{"description":""}`), &patch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !patch.Description.Set || patch.Description.Value != "" {
		t.Fatalf("expected empty description to be set, got %+v", patch.Description)
	}

	patch = QuizPatch{}
	if err := json.Unmarshal([]byte(`{"description":null}`), &patch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if patch.Description.Set {
		t.Fatalf("expected null description to be absent")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrQuizNotFound, KindNotFound},
		{ErrForbidden, KindForbidden},
		{&ValidationError{Field: "title", Reason: "required"}, KindValidation},
		{&InvalidReferenceError{QuestionID: "q9"}, KindInvalidReference},
		{NewInternalError("save", errors.New("disk full")), KindInternal},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}

	if !errors.Is(NewInternalError("save", errors.New("disk full")), ErrInternal) {
		t.Fatalf("expected internal error to match ErrInternal")
	}
	if err := NewInternalError("load", ErrQuizNotFound); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected classified error to pass through, got %v", err)
	}
}

func TestInvalidReferenceNamesIDs(t *testing.T) {
	err := &InvalidReferenceError{QuestionID: "q1", OptionID: "o9"}
	if !strings.Contains(err.Error(), "q1") || !strings.Contains(err.Error(), "o9") {
		t.Fatalf("expected both ids in message, got %q", err.Error())
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("admin"); err != nil || r != RoleAdmin {
		t.Fatalf("expected admin, got %q %v", r, err)
	}
	if _, err := ParseRole("superuser"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func sampleQuiz() Quiz {
	yes, no := true, false
	return Quiz{
		ID:    "quiz-1",
		Title: "Arithmetic",
		Questions: []Question{
			{
				ID:           "q1",
				QuestionText: "What is 2 + 2?",
				Options: []Option{
					{ID: "o1", Text: "3", IsCorrect: &no},
					{ID: "o2", Text: "4", IsCorrect: &yes},
				},
				Points: 1,
			},
		},
	}
}
