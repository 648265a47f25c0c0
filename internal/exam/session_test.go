package exam

import (
	"errors"
	"testing"

	"quizbank/internal/question"
)

func studyQuestions() []question.Question {
	return []question.Question{
		{ID: "1", Choices: map[string]string{"A": "x", "B": "y"}, CorrectChoices: []string{"A"}},
		{ID: "2", Choices: map[string]string{"A": "x", "B": "y"}, CorrectChoices: []string{"B"}},
		{ID: "3", IsFillBlank: true, FillAnswer: "paris / france"},
	}
}

func TestSession_Navigation(t *testing.T) {
	s := NewSession("s", 1, studyQuestions())
	if s.Prev() {
		t.Fatalf("prev at start should not move")
	}
	if !s.Next() || !s.Next() {
		t.Fatalf("expected to move forward twice")
	}
	if s.Next() {
		t.Fatalf("next at end should not move")
	}
	if q, _ := s.Current(); q.ID != "3" {
		t.Fatalf("current = %s", q.ID)
	}
}

func TestSession_SubmitRequiresResponse(t *testing.T) {
	s := NewSession("s", 1, studyQuestions())
	if _, err := s.Submit(Response{}); !errors.Is(err, ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
	s.Next()
	s.Next()
	if _, err := s.Submit(Response{Selected: []string{"A"}}); !errors.Is(err, ErrNoResponse) {
		t.Fatalf("fill question needs text, got %v", err)
	}
	if len(s.Answers) != 0 {
		t.Fatalf("rejected submissions must not record answers")
	}
}

func TestSession_FlowWithReview(t *testing.T) {
	s := NewSession("s", 1, studyQuestions())

	if res, err := s.Submit(Response{Selected: []string{"a"}}); err != nil || res.Reason != ReasonCorrect {
		t.Fatalf("first answer: %+v %v", res, err)
	}
	s.Next()
	if res, err := s.Submit(Response{Selected: []string{"A"}}); err != nil || res.Reason != ReasonWrong {
		t.Fatalf("second answer: %+v %v", res, err)
	}

	st := s.Stats()
	if st.Total != 3 || st.Answered != 2 || st.Correct != 1 || st.Accuracy != 50 {
		t.Fatalf("stats = %+v", st)
	}

	s.Next()
	if _, err := s.Submit(Response{Text: " France "}); err != nil {
		t.Fatalf("third answer: %v", err)
	}
	sum := s.Summary()
	if sum.Total != 3 || sum.Correct != 2 || sum.Percent != 67 || sum.Missed != 1 || !sum.Complete {
		t.Fatalf("summary = %+v", sum)
	}

	if err := s.ReviewMissed(); err != nil {
		t.Fatalf("review: %v", err)
	}
	if !s.ReviewMode || len(s.Questions) != 1 || s.Index != 0 {
		t.Fatalf("unexpected review state %+v", s)
	}
	if _, ok := s.Answers["2"]; ok {
		t.Fatalf("missed answer should be cleared")
	}
	if _, ok := s.Answers["1"]; !ok {
		t.Fatalf("other answers should survive review")
	}

	if _, err := s.Submit(Response{Selected: []string{"B"}}); err != nil {
		t.Fatalf("review answer: %v", err)
	}
	sum = s.Summary()
	if sum.Total != 1 || sum.Percent != 100 {
		t.Fatalf("review summary = %+v", sum)
	}
	if err := s.ReviewMissed(); !errors.Is(err, ErrNothingMissed) {
		t.Fatalf("expected ErrNothingMissed, got %v", err)
	}

	s.StartOver()
	if s.ReviewMode || len(s.Questions) != 3 || len(s.Answers) != 0 || s.Index != 0 {
		t.Fatalf("start over did not reset %+v", s)
	}
}

func TestSession_DoesNotAliasInput(t *testing.T) {
	qs := studyQuestions()
	s := NewSession("s", 1, qs)
	qs[0].ID = "changed"
	if s.Base[0].ID != "1" || s.Questions[0].ID != "1" {
		t.Fatalf("session shares the caller's slice")
	}
}
