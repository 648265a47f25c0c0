package exam

import (
	"slices"
	"testing"

	"quizbank/internal/question"
)

func choiceQuestion(correct ...string) question.Question {
	return question.Question{
		ID:             "q",
		Choices:        map[string]string{"A": "a", "B": "b", "C": "c", "D": "d", "E": "e"},
		CorrectChoices: correct,
	}
}

func TestScore_Choices(t *testing.T) {
	tests := []struct {
		name      string
		correct   []string
		selected  []string
		reason    string
		answered  bool
		isCorrect *bool
	}{
		{name: "single correct", correct: []string{"B"}, selected: []string{"B"}, reason: "correct", answered: true, isCorrect: boolPtr(true)},
		{name: "single wrong", correct: []string{"B"}, selected: []string{"A"}, reason: "wrong", answered: true, isCorrect: boolPtr(false)},
		{name: "case insensitive", correct: []string{"B"}, selected: []string{" b "}, reason: "correct", answered: true, isCorrect: boolPtr(true)},
		{name: "multi order independent", correct: []string{"A", "D"}, selected: []string{"D", "A"}, reason: "correct", answered: true, isCorrect: boolPtr(true)},
		{name: "multi missing one", correct: []string{"A", "D"}, selected: []string{"A"}, reason: "wrong", answered: true, isCorrect: boolPtr(false)},
		{name: "multi extra one", correct: []string{"A", "D"}, selected: []string{"A", "D", "B"}, reason: "wrong", answered: true, isCorrect: boolPtr(false)},
		{name: "duplicates collapse", correct: []string{"A"}, selected: []string{"a", "A"}, reason: "correct", answered: true, isCorrect: boolPtr(true)},
		{name: "unanswered", correct: []string{"A"}, selected: nil, reason: "unanswered", answered: false, isCorrect: nil},
		{name: "blank letters unanswered", correct: []string{"A"}, selected: []string{" "}, reason: "unanswered", answered: false, isCorrect: nil},
		{name: "no key unscored", correct: nil, selected: []string{"A"}, reason: "unscored", answered: true, isCorrect: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(choiceQuestion(tc.correct...), Response{Selected: tc.selected})
			assertScoreResult(t, got, tc.reason, tc.answered, tc.isCorrect)
		})
	}
}

func TestScore_FillBlank(t *testing.T) {
	q := question.Question{ID: "f", IsFillBlank: true, FillAnswer: "Paris / Lutetia"}
	tests := []struct {
		name      string
		text      string
		reason    string
		answered  bool
		isCorrect *bool
	}{
		{name: "first alternative", text: "paris", reason: "correct", answered: true, isCorrect: boolPtr(true)},
		{name: "second alternative trimmed", text: "  LUTETIA ", reason: "correct", answered: true, isCorrect: boolPtr(true)},
		{name: "wrong", text: "London", reason: "wrong", answered: true, isCorrect: boolPtr(false)},
		{name: "whole string is not an alternative", text: "Paris / Lutetia", reason: "wrong", answered: true, isCorrect: boolPtr(false)},
		{name: "empty", text: "   ", reason: "unanswered", answered: false, isCorrect: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(q, Response{Text: tc.text})
			assertScoreResult(t, got, tc.reason, tc.answered, tc.isCorrect)
		})
	}
}

func TestScore_FillBlankFoldsUnicode(t *testing.T) {
	q := question.Question{IsFillBlank: true, FillAnswer: "Straße"}
	if !Evaluate(q, Response{Text: "STRASSE"}) {
		t.Fatalf("expected full case folding to accept STRASSE")
	}
}

func TestScore_FillBlankWithoutAnswer(t *testing.T) {
	got := Score(question.Question{IsFillBlank: true}, Response{Text: "x"})
	assertScoreResult(t, got, "unscored", true, nil)
}

func TestEvaluate(t *testing.T) {
	q := choiceQuestion("A", "C")
	if !Evaluate(q, Response{Selected: []string{"c", "a"}}) {
		t.Fatalf("expected correct")
	}
	if Evaluate(q, Response{}) {
		t.Fatalf("empty response must not be correct")
	}
	if Evaluate(choiceQuestion(), Response{Selected: []string{"A"}}) {
		t.Fatalf("question without key must not be correct")
	}
}

func TestScore_ReportsNormalizedSets(t *testing.T) {
	got := Score(choiceQuestion("D", "A"), Response{Selected: []string{"d", "b"}})
	if !slices.Equal(got.Selected, []string{"B", "D"}) || !slices.Equal(got.Correct, []string{"A", "D"}) {
		t.Fatalf("unexpected sets selected=%v correct=%v", got.Selected, got.Correct)
	}
}

func assertScoreResult(t *testing.T, got ScoreResult, reason string, answered bool, isCorrect *bool) {
	t.Helper()
	if got.Reason != reason {
		t.Fatalf("reason = %q, want %q", got.Reason, reason)
	}
	if got.Answered != answered {
		t.Fatalf("answered = %v, want %v", got.Answered, answered)
	}
	switch {
	case isCorrect == nil && got.IsCorrect != nil:
		t.Fatalf("is_correct = %v, want nil", *got.IsCorrect)
	case isCorrect != nil && got.IsCorrect == nil:
		t.Fatalf("is_correct = nil, want %v", *isCorrect)
	case isCorrect != nil && *got.IsCorrect != *isCorrect:
		t.Fatalf("is_correct = %v, want %v", *got.IsCorrect, *isCorrect)
	}
}
