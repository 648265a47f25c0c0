package exam

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"quizbank/internal/question"
)

const (
	ReasonCorrect    = "correct"
	ReasonWrong      = "wrong"
	ReasonUnanswered = "unanswered"
	ReasonUnscored   = "unscored"
)

// Response is a learner's answer: letters for choice questions, free text for
// fill-in-blank questions.
type Response struct {
	Selected []string `json:"selected"`
	Text     string   `json:"text"`
}

// IsEmpty reports whether r carries no answer for q.
func (r Response) IsEmpty(q question.Question) bool {
	if q.IsFillBlank {
		return strings.TrimSpace(r.Text) == ""
	}
	return len(normalizeLetters(r.Selected)) == 0
}

type ScoreResult struct {
	Answered  bool     `json:"answered"`
	IsCorrect *bool    `json:"is_correct,omitempty"`
	Reason    string   `json:"reason"`
	Selected  []string `json:"selected,omitempty"`
	Correct   []string `json:"correct,omitempty"`
}

// Evaluate reports whether r answers q correctly.
func Evaluate(q question.Question, r Response) bool {
	res := Score(q, r)
	return res.IsCorrect != nil && *res.IsCorrect
}

func Score(q question.Question, r Response) ScoreResult {
	if q.IsFillBlank {
		return scoreFillBlank(q, r)
	}
	return scoreChoices(q, r)
}

func scoreFillBlank(q question.Question, r Response) ScoreResult {
	accepted := splitAlternatives(q.FillAnswer)
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return ScoreResult{Reason: ReasonUnanswered, Correct: accepted}
	}
	if len(accepted) == 0 {
		return ScoreResult{Answered: true, Reason: ReasonUnscored, Selected: []string{text}}
	}

	fold := cases.Fold()
	got := fold.String(text)
	for _, a := range accepted {
		if fold.String(a) == got {
			return ScoreResult{Answered: true, IsCorrect: boolPtr(true), Reason: ReasonCorrect, Selected: []string{text}, Correct: accepted}
		}
	}
	return ScoreResult{Answered: true, IsCorrect: boolPtr(false), Reason: ReasonWrong, Selected: []string{text}, Correct: accepted}
}

func scoreChoices(q question.Question, r Response) ScoreResult {
	correct := normalizeLetters(q.CorrectChoices)
	selected := normalizeLetters(r.Selected)
	if len(selected) == 0 {
		return ScoreResult{Reason: ReasonUnanswered, Correct: correct}
	}
	if len(correct) == 0 {
		return ScoreResult{Answered: true, Reason: ReasonUnscored, Selected: selected}
	}

	if equalSet(selected, correct) {
		return ScoreResult{Answered: true, IsCorrect: boolPtr(true), Reason: ReasonCorrect, Selected: selected, Correct: correct}
	}
	return ScoreResult{Answered: true, IsCorrect: boolPtr(false), Reason: ReasonWrong, Selected: selected, Correct: correct}
}

// splitAlternatives splits "Paris / Lutetia" into its trimmed, non-empty parts.
func splitAlternatives(raw string) []string {
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeLetters(in []string) []string {
	set := map[string]struct{}{}
	for _, v := range in {
		s := strings.ToUpper(strings.TrimSpace(v))
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func equalSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	aa := append([]string(nil), a...)
	bb := append([]string(nil), b...)
	sort.Strings(aa)
	sort.Strings(bb)
	for i := range aa {
		if aa[i] != bb[i] {
			return false
		}
	}
	return true
}

func boolPtr(v bool) *bool {
	return &v
}
