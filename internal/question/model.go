package question

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Letters are the choice slots a question can carry, in display order.
var Letters = []string{"A", "B", "C", "D", "E"}

type BookMode string

const (
	BookAny    BookMode = "any"
	BookOpen   BookMode = "open"
	BookClosed BookMode = "closed"
)

// ParseBookMode maps user input onto a BookMode. Unknown values, "" and "all"
// mean no book filter.
func ParseBookMode(v string) BookMode {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "open":
		return BookOpen
	case "closed":
		return BookClosed
	default:
		return BookAny
	}
}

// Question is a normalized bank entry. It is never modified after loading;
// the merger produces fresh copies.
type Question struct {
	ID             string            `json:"id"`
	Question       string            `json:"question"`
	Choices        map[string]string `json:"choices"`
	CorrectChoices []string          `json:"correct_choices"`
	Category       string            `json:"category"`
	Difficulty     string            `json:"difficulty"`
	Reference      string            `json:"reference"`
	IsFillBlank    bool              `json:"is_fill_blank"`
	FillAnswer     string            `json:"fill_answer"`
	IsOpenBook     *bool             `json:"is_open_book"`
	IsTrueFalse    bool              `json:"is_true_false"`
}

func ChoicePlaceholder(letter string) string {
	return fmt.Sprintf("Choice %s not provided", letter)
}

func isProvidedChoice(letter, text string) bool {
	return text != "" && text != ChoicePlaceholder(letter)
}

// HasChoice reports whether letter carries real choice text.
func (q Question) HasChoice(letter string) bool {
	return isProvidedChoice(letter, q.Choices[letter])
}

func (q Question) ProvidedChoices() []string {
	out := make([]string, 0, len(Letters))
	for _, l := range Letters {
		if q.HasChoice(l) {
			out = append(out, l)
		}
	}
	return out
}

// InBookMode reports whether q passes the book filter. Questions with an
// unknown book flag only pass BookAny.
func (q Question) InBookMode(mode BookMode) bool {
	switch mode {
	case BookOpen:
		return q.IsOpenBook != nil && *q.IsOpenBook
	case BookClosed:
		return q.IsOpenBook != nil && !*q.IsOpenBook
	default:
		return true
	}
}

func (q Question) clone() Question {
	out := q
	out.Choices = make(map[string]string, len(q.Choices))
	for k, v := range q.Choices {
		out.Choices[k] = v
	}
	out.CorrectChoices = slices.Clone(q.CorrectChoices)
	if q.IsOpenBook != nil {
		v := *q.IsOpenBook
		out.IsOpenBook = &v
	}
	return out
}

// AnswerKeyEntry is one row of an answer key. Several entries may share a
// question id.
type AnswerKeyEntry struct {
	QuestionID string `json:"question_id"`
	AnswerText string `json:"answer_text"`
	IsCorrect  bool   `json:"is_correct"`
}

// Bank is one loaded question collection. Generation is assigned by the Store
// and changes on every load, even when Digest does not.
type Bank struct {
	Generation     uint64     `json:"generation"`
	Digest         string     `json:"digest"`
	Questions      []Question `json:"-"`
	QuestionSource string     `json:"question_source"`
	AnswerSource   string     `json:"answer_source,omitempty"`
	AnswerEntries  int        `json:"answer_entries"`
	LoadedAt       time.Time  `json:"loaded_at"`
}

type BankSummary struct {
	Generation     uint64         `json:"generation"`
	Digest         string         `json:"digest"`
	QuestionSource string         `json:"question_source"`
	AnswerSource   string         `json:"answer_source,omitempty"`
	AnswerEntries  int            `json:"answer_entries"`
	LoadedAt       time.Time      `json:"loaded_at"`
	Total          int            `json:"total"`
	FillBlank      int            `json:"fill_blank"`
	TrueFalse      int            `json:"true_false"`
	MultiAnswer    int            `json:"multi_answer"`
	Unscored       int            `json:"unscored"`
	OpenBook       int            `json:"open_book"`
	ClosedBook     int            `json:"closed_book"`
	Categories     map[string]int `json:"categories"`
}

func (b *Bank) Summary() BankSummary {
	out := BankSummary{
		Generation:     b.Generation,
		Digest:         b.Digest,
		QuestionSource: b.QuestionSource,
		AnswerSource:   b.AnswerSource,
		AnswerEntries:  b.AnswerEntries,
		LoadedAt:       b.LoadedAt,
		Total:          len(b.Questions),
		Categories:     make(map[string]int),
	}
	for _, q := range b.Questions {
		out.Categories[q.Category]++
		switch {
		case q.IsFillBlank:
			out.FillBlank++
			if strings.TrimSpace(q.FillAnswer) == "" {
				out.Unscored++
			}
		case len(q.CorrectChoices) == 0:
			out.Unscored++
		case len(q.CorrectChoices) > 1:
			out.MultiAnswer++
		}
		if q.IsTrueFalse {
			out.TrueFalse++
		}
		if q.InBookMode(BookOpen) {
			out.OpenBook++
		}
		if q.InBookMode(BookClosed) {
			out.ClosedBook++
		}
	}
	return out
}
