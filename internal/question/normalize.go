package question

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultCategory   = "Uncategorized"
	defaultDifficulty = "Unspecified"
)

var correctLetterRe = regexp.MustCompile(`[A-E]`)

// Normalize turns a raw record into a Question. index is the zero-based
// position of the record among the usable rows of its bank and only feeds
// the fallback id and prompt.
func Normalize(rec Record, index int) Question {
	q := Question{
		ID:          textOr(rec, FieldID, fmt.Sprintf("q-%d", index+1)),
		Question:    textOr(rec, FieldQuestion, fmt.Sprintf("Question %d", index+1)),
		Choices:     make(map[string]string, len(Letters)),
		Category:    textOr(rec, FieldCategory, defaultCategory),
		Difficulty:  textOr(rec, FieldDifficulty, defaultDifficulty),
		Reference:   textOr(rec, FieldReference, ""),
		FillAnswer:  textOr(rec, FieldFillAnswer, ""),
		IsOpenBook:  parseFlag(rec[FieldOpenBook]),
		IsFillBlank: isTrue(parseFlag(rec[FieldFillInBlank])),
	}

	for _, l := range Letters {
		text := collapseSpace(rec[ChoiceField(l)])
		if !isProvidedChoice(l, text) {
			text = ChoicePlaceholder(l)
		}
		q.Choices[l] = text
	}

	correct := ParseCorrectChoices(rec[FieldCorrectChoice])
	// With no choice text at all the bank expects choices from an answer key,
	// so the declared letters are left for the merger to reconcile.
	if len(q.ProvidedChoices()) > 0 {
		correct = keepProvided(q.Choices, correct)
	}
	q.CorrectChoices = correct
	q.IsTrueFalse = applyTrueFalse(q.Choices)
	return q
}

// ParseCorrectChoices extracts every A-E letter from raw, upper-cased and
// de-duplicated in first-seen order.
func ParseCorrectChoices(raw string) []string {
	matches := correctLetterRe.FindAllString(strings.ToUpper(raw), -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// applyTrueFalse marks a choice set as true/false when exactly two choices are
// provided, they differ, and both read "true" or "false". Every other slot is
// blanked in that case.
func applyTrueFalse(choices map[string]string) bool {
	provided := make([]string, 0, 2)
	texts := make(map[string]struct{}, 2)
	for _, l := range Letters {
		if !isProvidedChoice(l, choices[l]) {
			continue
		}
		provided = append(provided, l)
		texts[strings.ToLower(choices[l])] = struct{}{}
	}
	if len(provided) != 2 || len(texts) != 2 {
		return false
	}
	for t := range texts {
		if t != "true" && t != "false" {
			return false
		}
	}
	for _, l := range Letters {
		if l != provided[0] && l != provided[1] {
			choices[l] = ""
		}
	}
	return true
}

func keepProvided(choices map[string]string, letters []string) []string {
	out := make([]string, 0, len(letters))
	for _, l := range letters {
		if isProvidedChoice(l, choices[l]) {
			out = append(out, l)
		}
	}
	return out
}

// parseFlag reads "1"/"true" as true and "0"/"false" as false. Anything else is
// unknown.
func parseFlag(raw string) *bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "1", "true":
		t := true
		return &t
	case "0", "false":
		f := false
		return &f
	default:
		return nil
	}
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

func textOr(rec Record, f Field, fallback string) string {
	v := collapseSpace(rec[f])
	if v == "" {
		return fallback
	}
	return v
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RecordFromQuestion renders q back into canonical fields. Normalizing the
// result yields q again.
func RecordFromQuestion(q Question) Record {
	rec := Record{
		FieldID:            q.ID,
		FieldQuestion:      q.Question,
		FieldCorrectChoice: strings.Join(q.CorrectChoices, ","),
		FieldCategory:      q.Category,
		FieldDifficulty:    q.Difficulty,
		FieldReference:     q.Reference,
		FieldFillInBlank:   fmt.Sprintf("%t", q.IsFillBlank),
		FieldFillAnswer:    q.FillAnswer,
	}
	for _, l := range Letters {
		rec[ChoiceField(l)] = q.Choices[l]
	}
	if q.IsOpenBook != nil {
		rec[FieldOpenBook] = fmt.Sprintf("%t", *q.IsOpenBook)
	}
	return rec
}
