package question

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

const (
	choiceSlots         = 5
	fillAnswerSeparator = " / "
)

// Merge folds answer-key entries into questions and returns a new slice. The
// input slice and its questions are left untouched. With no entries the input
// is returned as is.
func Merge(questions []Question, entries []AnswerKeyEntry) []Question {
	if len(entries) == 0 {
		return questions
	}

	groups := groupEntries(entries)
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		list := groups[q.ID]
		if len(list) == 0 {
			out = append(out, q)
			continue
		}
		if q.IsFillBlank {
			out = append(out, mergeFillBlank(q, list))
			continue
		}
		out = append(out, mergeChoices(q, list))
	}
	return out
}

func groupEntries(entries []AnswerKeyEntry) map[string][]AnswerKeyEntry {
	groups := make(map[string][]AnswerKeyEntry)
	for _, e := range entries {
		key := collapseSpace(e.QuestionID)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], e)
	}
	return groups
}

func mergeFillBlank(q Question, list []AnswerKeyEntry) Question {
	out := q.clone()
	fold := cases.Fold()

	accepted := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, e := range list {
		if !e.IsCorrect {
			continue
		}
		text := collapseSpace(e.AnswerText)
		if text == "" {
			continue
		}
		key := fold.String(text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		accepted = append(accepted, text)
	}

	if len(accepted) > 0 {
		out.FillAnswer = strings.Join(accepted, fillAnswerSeparator)
	} else {
		out.FillAnswer = collapseSpace(list[0].AnswerText)
	}
	out.CorrectChoices = []string{}
	return out
}

// mergeChoices places the first five entries into slots A-E. A correct entry
// listed after the fifth position takes slot E so the learner can always see
// the right answer.
func mergeChoices(q Question, list []AnswerKeyEntry) Question {
	out := q.clone()

	placed := make([]AnswerKeyEntry, 0, choiceSlots)
	for i := 0; i < len(list) && i < choiceSlots; i++ {
		placed = append(placed, list[i])
	}
	if idx := firstCorrect(list); idx >= choiceSlots {
		placed[choiceSlots-1] = list[idx]
	}

	for i, e := range placed {
		if text := collapseSpace(e.AnswerText); text != "" {
			out.Choices[Letters[i]] = text
		}
	}

	correct := make([]string, 0, len(placed))
	for i, e := range placed {
		letter := Letters[i]
		if e.IsCorrect && out.HasChoice(letter) && !slices.Contains(correct, letter) {
			correct = append(correct, letter)
		}
	}
	if len(correct) == 0 {
		correct = keepProvided(out.Choices, q.CorrectChoices)
	}
	out.CorrectChoices = correct
	out.IsTrueFalse = applyTrueFalse(out.Choices)
	return out
}

func firstCorrect(list []AnswerKeyEntry) int {
	for i, e := range list {
		if e.IsCorrect {
			return i
		}
	}
	return -1
}
