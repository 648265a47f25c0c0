package question

import (
	"strings"
)

// Field is a canonical column name. The same names are used as keys of the
// JSON bank format.
type Field string

const (
	FieldID            Field = "id"
	FieldQuestion      Field = "question"
	FieldChoiceA       Field = "choice_a"
	FieldChoiceB       Field = "choice_b"
	FieldChoiceC       Field = "choice_c"
	FieldChoiceD       Field = "choice_d"
	FieldChoiceE       Field = "choice_e"
	FieldCorrectChoice Field = "correct_choice"
	FieldCategory      Field = "category"
	FieldDifficulty    Field = "difficulty"
	FieldReference     Field = "reference"
	FieldFillInBlank   Field = "fill_in_blank"
	FieldFillAnswer    Field = "fill_answer"
	FieldOpenBook      Field = "open_book"

	FieldKeyQuestionID Field = "question_id"
	FieldKeyAnswer     Field = "answer"
	FieldKeyCorrect    Field = "is_correct"
)

var choiceFields = map[string]Field{
	"A": FieldChoiceA,
	"B": FieldChoiceB,
	"C": FieldChoiceC,
	"D": FieldChoiceD,
	"E": FieldChoiceE,
}

func ChoiceField(letter string) Field {
	return choiceFields[letter]
}

// Alias lists the header spellings accepted for a field, first match wins.
type Alias struct {
	Field Field
	Names []string
}

var QuestionAliases = []Alias{
	{Field: FieldID, Names: []string{"id", "questionid", "qid"}},
	{Field: FieldQuestion, Names: []string{"question", "strquestion", "prompt", "text"}},
	{Field: FieldChoiceA, Names: choiceAliases("a")},
	{Field: FieldChoiceB, Names: choiceAliases("b")},
	{Field: FieldChoiceC, Names: choiceAliases("c")},
	{Field: FieldChoiceD, Names: choiceAliases("d")},
	{Field: FieldChoiceE, Names: choiceAliases("e")},
	{Field: FieldCorrectChoice, Names: []string{"correctchoice", "correct", "answer", "correctanswer"}},
	{Field: FieldCategory, Names: []string{"system", "subcategory", "sub", "subcat", "category", "categoryid"}},
	{Field: FieldDifficulty, Names: []string{"difficulty", "level"}},
	{Field: FieldReference, Names: []string{"reference", "ref", "chapter", "page", "remarks"}},
	{Field: FieldFillInBlank, Names: []string{"fillinblankquestion", "fillinblank", "fill", "fillblank", "fillin"}},
	{Field: FieldFillAnswer, Names: []string{"fillanswer", "fillinanswer", "acceptedanswers"}},
	{Field: FieldOpenBook, Names: []string{"blnopen", "openbook", "open", "isopen"}},
}

var AnswerKeyAliases = []Alias{
	{Field: FieldKeyQuestionID, Names: []string{"questionid", "qid", "id"}},
	{Field: FieldKeyAnswer, Names: []string{"answer", "ans", "text"}},
	{Field: FieldKeyCorrect, Names: []string{"blncorrect", "iscorrect", "correct", "key"}},
}

func choiceAliases(letter string) []string {
	return []string{"choice" + letter, "choice_" + letter, letter, "answer" + letter}
}

// NormalizeHeader lower-cases h and drops everything that is not a-z or 0-9,
// so "Choice_A", "choice a" and "ChoiceA" compare equal.
func NormalizeHeader(h string) string {
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Headers indexes a header row by normalized name. When two columns normalize
// to the same name the later one wins.
type Headers struct {
	index map[string]int
}

func NewHeaders(row []string) Headers {
	index := make(map[string]int, len(row))
	for i, h := range row {
		index[NormalizeHeader(h)] = i
	}
	return Headers{index: index}
}

// Index returns the column of the first alias present in the header row.
func (h Headers) Index(aliases []string) (int, bool) {
	for _, a := range aliases {
		if i, ok := h.index[NormalizeHeader(a)]; ok {
			return i, true
		}
	}
	return 0, false
}

// Pick returns the trimmed cell for the first matching alias. A missing header
// or a row too short to reach the column both report absent.
func (h Headers) Pick(row []string, aliases []string) (string, bool) {
	i, ok := h.Index(aliases)
	if !ok || i < 0 || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

// Resolve maps every field of table that has a matching header to its column.
func (h Headers) Resolve(table []Alias) map[Field]int {
	out := make(map[Field]int, len(table))
	for _, a := range table {
		if i, ok := h.Index(a.Names); ok {
			out[a.Field] = i
		}
	}
	return out
}

// Record is a raw row keyed by canonical field. A field missing from the map
// was absent from the input, which is different from present but blank.
type Record map[Field]string

func RecordFromRow(columns map[Field]int, row []string) Record {
	rec := make(Record, len(columns))
	for f, i := range columns {
		if i < 0 || i >= len(row) {
			continue
		}
		rec[f] = strings.TrimSpace(row[i])
	}
	return rec
}

func (r Record) Get(f Field) (string, bool) {
	v, ok := r[f]
	return v, ok
}
