package question

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"quizbank/internal/tabular"
)

var (
	ErrMalformedJSON     = errors.New("question bank JSON must be a valid JSON array")
	ErrMalformedWorkbook = errors.New("question workbook could not be read")
	ErrEmptyBank         = errors.New("question bank is empty")
	ErrUnreadableFile    = errors.New("could not read question/answer files")
	ErrNoBank            = errors.New("no question bank loaded")
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromName picks the format from a file extension, falling back when
// the extension is not recognized.
func FormatFromName(name string, fallback Format) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	case ".json":
		return FormatJSON
	default:
		return fallback
	}
}

// Source is a named input stream, typically an uploaded file.
type Source struct {
	Name   string
	Reader io.Reader
}

type Loader struct {
	log *zap.Logger
	now func() time.Time
}

func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log, now: time.Now}
}

// Load reads the bank and the optional answer key concurrently and builds a
// Bank once both reads have finished. Nothing is returned unless the whole
// bank parses.
func (l *Loader) Load(ctx context.Context, bank Source, key *Source) (*Bank, error) {
	var bankData, keyData []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := readSource(gctx, bank)
		if err != nil {
			return err
		}
		bankData = data
		return nil
	})
	if key != nil && key.Reader != nil {
		g.Go(func() error {
			data, err := readSource(gctx, *key)
			if err != nil {
				return err
			}
			keyData = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.log.Warn("question bank read failed", zap.String("source", bank.Name), zap.Error(err))
		return nil, err
	}

	keyName := ""
	if key != nil {
		keyName = key.Name
	}
	return l.Build(bank.Name, bankData, keyName, keyData)
}

// Build parses raw bank and answer-key bytes. An empty keyData means no answer
// key.
func (l *Loader) Build(bankName string, bankData []byte, keyName string, keyData []byte) (*Bank, error) {
	questions, err := ParseBank(FormatFromName(bankName, FormatJSON), bankData)
	if err != nil {
		return nil, err
	}

	var entries []AnswerKeyEntry
	if len(bytes.TrimSpace(keyData)) > 0 {
		entries, err = ParseAnswerKey(FormatFromName(keyName, FormatCSV), keyData)
		if err != nil {
			return nil, err
		}
	}

	b := &Bank{
		Digest:         digest(bankData, keyData),
		Questions:      Merge(questions, entries),
		QuestionSource: bankName,
		AnswerSource:   keyName,
		AnswerEntries:  len(entries),
		LoadedAt:       l.now(),
	}
	l.log.Info("question bank parsed",
		zap.String("source", bankName),
		zap.String("answer_source", keyName),
		zap.Int("questions", len(b.Questions)),
		zap.Int("answer_entries", len(entries)),
		zap.String("digest", b.Digest),
	)
	return b, nil
}

func readSource(ctx context.Context, src Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.Reader == nil {
		return nil, fmt.Errorf("%w: %s has no content", ErrUnreadableFile, src.Name)
	}
	data, err := io.ReadAll(src.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnreadableFile, src.Name, err)
	}
	return data, nil
}

func digest(parts ...[]byte) string {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		var n [8]byte
		size := uint64(len(p))
		for i := range n {
			n[i] = byte(size >> (8 * i))
		}
		_, _ = h.Write(n[:])
		_, _ = h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ParseBank parses a whole question bank. Only structural problems fail:
// invalid or non-array JSON, an unreadable workbook, or zero usable rows.
func ParseBank(format Format, data []byte) ([]Question, error) {
	var (
		questions []Question
		err       error
	)
	switch format {
	case FormatCSV:
		questions = questionsFromRows(tabular.Parse(string(data)))
	case FormatXLSX:
		var rows [][]string
		rows, err = readWorkbookRows(data)
		if err == nil {
			questions = questionsFromRows(rows)
		}
	default:
		questions, err = questionsFromJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}
	return questions, nil
}

// QuestionsFromRows maps a header row plus data rows onto questions. Blank
// rows are dropped before positions are assigned.
func QuestionsFromRows(rows [][]string) ([]Question, error) {
	questions := questionsFromRows(rows)
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}
	return questions, nil
}

func questionsFromRows(rows [][]string) []Question {
	if len(rows) == 0 {
		return nil
	}
	columns := NewHeaders(rows[0]).Resolve(QuestionAliases)
	out := make([]Question, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if tabular.IsBlankRow(row) {
			continue
		}
		out = append(out, Normalize(RecordFromRow(columns, row), len(out)))
	}
	return out
}

func questionsFromJSON(data []byte) ([]Question, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after array", ErrMalformedJSON)
	}
	items, ok := doc.([]any)
	if !ok {
		return nil, ErrMalformedJSON
	}

	out := make([]Question, 0, len(items))
	for i, item := range items {
		obj, _ := item.(map[string]any)
		out = append(out, Normalize(recordFromObject(obj), i))
	}
	return out, nil
}

// recordFromObject resolves JSON keys with the same alias table as CSV headers.
// null values are treated as absent.
func recordFromObject(obj map[string]any) Record {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	columns := NewHeaders(keys).Resolve(QuestionAliases)
	rec := make(Record, len(columns))
	for f, i := range columns {
		if v, ok := scalarString(obj[keys[i]]); ok {
			rec[f] = strings.TrimSpace(v)
		}
	}
	return rec
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return canonicalNumber(t), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// ParseAnswerKey parses an answer-key table. Rows without a question id column
// or an answer column are skipped.
func ParseAnswerKey(format Format, data []byte) ([]AnswerKeyEntry, error) {
	switch format {
	case FormatXLSX:
		rows, err := readWorkbookRows(data)
		if err != nil {
			return nil, err
		}
		return AnswerKeyFromRows(rows), nil
	default:
		return AnswerKeyFromRows(tabular.Parse(string(data))), nil
	}
}

func AnswerKeyFromRows(rows [][]string) []AnswerKeyEntry {
	if len(rows) == 0 {
		return nil
	}
	headers := NewHeaders(rows[0])
	idAliases := aliasNames(AnswerKeyAliases, FieldKeyQuestionID)
	textAliases := aliasNames(AnswerKeyAliases, FieldKeyAnswer)
	correctAliases := aliasNames(AnswerKeyAliases, FieldKeyCorrect)

	out := make([]AnswerKeyEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if tabular.IsBlankRow(row) {
			continue
		}
		id, okID := headers.Pick(row, idAliases)
		text, okText := headers.Pick(row, textAliases)
		if !okID || !okText {
			continue
		}
		flag, _ := headers.Pick(row, correctAliases)
		out = append(out, AnswerKeyEntry{
			QuestionID: id,
			AnswerText: text,
			IsCorrect:  isTruthy(flag),
		})
	}
	return out
}

func aliasNames(table []Alias, f Field) []string {
	for _, a := range table {
		if a.Field == f {
			return a.Names
		}
	}
	return nil
}

// canonicalNumber prints integral numbers without a fraction or exponent, so
// 5.0 and 5e0 both become "5". Other numbers keep their literal text.
func canonicalNumber(n json.Number) string {
	if _, err := n.Int64(); err == nil {
		return n.String()
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) >= 1<<53 {
		return n.String()
	}
	return strconv.FormatInt(int64(f), 10)
}

// isTruthy accepts "1" and "true" in any case with surrounding space.
func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true
	default:
		return false
	}
}
