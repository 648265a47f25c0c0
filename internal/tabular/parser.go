// Package tabular splits delimited text exports into rows of raw fields.
package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

const bom = "\ufeff"

// DetectDelimiter inspects the first line only. Semicolon wins only when it is
// strictly more frequent than comma.
func DetectDelimiter(text string) rune {
	text = strings.TrimPrefix(text, bom)
	firstLine := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		firstLine = text[:i]
	}
	firstLine = strings.TrimSuffix(firstLine, "\r")

	commas := strings.Count(firstLine, ",")
	semis := strings.Count(firstLine, ";")
	if semis > commas {
		return ';'
	}
	return ','
}

// Parse splits text using the delimiter DetectDelimiter picks for it.
func Parse(text string) [][]string {
	return ParseWith(text, DetectDelimiter(text))
}

// ParseWith returns every record in text. Leading space before a field is
// dropped so ` "a, b"` stays one quoted field; trailing space is kept. Rows are
// not checked against a header; a record the reader cannot make sense of is
// skipped instead of failing the document.
func ParseWith(text string, delimiter rune) [][]string {
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, bom)))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows := make([][]string, 0)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			break
		}
		rows = append(rows, rec)
	}
	return rows
}

// IsBlankRow reports whether every cell is empty after trimming.
func IsBlankRow(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
