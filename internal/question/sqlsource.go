package question

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TableReader returns a table as rows of text, header row first.
type TableReader interface {
	ReadTable(ctx context.Context, table string) ([][]string, error)
}

// LoadTables builds a bank from a question table and an optional answer table.
// Column names act as headers, so the alias tables apply unchanged.
func (l *Loader) LoadTables(ctx context.Context, tr TableReader, questionTable, answerTable string) (*Bank, error) {
	questionTable = strings.TrimSpace(questionTable)
	answerTable = strings.TrimSpace(answerTable)

	var questionRows, answerRows [][]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := tr.ReadTable(gctx, questionTable)
		if err != nil {
			return fmt.Errorf("%w: table %s: %v", ErrUnreadableFile, questionTable, err)
		}
		questionRows = rows
		return nil
	})
	if answerTable != "" {
		g.Go(func() error {
			rows, err := tr.ReadTable(gctx, answerTable)
			if err != nil {
				return fmt.Errorf("%w: table %s: %v", ErrUnreadableFile, answerTable, err)
			}
			answerRows = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.log.Warn("question table read failed", zap.String("table", questionTable), zap.Error(err))
		return nil, err
	}

	questions, err := QuestionsFromRows(questionRows)
	if err != nil {
		return nil, err
	}
	entries := AnswerKeyFromRows(answerRows)

	b := &Bank{
		Digest:         digest(flattenRows(questionRows), flattenRows(answerRows)),
		Questions:      Merge(questions, entries),
		QuestionSource: "table:" + questionTable,
		AnswerEntries:  len(entries),
		LoadedAt:       l.now(),
	}
	if answerTable != "" {
		b.AnswerSource = "table:" + answerTable
	}
	l.log.Info("question bank read from tables",
		zap.String("table", questionTable),
		zap.String("answer_table", answerTable),
		zap.Int("questions", len(b.Questions)),
		zap.Int("answer_entries", len(entries)),
	)
	return b, nil
}

func flattenRows(rows [][]string) []byte {
	var sb strings.Builder
	for _, row := range rows {
		for i, c := range row {
			if i > 0 {
				sb.WriteByte(0x1f)
			}
			sb.WriteString(c)
		}
		sb.WriteByte(0x1e)
	}
	return []byte(sb.String())
}
