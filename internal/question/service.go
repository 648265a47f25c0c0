package question

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var ErrQuestionNotFound = errors.New("question not found")

type Service struct {
	loader *Loader
	store  *Store
	tables TableReader
	log    *zap.Logger
}

// NewService wires the loader to store. tables may be nil when no database is
// configured.
func NewService(store *Store, tables TableReader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		loader: NewLoader(log),
		store:  store,
		tables: tables,
		log:    log,
	}
}

// Load parses an uploaded bank and optional key, then replaces the current
// bank. A failed load leaves the current bank in place.
func (s *Service) Load(ctx context.Context, bank Source, key *Source) (*BankSummary, error) {
	b, err := s.loader.Load(ctx, bank, key)
	if err != nil {
		s.log.Warn("question bank rejected", zap.String("source", bank.Name), zap.Error(err))
		return nil, err
	}
	return s.install(b), nil
}

// LoadFiles loads a bank from disk. answersPath may be empty.
func (s *Service) LoadFiles(ctx context.Context, questionsPath, answersPath string) (*BankSummary, error) {
	qf, err := os.Open(questionsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer qf.Close()

	var key *Source
	if strings.TrimSpace(answersPath) != "" {
		af, err := os.Open(answersPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		defer af.Close()
		key = &Source{Name: filepath.Base(answersPath), Reader: af}
	}
	return s.Load(ctx, Source{Name: filepath.Base(questionsPath), Reader: qf}, key)
}

func (s *Service) LoadTables(ctx context.Context, questionTable, answerTable string) (*BankSummary, error) {
	if s.tables == nil {
		return nil, fmt.Errorf("%w: no database configured", ErrUnreadableFile)
	}
	b, err := s.loader.LoadTables(ctx, s.tables, questionTable, answerTable)
	if err != nil {
		s.log.Warn("question tables rejected", zap.String("table", questionTable), zap.Error(err))
		return nil, err
	}
	return s.install(b), nil
}

func (s *Service) install(b *Bank) *BankSummary {
	s.store.Replace(b)
	sum := b.Summary()
	s.log.Info("question bank loaded",
		zap.Uint64("generation", b.Generation),
		zap.String("digest", b.Digest),
		zap.Int("questions", sum.Total),
		zap.Int("categories", len(sum.Categories)),
	)
	return &sum
}

func (s *Service) Summary(ctx context.Context) (*BankSummary, error) {
	b, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	sum := b.Summary()
	return &sum, nil
}

// Export returns the current bank as canonical records in bank order.
func (s *Service) Export(ctx context.Context) ([]Record, error) {
	b, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(b.Questions))
	for _, q := range b.Questions {
		out = append(out, RecordFromQuestion(q))
	}
	return out, nil
}

func (s *Service) ExportWorkbook(ctx context.Context) ([]byte, error) {
	records, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return WriteWorkbook(records)
}

func (s *Service) Question(ctx context.Context, id string) (*Question, error) {
	b, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	for _, q := range b.Questions {
		if q.ID == id {
			out := q.clone()
			return &out, nil
		}
	}
	return nil, ErrQuestionNotFound
}
