package exam

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizbank/internal/question"
)

var (
	ErrSessionNotFound = errors.New("study session not found")
	ErrStaleSession    = errors.New("question bank was reloaded, start a new session")
)

// DefaultSessionTTL is how long a study session may sit untouched.
const DefaultSessionTTL = 2 * time.Hour

type bankProvider interface {
	Current() (*question.Bank, error)
}

type Service struct {
	bank     bankProvider
	selector *Selector
	log      *zap.Logger
	newID    func() string
	now      func() time.Time
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService keeps study sessions in memory. Sessions idle for longer than
// sessionTTL are dropped; a non-positive TTL means DefaultSessionTTL.
func NewService(bank bankProvider, selector *Selector, log *zap.Logger, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if selector == nil {
		selector = NewSelector()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bank:     bank,
		selector: selector,
		log:      log,
		newID:    uuid.NewString,
		now:      time.Now,
		ttl:      sessionTTL,
		sessions: map[string]*Session{},
	}
}

// TestRequest asks for a generated test. BookMode and Category filter the
// pool before selection.
type TestRequest struct {
	BookMode string `json:"book_mode"`
	SelectParams
}

// Selection is a generated test. Questions are full bank entries so the
// caller can print an answer key.
type Selection struct {
	Generation uint64              `json:"generation"`
	BookMode   question.BookMode   `json:"book_mode"`
	Params     SelectParams        `json:"params"`
	Questions  []question.Question `json:"questions"`
}

type StudyRequest struct {
	BookMode string `json:"book_mode"`
	Category string `json:"category"`
	Shuffle  bool   `json:"shuffle"`
}

// QuestionView is a question as shown to a learner. Answers are only filled in
// once the learner's response has been revealed.
type QuestionView struct {
	ID             string            `json:"id"`
	Question       string            `json:"question"`
	Choices        map[string]string `json:"choices,omitempty"`
	Category       string            `json:"category"`
	Difficulty     string            `json:"difficulty"`
	Reference      string            `json:"reference,omitempty"`
	IsFillBlank    bool              `json:"is_fill_blank"`
	IsTrueFalse    bool              `json:"is_true_false"`
	IsOpenBook     *bool             `json:"is_open_book"`
	MultiAnswer    bool              `json:"multi_answer"`
	CorrectChoices []string          `json:"correct_choices,omitempty"`
	FillAnswer     string            `json:"fill_answer,omitempty"`
}

type SessionView struct {
	ID         string        `json:"id"`
	Generation uint64        `json:"generation"`
	Index      int           `json:"index"`
	Total      int           `json:"total"`
	ReviewMode bool          `json:"review_mode"`
	Question   *QuestionView `json:"question,omitempty"`
	Answer     *AnswerState  `json:"answer,omitempty"`
	Stats      Stats         `json:"stats"`
	Summary    Summary       `json:"summary"`
}

type AnswerResult struct {
	Result  ScoreResult `json:"result"`
	Session SessionView `json:"session"`
}

func (s *Service) current() (*question.Bank, error) {
	return s.bank.Current()
}

func (s *Service) ListQuestions(ctx context.Context, bookMode, category string) ([]question.Question, error) {
	b, err := s.current()
	if err != nil {
		return nil, err
	}
	return BuildPool(b.Questions, question.ParseBookMode(bookMode), strings.TrimSpace(category)), nil
}

func (s *Service) Categories(ctx context.Context, bookMode string) ([]string, error) {
	b, err := s.current()
	if err != nil {
		return nil, err
	}
	return Categories(b.Questions, question.ParseBookMode(bookMode)), nil
}

func (s *Service) GenerateTest(ctx context.Context, in TestRequest) (*Selection, error) {
	b, err := s.current()
	if err != nil {
		return nil, err
	}
	mode := question.ParseBookMode(in.BookMode)
	in.Category = strings.TrimSpace(in.Category)
	if in.Mode != GenManual {
		in.Mode = GenAuto
	}
	if in.Distribution != DistEven {
		in.Distribution = DistRandom
	}

	pool := BuildPool(b.Questions, mode, in.Category)
	picked, err := s.selector.Select(pool, in.SelectParams)
	if err != nil {
		return nil, err
	}
	s.log.Info("test generated",
		zap.Uint64("generation", b.Generation),
		zap.String("mode", string(in.Mode)),
		zap.String("distribution", string(in.Distribution)),
		zap.Int("pool", len(pool)),
		zap.Int("questions", len(picked)),
	)
	return &Selection{
		Generation: b.Generation,
		BookMode:   mode,
		Params:     in.SelectParams,
		Questions:  picked,
	}, nil
}

// Evaluate scores a single response without a session.
func (s *Service) Evaluate(ctx context.Context, questionID string, r Response) (*ScoreResult, error) {
	b, err := s.current()
	if err != nil {
		return nil, err
	}
	questionID = strings.TrimSpace(questionID)
	for _, q := range b.Questions {
		if q.ID == questionID {
			res := Score(q, r)
			return &res, nil
		}
	}
	return nil, question.ErrQuestionNotFound
}

func (s *Service) StartStudy(ctx context.Context, in StudyRequest) (*SessionView, error) {
	b, err := s.current()
	if err != nil {
		return nil, err
	}
	pool := BuildPool(b.Questions, question.ParseBookMode(in.BookMode), strings.TrimSpace(in.Category))
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	if in.Shuffle {
		pool = s.selector.Shuffle(pool)
	}

	now := s.now()
	sess := NewSession(s.newID(), b.Generation, pool)
	sess.StartedAt, sess.LastSeen = now, now
	s.mu.Lock()
	s.evictSessions(now, b.Generation)
	s.sessions[sess.ID] = sess
	view := viewOf(sess)
	s.mu.Unlock()

	s.log.Info("study session started",
		zap.String("session_id", sess.ID),
		zap.Uint64("generation", b.Generation),
		zap.Int("questions", len(pool)),
	)
	return &view, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*SessionView, error) {
	return s.update(id, func(*Session) error { return nil })
}

func (s *Service) SubmitAnswer(ctx context.Context, id string, r Response) (*AnswerResult, error) {
	var res ScoreResult
	view, err := s.update(id, func(sess *Session) error {
		var err error
		res, err = sess.Submit(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &AnswerResult{Result: res, Session: *view}, nil
}

func (s *Service) Next(ctx context.Context, id string) (*SessionView, error) {
	return s.update(id, func(sess *Session) error {
		sess.Next()
		return nil
	})
}

func (s *Service) Prev(ctx context.Context, id string) (*SessionView, error) {
	return s.update(id, func(sess *Session) error {
		sess.Prev()
		return nil
	})
}

func (s *Service) ReviewMissed(ctx context.Context, id string) (*SessionView, error) {
	return s.update(id, func(sess *Session) error {
		return sess.ReviewMissed()
	})
}

func (s *Service) Restart(ctx context.Context, id string) (*SessionView, error) {
	return s.update(id, func(sess *Session) error {
		sess.StartOver()
		return nil
	})
}

func (s *Service) EndSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.log.Info("study session ended", zap.String("session_id", id))
	return nil
}

// evictSessions drops sessions idle past the TTL and sessions built on a bank
// other than generation. Callers hold s.mu.
func (s *Service) evictSessions(now time.Time, generation uint64) {
	evicted := 0
	for id, sess := range s.sessions {
		if sess.Generation != generation || now.Sub(sess.LastSeen) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.log.Info("study sessions evicted", zap.Int("count", evicted), zap.Int("live", len(s.sessions)))
	}
}

// update runs fn on a live session under the service lock. Sessions built on
// an older bank are dropped and reported as stale; idle ones are gone.
func (s *Service) update(id string, fn func(*Session) error) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if now.Sub(sess.LastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	b, err := s.current()
	if err != nil || b.Generation != sess.Generation {
		delete(s.sessions, id)
		s.log.Info("stale study session dropped",
			zap.String("session_id", id),
			zap.Uint64("generation", sess.Generation),
		)
		return nil, ErrStaleSession
	}
	sess.LastSeen = now
	if err := fn(sess); err != nil {
		return nil, err
	}
	view := viewOf(sess)
	return &view, nil
}

func viewOf(sess *Session) SessionView {
	v := SessionView{
		ID:         sess.ID,
		Generation: sess.Generation,
		Index:      sess.Index,
		Total:      len(sess.Questions),
		ReviewMode: sess.ReviewMode,
		Stats:      sess.Stats(),
		Summary:    sess.Summary(),
	}
	if q, ok := sess.Current(); ok {
		a, answered := sess.Answers[q.ID]
		qv := questionView(q, answered && a.Revealed)
		v.Question = &qv
		if answered {
			v.Answer = &a
		}
	}
	return v
}

func questionView(q question.Question, revealed bool) QuestionView {
	v := QuestionView{
		ID:          q.ID,
		Question:    q.Question,
		Category:    q.Category,
		Difficulty:  q.Difficulty,
		Reference:   q.Reference,
		IsFillBlank: q.IsFillBlank,
		IsTrueFalse: q.IsTrueFalse,
		IsOpenBook:  q.IsOpenBook,
		MultiAnswer: len(q.CorrectChoices) > 1,
	}
	if !q.IsFillBlank {
		v.Choices = map[string]string{}
		for _, l := range q.ProvidedChoices() {
			v.Choices[l] = q.Choices[l]
		}
	}
	if revealed {
		v.CorrectChoices = append([]string(nil), q.CorrectChoices...)
		v.FillAnswer = q.FillAnswer
	}
	return v
}
