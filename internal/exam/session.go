package exam

import (
	"errors"
	"math"
	"time"

	"quizbank/internal/question"
)

var (
	ErrNoResponse    = errors.New("select or enter an answer before submitting")
	ErrNothingMissed = errors.New("no missed questions to review")
)

type AnswerState struct {
	Response  Response    `json:"response"`
	Result    ScoreResult `json:"result"`
	IsCorrect bool        `json:"is_correct"`
	Revealed  bool        `json:"revealed"`
}

// Session is one learner's study run over a fixed list of questions. Base is
// the list the session started with; Questions is the current view, which is
// the missed subset while ReviewMode is on.
type Session struct {
	ID         string                 `json:"id"`
	Generation uint64                 `json:"generation"`
	Base       []question.Question    `json:"-"`
	Questions  []question.Question    `json:"-"`
	Index      int                    `json:"index"`
	Answers    map[string]AnswerState `json:"answers"`
	ReviewMode bool                   `json:"review_mode"`
	StartedAt  time.Time              `json:"started_at"`
	LastSeen   time.Time              `json:"-"`
}

type Stats struct {
	Total    int `json:"total"`
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
	Accuracy int `json:"accuracy"`
}

type Summary struct {
	Total    int  `json:"total"`
	Answered int  `json:"answered"`
	Correct  int  `json:"correct"`
	Percent  int  `json:"percent"`
	Missed   int  `json:"missed"`
	Complete bool `json:"complete"`
}

func NewSession(id string, generation uint64, qs []question.Question) *Session {
	base := append([]question.Question(nil), qs...)
	now := time.Now()
	return &Session{
		ID:         id,
		Generation: generation,
		Base:       base,
		Questions:  append([]question.Question(nil), base...),
		Answers:    map[string]AnswerState{},
		StartedAt:  now,
		LastSeen:   now,
	}
}

func (s *Session) Current() (question.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return question.Question{}, false
	}
	return s.Questions[s.Index], true
}

// Next moves forward and reports whether the index changed.
func (s *Session) Next() bool {
	if s.Index >= len(s.Questions)-1 {
		return false
	}
	s.Index++
	return true
}

func (s *Session) Prev() bool {
	if s.Index <= 0 {
		return false
	}
	s.Index--
	return true
}

// Submit scores r against the current question and reveals the answer.
func (s *Session) Submit(r Response) (ScoreResult, error) {
	q, ok := s.Current()
	if !ok {
		return ScoreResult{}, ErrNoResponse
	}
	if r.IsEmpty(q) {
		return ScoreResult{}, ErrNoResponse
	}
	res := Score(q, r)
	s.Answers[q.ID] = AnswerState{
		Response:  r,
		Result:    res,
		IsCorrect: res.IsCorrect != nil && *res.IsCorrect,
		Revealed:  true,
	}
	return res, nil
}

// Stats covers the current view. Accuracy is a rounded percentage of answered
// questions.
func (s *Session) Stats() Stats {
	st := Stats{Total: len(s.Questions)}
	st.Answered, st.Correct = s.tally(s.Questions)
	st.Accuracy = percent(st.Correct, st.Answered)
	return st
}

// Summary scores the session base, or the review view while reviewing.
// Percent is a rounded percentage of all questions, answered or not.
func (s *Session) Summary() Summary {
	pool := s.Base
	if s.ReviewMode && len(s.Questions) > 0 {
		pool = s.Questions
	}
	sum := Summary{Total: len(pool)}
	sum.Answered, sum.Correct = s.tally(pool)
	sum.Percent = percent(sum.Correct, sum.Total)
	sum.Missed = len(s.Missed())
	sum.Complete = len(s.Questions) > 0 && s.isAnswered(s.Questions[len(s.Questions)-1])
	return sum
}

// Missed returns answered but wrong questions from the base list.
func (s *Session) Missed() []question.Question {
	out := make([]question.Question, 0)
	for _, q := range s.Base {
		if a, ok := s.Answers[q.ID]; ok && a.Revealed && !a.IsCorrect {
			out = append(out, q)
		}
	}
	return out
}

// ReviewMissed restarts the session over the missed questions with their
// answers cleared.
func (s *Session) ReviewMissed() error {
	missed := s.Missed()
	if len(missed) == 0 {
		return ErrNothingMissed
	}
	for _, q := range missed {
		delete(s.Answers, q.ID)
	}
	s.Questions = missed
	s.Index = 0
	s.ReviewMode = true
	return nil
}

func (s *Session) StartOver() {
	s.Questions = append([]question.Question(nil), s.Base...)
	s.Index = 0
	s.Answers = map[string]AnswerState{}
	s.ReviewMode = false
}

func (s *Session) isAnswered(q question.Question) bool {
	a, ok := s.Answers[q.ID]
	return ok && a.Revealed
}

func (s *Session) tally(qs []question.Question) (answered, correct int) {
	for _, q := range qs {
		a, ok := s.Answers[q.ID]
		if !ok || !a.Revealed {
			continue
		}
		answered++
		if a.IsCorrect {
			correct++
		}
	}
	return answered, correct
}

func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(d) * 100))
}
