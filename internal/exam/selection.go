package exam

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"quizbank/internal/question"
)

var (
	ErrEmptyPool            = errors.New("no questions match the selected book mode and category")
	ErrEmptyManualSelection = errors.New("no questions selected from the current pool")
	ErrMissingCount         = errors.New("number of questions is required")
)

const CategoryAll = "all"

type GenMode string

const (
	GenManual GenMode = "manual"
	GenAuto   GenMode = "auto"
)

type Distribution string

const (
	DistRandom Distribution = "random"
	DistEven   Distribution = "even"
)

// SelectParams drives Select. Count <= 0 means "whole pool" unless
// CountRequired is set.
type SelectParams struct {
	Mode          GenMode      `json:"mode"`
	ChosenIDs     []string     `json:"chosen_ids,omitempty"`
	Count         int          `json:"count"`
	CountRequired bool         `json:"count_required"`
	Distribution  Distribution `json:"distribution"`
	Shuffle       bool         `json:"shuffle"`
	Category      string       `json:"category"`
}

// IsAllCategories reports whether category disables the category filter. Only
// the exact lower-case "all" does, so a category named "All" stays selectable.
func IsAllCategories(category string) bool {
	category = strings.TrimSpace(category)
	return category == "" || category == CategoryAll
}

// BuildPool filters all by book mode and exact category name, keeping order.
func BuildPool(all []question.Question, mode question.BookMode, category string) []question.Question {
	anyCategory := IsAllCategories(category)
	out := make([]question.Question, 0, len(all))
	for _, q := range all {
		if !q.InBookMode(mode) {
			continue
		}
		if !anyCategory && q.Category != category {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Categories returns the sorted distinct categories of questions in mode.
func Categories(all []question.Question, mode question.BookMode) []string {
	seen := map[string]struct{}{}
	for _, q := range all {
		if q.InBookMode(mode) {
			seen[q.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Selector draws test selections. It is safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSelector() *Selector {
	return NewSelectorWithSource(rand.NewSource(time.Now().UnixNano()))
}

func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rng: rand.New(src)}
}

// Shuffle returns a uniformly shuffled copy of qs.
func (s *Selector) Shuffle(qs []question.Question) []question.Question {
	out := append([]question.Question(nil), qs...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Select picks an ordered subset of pool. The pool is never modified.
func (s *Selector) Select(pool []question.Question, p SelectParams) ([]question.Question, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	if p.Mode == GenManual {
		return s.selectManual(pool, p)
	}
	return s.selectAuto(pool, p)
}

func (s *Selector) selectManual(pool []question.Question, p SelectParams) ([]question.Question, error) {
	chosen := make(map[string]struct{}, len(p.ChosenIDs))
	for _, id := range p.ChosenIDs {
		chosen[strings.TrimSpace(id)] = struct{}{}
	}

	out := make([]question.Question, 0, len(chosen))
	for _, q := range pool {
		if _, ok := chosen[q.ID]; ok {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyManualSelection
	}
	if p.Shuffle {
		out = s.Shuffle(out)
	}
	return out, nil
}

func (s *Selector) selectAuto(pool []question.Question, p SelectParams) ([]question.Question, error) {
	count := p.Count
	if count <= 0 {
		if p.CountRequired {
			return nil, ErrMissingCount
		}
		count = len(pool)
	}
	if count > len(pool) {
		count = len(pool)
	}

	var out []question.Question
	if p.Distribution == DistEven && IsAllCategories(p.Category) {
		out = s.drawEven(pool, count)
	} else {
		base := pool
		if p.Shuffle {
			base = s.Shuffle(pool)
		}
		out = append([]question.Question(nil), base[:count]...)
	}

	if p.Shuffle {
		out = s.Shuffle(out)
	}
	return out, nil
}

// drawEven buckets pool by category in first-seen order, shuffles each bucket
// and draws one question per non-empty bucket per pass.
func (s *Selector) drawEven(pool []question.Question, count int) []question.Question {
	order := make([]string, 0)
	buckets := map[string][]question.Question{}
	for _, q := range pool {
		if _, ok := buckets[q.Category]; !ok {
			order = append(order, q.Category)
		}
		buckets[q.Category] = append(buckets[q.Category], q)
	}
	for _, c := range order {
		buckets[c] = s.Shuffle(buckets[c])
	}

	out := make([]question.Question, 0, count)
	for pass := 0; len(out) < count; pass++ {
		drew := false
		for _, c := range order {
			if len(out) == count {
				break
			}
			if pass < len(buckets[c]) {
				out = append(out, buckets[c][pass])
				drew = true
			}
		}
		if !drew {
			break
		}
	}
	return out
}
