// Package fuzzy widens sparse queries with edit-distance variants of their
// terms and suggests the best alternate query.
package fuzzy

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"docsearch/internal/domain"
	"docsearch/internal/query"
)

const (
	// DefaultMinResults is the result count below which expansion runs.
	DefaultMinResults = 16

	// DefaultMaxDepth is the largest edit distance tried.
	DefaultMaxDepth = 2
)

var (
	// ErrVocabularyRequired is returned when an Expander has no vocabulary.
	ErrVocabularyRequired = errors.New("vocabulary required")

	// ErrRankerRequired is returned when an Expander has no ranker.
	ErrRankerRequired = errors.New("ranker required")
)

// Vocabulary is the view of the index the expander needs.
type Vocabulary interface {
	Lexicon
	IDF(term string) float64
}

// Ranker runs one ranking attempt, skipping documents titled in exclude.
type Ranker interface {
	Rank(ctx context.Context, q *query.Query, exclude map[string]struct{}) ([]domain.ResultItem, float64, error)
}

// Result is the outcome of an expansion.
type Result struct {
	// Items holds the initial items followed by every item the alternates
	// contributed, in the order they were found.
	Items      []domain.ResultItem
	Suggestion string
	// Attempts counts alternate queries sent to the ranker.
	Attempts int
	// Depth is the last edit distance tried.
	Depth int
}

// Expander runs alternate queries until enough results are collected.
type Expander struct {
	vocab         Vocabulary
	ranker        Ranker
	minResults    int
	maxDepth      int
	maxCandidates int
	logger        *slog.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithMinResults sets the result count expansion tries to reach.
// Default is DefaultMinResults.
func WithMinResults(n int) Option {
	return func(e *Expander) { e.minResults = n }
}

// WithMaxDepth sets the largest edit distance tried.
// Default is DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(e *Expander) { e.maxDepth = n }
}

// WithMaxCandidates caps the alternates tried per depth after ordering
// them by IDF. Zero keeps every candidate.
func WithMaxCandidates(n int) Option {
	return func(e *Expander) { e.maxCandidates = n }
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Expander) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// New creates an Expander.
func New(vocab Vocabulary, ranker Ranker, opts ...Option) (*Expander, error) {
	if vocab == nil {
		return nil, ErrVocabularyRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}
	e := &Expander{
		vocab:      vocab,
		ranker:     ranker,
		minResults: DefaultMinResults,
		maxDepth:   DefaultMaxDepth,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MinResults returns the result count below which expansion should run.
func (e *Expander) MinResults() int { return e.minResults }

// Expand tries alternate queries built from variants of q's original terms,
// depth by depth, until minResults items are collected. initial and
// initialMax are the literal query's ranking outcome. The suggestion names
// the term set with the highest best score when that set is not q's own.
func (e *Expander) Expand(ctx context.Context, q *query.Query, initial []domain.ResultItem, initialMax float64) (Result, error) {
	res := Result{Items: slices.Clone(initial)}
	if len(q.Original) == 0 {
		return res, nil
	}

	collected := make(map[string]struct{}, len(initial))
	for _, it := range initial {
		collected[it.Title] = struct{}{}
	}

	var bestTerms []string
	bestScore := 0.0
	record := func(terms []string, score float64) {
		if score > bestScore {
			bestTerms, bestScore = terms, score
		}
	}
	if initialMax > 0 {
		record(q.Original, initialMax)
	}

	tried := map[string]struct{}{key(q.Original): {}}
	for depth := 1; depth <= e.maxDepth && len(res.Items) < e.minResults; depth++ {
		res.Depth = depth
		for _, terms := range e.candidates(q.Original, depth) {
			if len(res.Items) >= e.minResults {
				break
			}
			k := key(terms)
			if _, ok := tried[k]; ok {
				continue
			}
			tried[k] = struct{}{}

			items, score, err := e.ranker.Rank(ctx, q.Rewrite(terms), collected)
			if err != nil {
				return Result{}, err
			}
			res.Attempts++
			e.logger.Debug("alternate query tried", "terms", terms, "depth", depth, "results", len(items), "max_score", score)
			if score <= 0 {
				continue
			}
			for _, it := range items {
				collected[it.Title] = struct{}{}
			}
			res.Items = append(res.Items, items...)
			record(terms, score)
		}
	}

	if bestTerms != nil && key(bestTerms) != key(q.Original) {
		res.Suggestion = strings.Join(bestTerms, " ")
	}
	e.logger.Info("fuzzy fallback",
		"query", q.Raw,
		"depth", res.Depth,
		"attempts", res.Attempts,
		"results", len(res.Items),
		"suggestion", res.Suggestion,
	)
	return res, nil
}

// candidates returns the cross product of per-term variant sets within
// depth edits, keeping only sets of pairwise distinct terms, ordered by
// descending IDF sum.
func (e *Expander) candidates(original []string, depth int) [][]string {
	variants := make([][]string, len(original))
	for i, term := range original {
		variants[i] = VariantsWithinDistance(term, e.vocab, depth)
		if len(variants[i]) == 0 {
			return nil
		}
	}

	type scored struct {
		terms []string
		idf   float64
	}
	var out []scored
	cursor := make([]int, len(variants))
	for {
		terms := make([]string, len(variants))
		idf := 0.0
		for i, c := range cursor {
			terms[i] = variants[i][c]
			idf += e.vocab.IDF(terms[i])
		}
		if distinct(terms) {
			out = append(out, scored{terms, idf})
		}

		i := len(cursor) - 1
		for ; i >= 0; i-- {
			cursor[i]++
			if cursor[i] < len(variants[i]) {
				break
			}
			cursor[i] = 0
		}
		if i < 0 {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].idf > out[j].idf })
	if e.maxCandidates > 0 && len(out) > e.maxCandidates {
		out = out[:e.maxCandidates]
	}
	sets := make([][]string, len(out))
	for i, s := range out {
		sets[i] = s.terms
	}
	return sets
}

func distinct(terms []string) bool {
	for i := range terms {
		for j := i + 1; j < len(terms); j++ {
			if terms[i] == terms[j] {
				return false
			}
		}
	}
	return true
}

func key(terms []string) string { return strings.Join(terms, "\x00") }
