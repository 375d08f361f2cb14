// Package rank scores documents against structured queries.
package rank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"docsearch/internal/domain"
	"docsearch/internal/index"
	"docsearch/internal/linalg"
	"docsearch/internal/query"
)

const (
	// DefaultMinSimilarity is the cosine floor below which a document is
	// considered unrelated.
	DefaultMinSimilarity = 0.01

	// DefaultProximityBoost scales a document's score by 1 + boost/span
	// for every proximity group found within span tokens.
	DefaultProximityBoost = 0.5
)

// ErrSnapshotRequired is returned when a Ranker is built without a snapshot.
var ErrSnapshotRequired = errors.New("index snapshot required")

// Snippeter builds the excerpt shown for a matched document.
type Snippeter interface {
	Extract(doc int, query linalg.Vector) string
}

type noSnippets struct{}

func (noSnippets) Extract(int, linalg.Vector) string { return "" }

// Ranker scores every document of a snapshot against a query.
type Ranker struct {
	snap           *index.Snapshot
	snippets       Snippeter
	minSimilarity  float64
	proximityBoost float64
	workers        int
	logger         *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithMinSimilarity sets the similarity floor.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(v float64) Option {
	return func(r *Ranker) { r.minSimilarity = v }
}

// WithProximityBoost sets the proximity boost numerator.
// Default is DefaultProximityBoost.
func WithProximityBoost(v float64) Option {
	return func(r *Ranker) { r.proximityBoost = v }
}

// WithWorkers sets how many goroutines scan documents.
// Default is runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(r *Ranker) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

// WithSnippets sets the snippet extractor for result items.
// By default items carry no snippet.
func WithSnippets(s Snippeter) Option {
	return func(r *Ranker) {
		if s == nil {
			s = noSnippets{}
		}
		r.snippets = s
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// New creates a Ranker over snap.
func New(snap *index.Snapshot, opts ...Option) (*Ranker, error) {
	if snap == nil {
		return nil, ErrSnapshotRequired
	}
	r := &Ranker{
		snap:           snap,
		snippets:       noSnippets{},
		minSimilarity:  DefaultMinSimilarity,
		proximityBoost: DefaultProximityBoost,
		workers:        runtime.NumCPU(),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rank scores every document whose title is not in exclude and returns the
// surviving documents in descending score order together with the best
// score reached. A best score at or below the similarity floor voids the
// attempt: no items and a best score of 0.
func (r *Ranker) Rank(ctx context.Context, q *query.Query, exclude map[string]struct{}) ([]domain.ResultItem, float64, error) {
	qvec, err := r.snap.QueryVector(q.Terms)
	if err != nil {
		return nil, 0, fmt.Errorf("building query vector: %w", err)
	}
	groups := r.proximityGroups(q)

	n := r.snap.DocumentCount()
	scores := make([]float64, n)
	candidate := make([]bool, n)
	err = r.scan(ctx, n, func(doc int) error {
		if _, skip := exclude[r.snap.Title(doc)]; skip {
			return nil
		}
		candidate[doc] = true
		dvec, err := r.snap.DocumentVector(doc)
		if err != nil {
			return err
		}
		score, err := linalg.Cosine(qvec, dvec, r.minSimilarity)
		if err != nil {
			return err
		}
		for _, g := range groups {
			if span := r.span(doc, g); span > 0 {
				score *= 1 + r.proximityBoost/float64(span)
			}
		}
		scores[doc] = score
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	best := 0.0
	for doc, s := range scores {
		if candidate[doc] && s > best {
			best = s
		}
	}
	if best <= r.minSimilarity {
		return nil, 0, nil
	}

	var items []domain.ResultItem
	for doc, s := range scores {
		if !candidate[doc] || s <= r.minSimilarity || !r.admits(doc, q) {
			continue
		}
		items = append(items, domain.ResultItem{
			Title:   r.snap.Title(doc),
			Snippet: r.snippets.Extract(doc, qvec),
			Score:   s,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })

	r.logger.Debug("query ranked",
		"terms", q.Terms,
		"excluded_titles", len(exclude),
		"results", len(items),
		"max_score", best,
	)
	return items, best, nil
}

// admits applies the mandatory and excluded term constraints to doc.
func (r *Ranker) admits(doc int, q *query.Query) bool {
	for _, term := range q.Mandatory {
		id, ok := r.snap.TermID(term)
		if !ok || r.snap.IDF(term) == 0 {
			continue
		}
		if r.snap.Weight(doc, id) == 0 {
			return false
		}
	}
	for _, term := range q.Excluded {
		id, ok := r.snap.TermID(term)
		if ok && r.snap.Weight(doc, id) != 0 {
			return false
		}
	}
	return true
}

// proximityGroups resolves the query's groups to distinct vocabulary IDs,
// keeping only groups that still link two or more terms.
func (r *Ranker) proximityGroups(q *query.Query) [][]int {
	var groups [][]int
	for _, g := range q.Proximity {
		seen := make(map[int]struct{}, len(g))
		ids := make([]int, 0, len(g))
		for _, term := range g {
			id, ok := r.snap.TermID(term)
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		if len(ids) >= 2 {
			groups = append(groups, ids)
		}
	}
	return groups
}

func (r *Ranker) span(doc int, group []int) int {
	lists := make([][]int, len(group))
	for i, id := range group {
		lists[i] = r.snap.Positions(doc, id)
	}
	return MinimalSpan(lists)
}

// scan calls fn for every document, split into contiguous ranges across
// the configured workers. fn must only write state owned by its document.
func (r *Ranker) scan(ctx context.Context, n int, fn func(doc int) error) error {
	workers := min(r.workers, n)
	if workers <= 1 {
		for doc := 0; doc < n; doc++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(doc); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	size := (n + workers - 1) / workers
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		g.Go(func() error {
			for doc := start; doc < end; doc++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(doc); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
