// Package service answers free-text queries against an index snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"docsearch/internal/domain"
	"docsearch/internal/fuzzy"
	"docsearch/internal/index"
	"docsearch/internal/metrics"
	"docsearch/internal/query"
	"docsearch/internal/rank"
	"docsearch/internal/snippet"
)

// ErrSnapshotRequired is returned when a SearchService has no snapshot.
var ErrSnapshotRequired = errors.New("index snapshot required")

// SearchService runs the parse, rank, fuzzy fallback pipeline. It holds no
// per-query state and is safe for concurrent use.
type SearchService struct {
	snap     *index.Snapshot
	ranker   *rank.Ranker
	expander *fuzzy.Expander
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type options struct {
	rank    []rank.Option
	fuzzy   []fuzzy.Option
	snippet []snippet.Option
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a SearchService.
type Option func(*options)

// WithRankOptions forwards options to the ranking engine.
func WithRankOptions(opts ...rank.Option) Option {
	return func(o *options) { o.rank = append(o.rank, opts...) }
}

// WithFuzzyOptions forwards options to the fuzzy expander.
func WithFuzzyOptions(opts ...fuzzy.Option) Option {
	return func(o *options) { o.fuzzy = append(o.fuzzy, opts...) }
}

// WithSnippetOptions forwards options to the snippet extractor.
func WithSnippetOptions(opts ...snippet.Option) Option {
	return func(o *options) { o.snippet = append(o.snippet, opts...) }
}

// WithMetrics records query metrics. Nil disables recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets a custom logger shared by every stage.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// New wires the ranking engine, snippet extractor and fuzzy expander over
// snap.
func New(snap *index.Snapshot, opts ...Option) (*SearchService, error) {
	if snap == nil {
		return nil, ErrSnapshotRequired
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	snippets, err := snippet.New(snap, append([]snippet.Option{snippet.WithLogger(o.logger)}, o.snippet...)...)
	if err != nil {
		return nil, fmt.Errorf("creating snippet extractor: %w", err)
	}
	ranker, err := rank.New(snap, append([]rank.Option{rank.WithLogger(o.logger), rank.WithSnippets(snippets)}, o.rank...)...)
	if err != nil {
		return nil, fmt.Errorf("creating ranker: %w", err)
	}
	expander, err := fuzzy.New(snap, ranker, append([]fuzzy.Option{fuzzy.WithLogger(o.logger)}, o.fuzzy...)...)
	if err != nil {
		return nil, fmt.Errorf("creating fuzzy expander: %w", err)
	}

	stats := snap.Stats()
	o.metrics.SetIndexSize(stats.Documents, stats.Terms)

	return &SearchService{
		snap:     snap,
		ranker:   ranker,
		expander: expander,
		metrics:  o.metrics,
		logger:   o.logger,
	}, nil
}

// Stats returns the size of the searched index.
func (s *SearchService) Stats() index.Stats { return s.snap.Stats() }

// Search answers a raw query. Items are ordered by descending score. When
// the literal query finds fewer items than the fuzzy threshold, variants of
// its terms fill the set and the best alternate becomes the suggestion.
func (s *SearchService) Search(ctx context.Context, raw string) (domain.ResultSet, error) {
	start := time.Now()
	q := query.Parse(raw, s.snap)
	if q.Empty() {
		s.metrics.ObserveQuery(metrics.OutcomeEmpty, time.Since(start))
		return domain.ResultSet{}, nil
	}

	items, best, err := s.ranker.Rank(ctx, q, nil)
	if err != nil {
		s.metrics.ObserveQuery(metrics.OutcomeError, time.Since(start))
		return domain.ResultSet{}, fmt.Errorf("ranking %q: %w", raw, err)
	}

	set := domain.ResultSet{Items: items}
	outcome := metrics.OutcomeHit
	if len(items) < s.expander.MinResults() {
		res, err := s.expander.Expand(ctx, q, items, best)
		if err != nil {
			s.metrics.ObserveQuery(metrics.OutcomeError, time.Since(start))
			return domain.ResultSet{}, fmt.Errorf("expanding %q: %w", raw, err)
		}
		s.metrics.AddFuzzyCandidates(res.Attempts)
		set.Items = res.Items
		set.Suggestion = res.Suggestion
		sort.SliceStable(set.Items, func(i, j int) bool { return set.Items[i].Score > set.Items[j].Score })
		if len(set.Items) > len(items) {
			outcome = metrics.OutcomeFuzzy
		}
	}
	if len(set.Items) == 0 {
		outcome = metrics.OutcomeZeroResult
	}

	elapsed := time.Since(start)
	s.metrics.ObserveQuery(outcome, elapsed)
	s.logger.Info("query executed",
		"query", raw,
		"terms", len(q.Terms),
		"results", len(set.Items),
		"max_score", best,
		"suggestion", set.Suggestion,
		"took_ms", elapsed.Milliseconds(),
	)
	return set, nil
}
