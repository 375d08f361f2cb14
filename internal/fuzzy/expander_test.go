package fuzzy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/corpus"
	"docsearch/internal/domain"
	"docsearch/internal/index"
	"docsearch/internal/query"
	"docsearch/internal/rank"
)

func catDogEngine(t *testing.T) (*index.Snapshot, *rank.Ranker) {
	t.Helper()
	snap, err := index.Build(context.Background(), corpus.NewMemoryReader(
		domain.Document{Title: "doc1", Content: "the cat sat"},
		domain.Document{Title: "doc2", Content: "the dog ran"},
	))
	require.NoError(t, err)
	r, err := rank.New(snap)
	require.NoError(t, err)
	return snap, r
}

func expand(t *testing.T, e *Expander, snap *index.Snapshot, r *rank.Ranker, raw string) Result {
	t.Helper()
	q := query.Parse(raw, snap)
	items, best, err := r.Rank(context.Background(), q, nil)
	require.NoError(t, err)
	res, err := e.Expand(context.Background(), q, items, best)
	require.NoError(t, err)
	return res
}

func resultTitles(items []domain.ResultItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestNew(t *testing.T) {
	snap, r := catDogEngine(t)
	_, err := New(nil, r)
	assert.ErrorIs(t, err, ErrVocabularyRequired)
	_, err = New(snap, nil)
	assert.ErrorIs(t, err, ErrRankerRequired)

	e, err := New(snap, r, WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultMinResults, e.MinResults())
}

func TestExpandSingleEditVariant(t *testing.T) {
	snap, r := catDogEngine(t)
	e, err := New(snap, r, WithMinResults(1))
	require.NoError(t, err)

	res := expand(t, e, snap, r, "xat")
	assert.Equal(t, []string{"doc1"}, resultTitles(res.Items))
	assert.Equal(t, "cat", res.Suggestion)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, res.Depth)
}

func TestExpandAllDepths(t *testing.T) {
	snap, r := catDogEngine(t)
	e, err := New(snap, r)
	require.NoError(t, err)

	res := expand(t, e, snap, r, "xat")
	assert.Equal(t, []string{"doc1", "doc2"}, resultTitles(res.Items))
	assert.Equal(t, "cat", res.Suggestion, "ties keep the first best term set")
	assert.Equal(t, 3, res.Attempts, "cat, sat, then ran at depth two")
	assert.Equal(t, 2, res.Depth)
}

func TestExpandKeepsOriginalWhenBest(t *testing.T) {
	snap, r := catDogEngine(t)
	e, err := New(snap, r)
	require.NoError(t, err)

	res := expand(t, e, snap, r, "cat")
	assert.Equal(t, "doc1", res.Items[0].Title)
	assert.Empty(t, res.Suggestion)
}

func TestExpandCarriesMandatoryTerms(t *testing.T) {
	snap, err := index.Build(context.Background(), corpus.NewMemoryReader(
		domain.Document{Title: "a", Content: "red apple pie"},
		domain.Document{Title: "b", Content: "green apple tart"},
		domain.Document{Title: "c", Content: "red cherry jam"},
	))
	require.NoError(t, err)
	r, err := rank.New(snap)
	require.NoError(t, err)
	e, err := New(snap, r, WithMaxDepth(1))
	require.NoError(t, err)

	res := expand(t, e, snap, r, "^rad aple")
	assert.Equal(t, []string{"a", "c"}, resultTitles(res.Items), "b lacks the required red")
	assert.Equal(t, "red apple", res.Suggestion)
}

type fakeRanker struct {
	results map[string][]domain.ResultItem
	calls   []string
	err     error
}

func (f *fakeRanker) Rank(_ context.Context, q *query.Query, exclude map[string]struct{}) ([]domain.ResultItem, float64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	k := strings.Join(q.Original, " ")
	f.calls = append(f.calls, k)
	var items []domain.ResultItem
	best := 0.0
	for _, it := range f.results[k] {
		if _, skip := exclude[it.Title]; skip {
			continue
		}
		items = append(items, it)
		best = max(best, it.Score)
	}
	return items, best, nil
}

func TestExpandStopsAtThreshold(t *testing.T) {
	vocab := fakeVocab{lexicon: lexicon{"cat", "cot", "cut"}, idf: map[string]float64{"cat": 1, "cot": 3, "cut": 2}}
	f := &fakeRanker{results: map[string][]domain.ResultItem{
		"cot": {{Title: "x", Score: 0.5}, {Title: "y", Score: 0.4}},
		"cut": {{Title: "z", Score: 0.9}},
	}}
	e, err := New(vocab, f, WithMinResults(2))
	require.NoError(t, err)

	q := query.Parse("cit", vocab)
	res, err := e.Expand(context.Background(), q, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"cot"}, f.calls, "highest IDF first, then stop at two results")
	assert.Equal(t, []string{"x", "y"}, resultTitles(res.Items))
	assert.Equal(t, "cot", res.Suggestion)
}

func TestExpandMaxCandidates(t *testing.T) {
	vocab := fakeVocab{lexicon: lexicon{"cat", "cot", "cut"}, idf: map[string]float64{"cat": 1, "cot": 3, "cut": 2}}
	f := &fakeRanker{}
	e, err := New(vocab, f, WithMaxCandidates(2), WithMaxDepth(1))
	require.NoError(t, err)

	_, err = e.Expand(context.Background(), query.Parse("cit", vocab), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"cot", "cut"}, f.calls)
}

func TestExpandDistinctTerms(t *testing.T) {
	vocab := fakeVocab{lexicon: lexicon{"cat", "bat"}, idf: map[string]float64{"cat": 1, "bat": 1}}
	f := &fakeRanker{}
	e, err := New(vocab, f, WithMaxDepth(1))
	require.NoError(t, err)

	_, err = e.Expand(context.Background(), query.Parse("cat bat", vocab), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"bat cat"}, f.calls, "sets repeating a term are discarded, the original is skipped")
}

func TestExpandRankerError(t *testing.T) {
	vocab := fakeVocab{lexicon: lexicon{"cat"}, idf: map[string]float64{"cat": 1}}
	boom := errors.New("boom")
	e, err := New(vocab, &fakeRanker{err: boom})
	require.NoError(t, err)

	_, err = e.Expand(context.Background(), query.Parse("cot", vocab), nil, 0)
	assert.ErrorIs(t, err, boom)
}

type fakeVocab struct {
	lexicon
	idf map[string]float64
}

func (v fakeVocab) IDF(term string) float64 { return v.idf[term] }
