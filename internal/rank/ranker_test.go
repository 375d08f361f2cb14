package rank

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/corpus"
	"docsearch/internal/domain"
	"docsearch/internal/index"
	"docsearch/internal/linalg"
	"docsearch/internal/query"
)

func buildSnapshot(t *testing.T, docs ...domain.Document) *index.Snapshot {
	t.Helper()
	snap, err := index.Build(context.Background(), corpus.NewMemoryReader(docs...))
	require.NoError(t, err)
	return snap
}

func catDog(t *testing.T) *index.Snapshot {
	return buildSnapshot(t,
		domain.Document{Title: "doc1", Content: "the cat sat"},
		domain.Document{Title: "doc2", Content: "the dog ran"},
	)
}

func rankQuery(t *testing.T, r *Ranker, snap *index.Snapshot, raw string) ([]domain.ResultItem, float64) {
	t.Helper()
	items, best, err := r.Rank(context.Background(), query.Parse(raw, snap), nil)
	require.NoError(t, err)
	return items, best
}

func titles(items []domain.ResultItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrSnapshotRequired)

	r, err := New(catDog(t), WithWorkers(0), WithSnippets(nil), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, r.workers)
}

func TestRankSingleTerm(t *testing.T) {
	snap := catDog(t)
	r, err := New(snap)
	require.NoError(t, err)

	items, best := rankQuery(t, r, snap, "cat")
	require.Equal(t, []string{"doc1"}, titles(items))
	assert.InDelta(t, 1/math.Sqrt2, items[0].Score, 1e-9)
	assert.Equal(t, items[0].Score, best)
}

func TestRankVoidAttempt(t *testing.T) {
	snap := catDog(t)
	r, err := New(snap)
	require.NoError(t, err)

	t.Run("zero idf term", func(t *testing.T) {
		items, best := rankQuery(t, r, snap, "the")
		assert.Empty(t, items)
		assert.Equal(t, 0.0, best)
	})

	t.Run("no known terms", func(t *testing.T) {
		items, best := rankQuery(t, r, snap, "xat")
		assert.Empty(t, items)
		assert.Equal(t, 0.0, best)
	})
}

func TestRankProximityBoost(t *testing.T) {
	snap := catDog(t)
	r, err := New(snap)
	require.NoError(t, err)

	plain, _ := rankQuery(t, r, snap, "cat")
	boosted, best := rankQuery(t, r, snap, "^cat ~sat")
	require.Equal(t, []string{"doc1"}, titles(boosted))
	assert.Greater(t, boosted[0].Score, plain[0].Score)
	assert.InDelta(t, 1.5, best, 1e-9, "cosine 1 scaled by 1 + 0.5/1")

	r2, err := New(snap, WithProximityBoost(1))
	require.NoError(t, err)
	_, best = rankQuery(t, r2, snap, "cat ~ sat")
	assert.InDelta(t, 2.0, best, 1e-9)
}

func TestRankExcluded(t *testing.T) {
	snap := buildSnapshot(t,
		domain.Document{Title: "a", Content: "apple banana cherry"},
		domain.Document{Title: "b", Content: "apple banana"},
		domain.Document{Title: "c", Content: "banana cherry date"},
		domain.Document{Title: "d", Content: "elder fig"},
	)
	r, err := New(snap)
	require.NoError(t, err)

	items, _ := rankQuery(t, r, snap, "banana apple !cherry")
	require.NotEmpty(t, items)
	assert.Equal(t, "b", items[0].Title)
	assert.NotContains(t, titles(items), "a")
	assert.NotContains(t, titles(items), "c")

	cherry, _ := snap.TermID("cherry")
	for doc := 0; doc < snap.DocumentCount(); doc++ {
		for _, it := range items {
			if it.Title == snap.Title(doc) {
				assert.Zero(t, snap.Weight(doc, cherry))
			}
		}
	}
}

func TestRankMandatory(t *testing.T) {
	snap := buildSnapshot(t,
		domain.Document{Title: "a", Content: "apple banana"},
		domain.Document{Title: "b", Content: "apple cherry"},
		domain.Document{Title: "c", Content: "cherry date"},
		domain.Document{Title: "d", Content: "elder fig"},
	)
	r, err := New(snap)
	require.NoError(t, err)

	items, _ := rankQuery(t, r, snap, "apple ^cherry")
	assert.ElementsMatch(t, []string{"b", "c"}, titles(items))
	assert.Equal(t, "b", items[0].Title)

	t.Run("zero idf mandatory term is not enforced", func(t *testing.T) {
		snap := buildSnapshot(t,
			domain.Document{Title: "x", Content: "common rare"},
			domain.Document{Title: "y", Content: "common other"},
		)
		r, err := New(snap)
		require.NoError(t, err)
		items, _ := rankQuery(t, r, snap, "^common rare")
		assert.Equal(t, []string{"x"}, titles(items))
	})
}

func TestRankExcludeTitles(t *testing.T) {
	snap := buildSnapshot(t,
		domain.Document{Title: "a", Content: "apple pie"},
		domain.Document{Title: "b", Content: "apple tart"},
		domain.Document{Title: "c", Content: "lemon curd"},
	)
	r, err := New(snap)
	require.NoError(t, err)

	q := query.Parse("apple", snap)
	items, _, err := r.Rank(context.Background(), q, map[string]struct{}{"a": {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, titles(items))

	items, best, err := r.Rank(context.Background(), q, map[string]struct{}{"a": {}, "b": {}})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0.0, best)
}

func TestRankOrderingStableAcrossWorkers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"alpha", "beta", "gamma", "delta", "eps", "zeta", "eta", "theta"}
	var docs []domain.Document
	for i := 0; i < 60; i++ {
		content := ""
		for j := 0; j < 12; j++ {
			content += words[rng.Intn(len(words))] + " "
		}
		docs = append(docs, domain.Document{Title: fmt.Sprintf("doc%02d", i), Content: content})
	}
	snap := buildSnapshot(t, docs...)

	serial, err := New(snap, WithWorkers(1))
	require.NoError(t, err)
	parallel, err := New(snap, WithWorkers(8))
	require.NoError(t, err)

	for _, raw := range []string{"alpha ~ beta", "*gamma !delta", "^zeta eta theta"} {
		want, wantBest := rankQuery(t, serial, snap, raw)
		got, gotBest := rankQuery(t, parallel, snap, raw)
		assert.Equal(t, want, got, raw)
		assert.Equal(t, wantBest, gotBest, raw)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
		}
	}
}

func TestRankCancelled(t *testing.T) {
	snap := catDog(t)
	r, err := New(snap, WithWorkers(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = r.Rank(ctx, query.Parse("cat", snap), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type fixedSnippet string

func (f fixedSnippet) Extract(int, linalg.Vector) string { return string(f) }

func TestRankSnippets(t *testing.T) {
	snap := catDog(t)
	r, err := New(snap, WithSnippets(fixedSnippet("excerpt")))
	require.NoError(t, err)
	items, _ := rankQuery(t, r, snap, "cat")
	require.Len(t, items, 1)
	assert.Equal(t, "excerpt", items[0].Snippet)
}
