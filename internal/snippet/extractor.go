// Package snippet builds bounded excerpts of matched documents from their
// most relevant paragraphs.
package snippet

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"docsearch/internal/index"
	"docsearch/internal/linalg"
)

const (
	// DefaultBudget is the snippet length limit in characters, ellipsis
	// excluded.
	DefaultBudget = 256

	// DefaultMinParagraph is the remaining budget below which no further
	// paragraph is added.
	DefaultMinParagraph = 64

	// DefaultWordWindow is how far back from the cut point truncation
	// looks for whitespace.
	DefaultWordWindow = 16

	// DefaultEllipsis marks a truncated paragraph.
	DefaultEllipsis = "..."

	// DefaultSeparator joins the selected paragraphs.
	DefaultSeparator = "\n"
)

// ErrSnapshotRequired is returned when an Extractor has no snapshot.
var ErrSnapshotRequired = errors.New("index snapshot required")

// Extractor assembles snippets. It is safe for concurrent use.
type Extractor struct {
	snap         *index.Snapshot
	budget       int
	minParagraph int
	wordWindow   int
	ellipsis     string
	separator    string
	logger       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBudget sets the snippet length budget in characters.
func WithBudget(n int) Option { return func(e *Extractor) { e.budget = n } }

// WithMinParagraph sets the remaining budget below which no further
// paragraph is started.
func WithMinParagraph(n int) Option { return func(e *Extractor) { e.minParagraph = n } }

// WithWordWindow sets how far back from the cut point a truncated
// paragraph looks for whitespace.
func WithWordWindow(n int) Option { return func(e *Extractor) { e.wordWindow = n } }

// WithEllipsis sets the marker appended to a truncated paragraph.
func WithEllipsis(s string) Option { return func(e *Extractor) { e.ellipsis = s } }

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// New creates an Extractor over snap.
func New(snap *index.Snapshot, opts ...Option) (*Extractor, error) {
	if snap == nil {
		return nil, ErrSnapshotRequired
	}
	e := &Extractor{
		snap:         snap,
		budget:       DefaultBudget,
		minParagraph: DefaultMinParagraph,
		wordWindow:   DefaultWordWindow,
		ellipsis:     DefaultEllipsis,
		separator:    DefaultSeparator,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type rankedParagraph struct {
	index      int
	similarity float64
}

// Extract returns the excerpt of document doc for a weighted query vector,
// or "" when no paragraph relates to the query.
func (e *Extractor) Extract(doc int, query linalg.Vector) string {
	seg := e.snap.Segmenter()
	paragraphs := seg.Paragraphs(e.snap.Content(doc))
	if len(paragraphs) == 0 {
		return ""
	}

	raw := linalg.NewMatrix(len(paragraphs), e.snap.VocabularySize())
	for p, text := range paragraphs {
		for _, tok := range seg.Tokenize(text) {
			id, ok := e.snap.TermID(tok.Term)
			if !ok {
				continue
			}
			n, _ := raw.At(p, id)
			if err := raw.Set(p, id, n+1); err != nil {
				e.logger.Error("counting paragraph terms failed", "document", e.snap.Title(doc), "error", err)
				return ""
			}
		}
	}
	weighted, err := e.snap.WeightMatrix(raw)
	if err != nil {
		e.logger.Error("weighting paragraphs failed", "document", e.snap.Title(doc), "error", err)
		return ""
	}

	var ranked []rankedParagraph
	for p := range paragraphs {
		row, _ := weighted.RowView(p)
		sim, err := linalg.Cosine(row, query, 0)
		if err != nil {
			e.logger.Error("scoring paragraph failed", "document", e.snap.Title(doc), "error", err)
			return ""
		}
		if sim > 0 {
			ranked = append(ranked, rankedParagraph{index: p, similarity: sim})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].similarity > ranked[j].similarity })
	return e.assemble(paragraphs, ranked)
}

// assemble concatenates the best paragraphs within the budget. A paragraph
// that does not fit is cut at a word boundary, marked with the ellipsis,
// and ends the snippet.
func (e *Extractor) assemble(paragraphs []string, ranked []rankedParagraph) string {
	sepLen := len([]rune(e.separator))
	remaining := e.budget
	var parts []string
	for _, rp := range ranked {
		if remaining < e.minParagraph {
			break
		}
		if len(parts) > 0 {
			remaining -= sepLen
		}
		if remaining <= 0 {
			break
		}
		text := []rune(paragraphs[rp.index])
		if len(text) <= remaining {
			parts = append(parts, string(text))
			remaining -= len(text)
			continue
		}
		parts = append(parts, truncate(text, remaining, e.wordWindow)+e.ellipsis)
		break
	}
	return strings.Join(parts, e.separator)
}

// truncate cuts text to at most limit runes, preferring the last whitespace
// within window runes of the limit.
func truncate(text []rune, limit, window int) string {
	cut := limit
	if !unicode.IsSpace(text[limit]) {
		for i := limit - 1; i >= max(0, limit-window); i-- {
			if unicode.IsSpace(text[i]) {
				cut = i
				break
			}
		}
	}
	return strings.TrimRightFunc(string(text[:cut]), unicode.IsSpace)
}
