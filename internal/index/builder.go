// Package index builds the vector-space model of a corpus: the vocabulary,
// the raw term-frequency matrix and its TF-IDF weighting.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docsearch/internal/domain"
	"docsearch/internal/linalg"
)

var (
	// ErrReaderRequired is returned when Build is given no corpus reader.
	ErrReaderRequired = errors.New("corpus reader required")

	// ErrEmptyCorpus is returned when the corpus has no documents.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrNoTerms is returned when no document yields a single token.
	ErrNoTerms = errors.New("no tokens found in corpus")

	// ErrDuplicateTitle is returned when two documents share a title.
	ErrDuplicateTitle = errors.New("duplicate document title")

	// ErrUnknownTerm is returned when a vector is requested for a term
	// outside the vocabulary.
	ErrUnknownTerm = errors.New("term not in vocabulary")
)

type buildOptions struct {
	logger *slog.Logger
}

// Option configures Build.
type Option func(*buildOptions)

// WithLogger sets the logger used while indexing.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *buildOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// Build scans the corpus once and returns its snapshot. Term IDs are
// assigned in first-seen order while documents are scanned in enumeration
// order. Any reader failure aborts the build; there is no partial index.
func Build(ctx context.Context, reader domain.CorpusReader, opts ...Option) (*Snapshot, error) {
	if reader == nil {
		return nil, ErrReaderRequired
	}
	o := buildOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()

	docs, err := reader.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}
	titles := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if _, dup := titles[doc.Title]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTitle, doc.Title)
		}
		titles[doc.Title] = struct{}{}
	}

	termIDs := make(map[string]int)
	var terms []string
	counts := make([]map[int]int, len(docs))
	positions := make([]map[int][]int, len(docs))
	for d, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		counts[d] = make(map[int]int)
		positions[d] = make(map[int][]int)
		for _, tok := range reader.Tokenize(doc.Content) {
			id, ok := termIDs[tok.Term]
			if !ok {
				id = len(terms)
				termIDs[tok.Term] = id
				terms = append(terms, tok.Term)
			}
			counts[d][id]++
			positions[d][id] = append(positions[d][id], tok.Position)
		}
	}
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}

	raw := linalg.NewMatrix(len(docs), len(terms))
	for d, row := range counts {
		for id, n := range row {
			if err := raw.Set(d, id, float64(n)); err != nil {
				return nil, err
			}
		}
	}
	idf := InverseDocumentFrequency(raw)
	weighted, err := WeightMatrix(raw, idf)
	if err != nil {
		return nil, fmt.Errorf("weighting corpus: %w", err)
	}

	o.logger.Info("index built",
		"documents", len(docs),
		"terms", len(terms),
		"duration", time.Since(start),
	)
	return &Snapshot{
		terms:     terms,
		termIDs:   termIDs,
		docs:      docs,
		idf:       idf,
		weighted:  weighted,
		positions: positions,
		segmenter: reader,
	}, nil
}
