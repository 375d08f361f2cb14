package index

import (
	"fmt"
	"iter"

	"docsearch/internal/domain"
	"docsearch/internal/linalg"
)

// Snapshot is the immutable result of indexing a corpus: the vocabulary in
// first-seen order, the document list, the IDF vector, the weighted
// documents×terms matrix and per-document term positions. Nothing mutates
// a Snapshot after Build returns, so any number of queries may read it
// concurrently.
type Snapshot struct {
	terms     []string
	termIDs   map[string]int
	docs      []domain.Document
	idf       linalg.Vector
	weighted  *linalg.Matrix
	positions []map[int][]int
	segmenter domain.Segmenter
}

// Stats summarizes a snapshot.
type Stats struct {
	Documents int
	Terms     int
}

// Stats returns the document and vocabulary sizes.
func (s *Snapshot) Stats() Stats {
	return Stats{Documents: len(s.docs), Terms: len(s.terms)}
}

// VocabularySize returns the number of distinct terms.
func (s *Snapshot) VocabularySize() int { return len(s.terms) }

// DocumentCount returns the number of indexed documents.
func (s *Snapshot) DocumentCount() int { return len(s.docs) }

// TermID returns the ID of a normalized term.
func (s *Snapshot) TermID(term string) (int, bool) {
	id, ok := s.termIDs[term]
	return id, ok
}

// Contains reports whether term is in the vocabulary.
func (s *Snapshot) Contains(term string) bool {
	_, ok := s.termIDs[term]
	return ok
}

// Term returns the term with the given ID.
func (s *Snapshot) Term(id int) string { return s.terms[id] }

// Terms yields the vocabulary as (id, term) pairs in ID order.
func (s *Snapshot) Terms() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for id, t := range s.terms {
			if !yield(id, t) {
				return
			}
		}
	}
}

// Title returns the title of document doc.
func (s *Snapshot) Title(doc int) string { return s.docs[doc].Title }

// Content returns the raw content of document doc.
func (s *Snapshot) Content(doc int) string { return s.docs[doc].Content }

// Segmenter returns the tokenizer the corpus was indexed with.
func (s *Snapshot) Segmenter() domain.Segmenter { return s.segmenter }

// IDF returns the inverse document frequency of a term, or 0 for a term
// outside the vocabulary.
func (s *Snapshot) IDF(term string) float64 {
	id, ok := s.termIDs[term]
	if !ok {
		return 0
	}
	return s.idf[id]
}

// Weight returns the TF-IDF weight of term ID in document doc.
func (s *Snapshot) Weight(doc, term int) float64 {
	w, err := s.weighted.At(doc, term)
	if err != nil {
		return 0
	}
	return w
}

// DocumentVector returns the weighted row of document doc. The vector
// shares snapshot storage and must not be modified.
func (s *Snapshot) DocumentVector(doc int) (linalg.Vector, error) {
	return s.weighted.RowView(doc)
}

// Positions returns the token positions of term ID in document doc in
// ascending order.
func (s *Snapshot) Positions(doc, term int) []int {
	return s.positions[doc][term]
}

// WeightVector weights an ad hoc raw count vector with the corpus IDF.
func (s *Snapshot) WeightVector(raw linalg.Vector) (linalg.Vector, error) {
	return WeightVector(raw, s.idf)
}

// WeightMatrix weights an ad hoc raw count matrix with the corpus IDF.
func (s *Snapshot) WeightMatrix(raw *linalg.Matrix) (*linalg.Matrix, error) {
	return WeightMatrix(raw, s.idf)
}

// QueryVector builds the weighted vector of a term→frequency map. Every
// key must be a vocabulary term.
func (s *Snapshot) QueryVector(freqs map[string]int) (linalg.Vector, error) {
	raw := linalg.NewVector(len(s.terms))
	for term, n := range freqs {
		id, ok := s.termIDs[term]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
		}
		raw[id] = float64(n)
	}
	return s.WeightVector(raw)
}
