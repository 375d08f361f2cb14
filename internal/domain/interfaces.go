package domain

import "context"

// Document represents a single text file loaded into the system.
// The title is treated as a stable identifier.
type Document struct {
	Title   string
	Path    string
	Content string
}

// Token is a normalized word and its position in the token stream of its text.
type Token struct {
	Term     string
	Position int
}

// ResultItem represents a matching document with a relevance score.
type ResultItem struct {
	Title   string
	Snippet string
	Score   float64
}

// ResultSet is the answer to one query: items ordered by descending score
// and an alternate query suggestion, empty when none was better.
type ResultSet struct {
	Items      []ResultItem
	Suggestion string
}

// Segmenter turns document content into normalized tokens and raw paragraphs.
type Segmenter interface {
	Tokenize(content string) []Token
	Paragraphs(content string) []string
}

// CorpusReader enumerates the documents of a corpus in a stable order.
type CorpusReader interface {
	Segmenter
	Documents(ctx context.Context) ([]Document, error)
}

// Searcher defines the query operation exposed by the application core.
type Searcher interface {
	Search(ctx context.Context, query string) (ResultSet, error)
}
