// Package corpus provides document sources for the indexer.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docsearch/internal/domain"
	"docsearch/internal/tokenize"
)

// ErrNoDocuments is returned when a reader's sources match no document.
var ErrNoDocuments = errors.New("no documents found")

// DefaultExtensions lists the file extensions read when none are given.
var DefaultExtensions = []string{".txt"}

// segmenter implements domain.Segmenter with the standard word and paragraph
// tokenizers.
type segmenter struct {
	words      tokenize.Config
	paragraphs tokenize.Config
}

func newSegmenter() segmenter {
	return segmenter{words: tokenize.Words(), paragraphs: tokenize.Paragraphs()}
}

func (s segmenter) Tokenize(content string) []domain.Token { return s.words.Tokens(content) }

func (s segmenter) Paragraphs(content string) []string { return s.paragraphs.Split(content) }

// DirReader reads plain-text files matched by glob patterns or directories.
// Directories are walked recursively. Documents are ordered by path and
// titled by their base name, or by their slash-separated path when several
// files share that base name.
type DirReader struct {
	segmenter
	patterns   []string
	extensions []string
}

// NewDirReader creates a reader over the given patterns. Files whose
// extension is not listed are skipped; with no extensions DefaultExtensions
// apply.
func NewDirReader(patterns []string, extensions ...string) *DirReader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make([]string, len(extensions))
	for i, e := range extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[i] = e
	}
	return &DirReader{segmenter: newSegmenter(), patterns: patterns, extensions: exts}
}

// Documents reads every matching file. Any read failure aborts the whole
// enumeration.
func (r *DirReader) Documents(ctx context.Context) ([]domain.Document, error) {
	paths, err := r.resolve()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoDocuments
	}
	titles := titlesFor(paths)
	docs := make([]domain.Document, 0, len(paths))
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		docs = append(docs, domain.Document{Title: titles[i], Path: p, Content: string(data)})
	}
	return docs, nil
}

func (r *DirReader) resolve() ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !r.accepts(p) {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	for _, pattern := range r.patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if matches == nil {
			matches = []string{pattern}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", m, err)
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			err = filepath.WalkDir(m, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					add(p)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %s: %w", m, err)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// titlesFor returns a distinct title per path. paths must be distinct.
func titlesFor(paths []string) []string {
	bases := make(map[string]int, len(paths))
	for _, p := range paths {
		bases[filepath.Base(p)]++
	}
	titles := make([]string, len(paths))
	for i, p := range paths {
		if base := filepath.Base(p); bases[base] == 1 {
			titles[i] = base
		} else {
			titles[i] = filepath.ToSlash(filepath.Clean(p))
		}
	}
	return titles
}

func (r *DirReader) accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range r.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// MemoryReader serves a fixed list of documents.
type MemoryReader struct {
	segmenter
	docs []domain.Document
}

// NewMemoryReader creates a reader over docs, kept in the given order.
func NewMemoryReader(docs ...domain.Document) *MemoryReader {
	return &MemoryReader{segmenter: newSegmenter(), docs: docs}
}

// Documents returns a copy of the reader's documents.
func (r *MemoryReader) Documents(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(r.docs) == 0 {
		return nil, ErrNoDocuments
	}
	out := make([]domain.Document, len(r.docs))
	copy(out, r.docs)
	return out, nil
}
