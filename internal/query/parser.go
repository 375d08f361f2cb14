// Package query parses free-text queries into structured queries.
//
// Surface syntax: whitespace separated terms; prefix operators '*'
// (repeatable boost), '!' (exclude) and '^' (require); a standalone '~'
// between two terms links them into a proximity group, and chains extend
// the group.
package query

import (
	"slices"
	"strings"

	"docsearch/internal/tokenize"
)

// Kind classifies a query token.
type Kind int

const (
	// Plain is a ranking term with no constraint.
	Plain Kind = iota
	// Mandatory terms must occur in every returned document.
	Mandatory
	// Excluded terms must not occur in any returned document.
	Excluded
	// Link is a standalone '~' joining its neighbours into a proximity group.
	Link
)

func (k Kind) String() string {
	switch k {
	case Mandatory:
		return "mandatory"
	case Excluded:
		return "excluded"
	case Link:
		return "link"
	default:
		return "plain"
	}
}

// Token is one classified query token.
type Token struct {
	Kind  Kind
	Term  string
	Boost int
	// Known reports whether Term is in the vocabulary.
	Known bool
	// Proximity reports whether the token belongs to a proximity group.
	Proximity bool
}

// Vocabulary reports membership of normalized terms.
type Vocabulary interface {
	Contains(term string) bool
}

// Query is the structured form of one query string. It is built once by
// Parse and never modified.
type Query struct {
	Raw    string
	Tokens []Token

	// Terms maps vocabulary terms to their ranking frequency.
	Terms map[string]int
	// Mandatory and Excluded hold constrained terms in first-seen order.
	Mandatory []string
	Excluded  []string
	// Proximity holds ordered groups of linked terms.
	Proximity [][]string
	// Original holds every non-excluded term, known or not, in first-seen
	// order; OriginalFreq holds their frequencies.
	Original     []string
	OriginalFreq map[string]int
}

// Empty reports whether the query has nothing to rank or expand.
func (q *Query) Empty() bool {
	return q == nil || (len(q.Terms) == 0 && len(q.Original) == 0)
}

// IsMandatory reports whether term was required with '^'.
func (q *Query) IsMandatory(term string) bool {
	for _, m := range q.Mandatory {
		if m == term {
			return true
		}
	}
	return false
}

// Parse turns raw into a Query in a single forward pass over its tokens.
func Parse(raw string, vocab Vocabulary) *Query {
	q := &Query{
		Raw:          raw,
		Terms:        make(map[string]int),
		OriginalFreq: make(map[string]int),
	}
	words := tokenize.Query().Split(strings.ReplaceAll(raw, "~", " ~ "))

	mandatory := make(map[string]struct{})
	excluded := make(map[string]struct{})
	// prev indexes q.Tokens at the last linkable term, group indexes the
	// proximity group prev belongs to, and linked is set while a '~' waits
	// for its right-hand term.
	prev, group := -1, -1
	linked := false

	for _, w := range words {
		if w == "~" {
			if prev < 0 || linked {
				continue
			}
			linked = true
			q.Tokens = append(q.Tokens, Token{Kind: Link, Term: w})
			continue
		}

		tok := classify(w)
		if tok.Term == "" {
			continue
		}
		tok.Known = vocab.Contains(tok.Term)

		if tok.Kind == Excluded {
			if linked {
				q.Tokens = q.Tokens[:len(q.Tokens)-1]
			}
			if tok.Known {
				if _, ok := excluded[tok.Term]; !ok {
					excluded[tok.Term] = struct{}{}
					q.Excluded = append(q.Excluded, tok.Term)
				}
			}
			q.Tokens = append(q.Tokens, tok)
			prev, group, linked = -1, -1, false
			continue
		}

		if tok.Kind == Mandatory {
			if _, ok := mandatory[tok.Term]; !ok {
				mandatory[tok.Term] = struct{}{}
				q.Mandatory = append(q.Mandatory, tok.Term)
			}
		}
		freq := 1 + tok.Boost
		if tok.Known {
			q.Terms[tok.Term] += freq
		}
		if _, ok := q.OriginalFreq[tok.Term]; !ok {
			q.Original = append(q.Original, tok.Term)
		}
		q.OriginalFreq[tok.Term] += freq

		if linked {
			if group < 0 {
				q.Proximity = append(q.Proximity, []string{q.Tokens[prev].Term})
				group = len(q.Proximity) - 1
				q.Tokens[prev].Proximity = true
			}
			q.Proximity[group] = append(q.Proximity[group], tok.Term)
			tok.Proximity = true
		} else {
			group = -1
		}
		q.Tokens = append(q.Tokens, tok)
		prev = len(q.Tokens) - 1
		linked = false
	}

	// A trailing '~' links nothing.
	if n := len(q.Tokens); n > 0 && q.Tokens[n-1].Kind == Link {
		q.Tokens = q.Tokens[:n-1]
	}

	// Excluded terms never rank, even when also given plainly.
	for _, term := range q.Excluded {
		delete(q.Terms, term)
		delete(q.OriginalFreq, term)
		q.Original = slices.DeleteFunc(q.Original, func(t string) bool { return t == term })
	}
	return q
}

// classify reads the operator prefix of a word and strips every operator
// character from the term.
func classify(w string) Token {
	tok := Token{Kind: Plain}
	i := 0
prefix:
	for ; i < len(w); i++ {
		switch w[i] {
		case '*':
			tok.Boost++
		case '!':
			tok.Kind = Excluded
		case '^':
			if tok.Kind != Excluded {
				tok.Kind = Mandatory
			}
		default:
			break prefix
		}
	}
	tok.Term = strings.Map(func(r rune) rune {
		if strings.ContainsRune(tokenize.Operators, r) {
			return -1
		}
		return r
	}, w[i:])
	return tok
}

// Rewrite returns a copy of q whose original terms are replaced, position
// by position, with terms. Ranking frequencies, mandatory marks and
// proximity links follow their position; excluded terms are kept as they
// are. terms must be vocabulary members and len(terms) == len(q.Original).
func (q *Query) Rewrite(terms []string) *Query {
	alt := &Query{
		Raw:          strings.Join(terms, " "),
		Terms:        make(map[string]int, len(terms)),
		Excluded:     slices.Clone(q.Excluded),
		Original:     slices.Clone(terms),
		OriginalFreq: make(map[string]int, len(terms)),
	}
	replace := make(map[string]string, len(terms))
	for i, term := range terms {
		from := q.Original[i]
		replace[from] = term
		freq := q.OriginalFreq[from]
		alt.Terms[term] += freq
		alt.OriginalFreq[term] += freq
		kind := Plain
		if q.IsMandatory(from) {
			kind = Mandatory
			if !alt.IsMandatory(term) {
				alt.Mandatory = append(alt.Mandatory, term)
			}
		}
		alt.Tokens = append(alt.Tokens, Token{Kind: kind, Term: term, Boost: freq - 1, Known: true})
	}
	for _, g := range q.Proximity {
		mapped := make([]string, 0, len(g))
		for _, term := range g {
			if to, ok := replace[term]; ok {
				mapped = append(mapped, to)
			}
		}
		if len(mapped) >= 2 {
			alt.Proximity = append(alt.Proximity, mapped)
		}
	}
	for _, term := range alt.Excluded {
		delete(alt.Terms, term)
	}
	return alt
}
