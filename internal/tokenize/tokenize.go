// Package tokenize splits text into words and paragraphs. A Config bundles
// the three decisions every scan makes: where a token ends, which runes
// survive inside a token, and how a finished token is normalized.
package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"docsearch/internal/domain"
)

// Operators are the query operator characters kept by the query tokenizer.
const Operators = "*!^~"

// Config describes one way of scanning text.
type Config struct {
	// Separator reports whether r ends the current token.
	Separator func(r rune) bool
	// Keep reports whether r is retained inside a token. Nil keeps everything.
	Keep func(r rune) bool
	// Normalize maps a finished token to its final form. An empty result
	// drops the token. Nil leaves tokens untouched.
	Normalize func(s string) string
}

// Split returns the normalized, non-empty tokens of text in order.
func (c Config) Split(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		w := b.String()
		b.Reset()
		if c.Normalize != nil {
			w = c.Normalize(w)
		}
		if w != "" {
			out = append(out, w)
		}
	}
	for _, r := range text {
		if c.Separator(r) {
			flush()
			continue
		}
		if c.Keep != nil && !c.Keep(r) {
			continue
		}
		b.WriteRune(r)
	}
	flush()
	return out
}

// Tokens is Split with each token tagged by its position in the stream.
func (c Config) Tokens(text string) []domain.Token {
	words := c.Split(text)
	tokens := make([]domain.Token, len(words))
	for i, w := range words {
		tokens[i] = domain.Token{Term: w, Position: i}
	}
	return tokens
}

// Words scans document text into searchable terms: whitespace separated,
// letters and digits only, case folded and stripped of diacritics.
func Words() Config {
	return Config{
		Separator: unicode.IsSpace,
		Keep:      isWordRune,
		Normalize: Fold,
	}
}

// Query scans a query string like Words but keeps operator characters.
func Query() Config {
	return Config{
		Separator: unicode.IsSpace,
		Keep: func(r rune) bool {
			return isWordRune(r) || strings.ContainsRune(Operators, r)
		},
		Normalize: Fold,
	}
}

// Paragraphs scans raw text into newline separated paragraphs, dropping
// those with no letter or digit. Paragraph text is returned trimmed but
// otherwise unnormalized.
func Paragraphs() Config {
	return Config{
		Separator: func(r rune) bool { return r == '\n' },
		Normalize: func(s string) string {
			if strings.IndexFunc(s, isAlnum) < 0 {
				return ""
			}
			return strings.TrimSpace(s)
		},
	}
}

// Fold lower-cases s and removes combining diacritical marks, so that
// "Café" and "cafe" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

func isWordRune(r rune) bool {
	return isAlnum(r) || unicode.IsSpace(r)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
