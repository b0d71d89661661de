// Package ranking extracts keywords from free-text queries, scores records against
// them and orders the scored results.
package ranking

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/florafind/internal/lexicon"
)

// KeywordSet is a sorted, deduplicated set of lowercase keywords.
type KeywordSet []string

// Contains reports whether kw is in the set.
func (ks KeywordSet) Contains(kw string) bool {
	i := sort.SearchStrings(ks, kw)
	return i < len(ks) && ks[i] == kw
}

// Strings returns the keywords as a plain slice.
func (ks KeywordSet) Strings() []string {
	return append([]string(nil), ks...)
}

// Extractor turns a free-text query into a KeywordSet using the current lexicon.
type Extractor struct {
	lexicon *lexicon.Live
}

// NewExtractor creates an Extractor reading from lex. A nil holder uses the default lexicon.
func NewExtractor(lex *lexicon.Live) *Extractor {
	if lex == nil {
		lex = lexicon.NewLive(lexicon.Default())
	}
	return &Extractor{lexicon: lex}
}

// Lexicon returns the lexicon currently in use.
func (e *Extractor) Lexicon() *lexicon.Lexicon {
	return e.lexicon.Get()
}

// ExtractKeywords returns the keywords for query: non-stopword tokens, the full
// lowercased query, and every synonym form pulled in by the lexicon.
func (e *Extractor) ExtractKeywords(query string) KeywordSet {
	full := strings.ToLower(strings.TrimSpace(query))
	if full == "" {
		return KeywordSet{}
	}

	lex := e.lexicon.Get()
	normalized := normalize(lex, full)
	tokens := tokenize(normalized)

	set := make(map[string]struct{}, len(tokens)*4)
	for _, tok := range tokens {
		if !lex.IsStopword(tok) {
			set[tok] = struct{}{}
		}
	}
	set[full] = struct{}{}

	// Stopword tokens still expand, so "show" brings in its synonyms.
	for _, tok := range tokens {
		addAll(set, lex.Expand(tok))
	}
	addAll(set, lex.Expand(strings.Join(tokens, " ")))
	addAll(set, lex.ExpandSubstring(normalized))

	out := make(KeywordSet, 0, len(set))
	for kw := range set {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Tokens returns the normalized query tokens longer than minLen runes, in query order.
func (e *Extractor) Tokens(query string, minLen int) []string {
	lex := e.lexicon.Get()
	var out []string
	for _, tok := range tokenize(normalize(lex, strings.ToLower(query))) {
		if utf8.RuneCountInString(tok) > minLen {
			out = append(out, tok)
		}
	}
	return out
}

// normalize replaces every rune that is not a word character, whitespace or part
// of a lexicon script range with a space. s must already be lowercased.
func normalize(lex *lexicon.Lexicon, s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '_':
			return r
		case unicode.IsSpace(r):
			return r
		case lex.InScriptRange(r):
			return r
		default:
			return ' '
		}
	}, s)
}

// tokenize splits on whitespace and drops single-rune tokens.
func tokenize(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

func addAll(set map[string]struct{}, words []string) {
	for _, w := range words {
		set[w] = struct{}{}
	}
}
