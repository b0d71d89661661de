package keyword

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Suggestion is a dictionary term close to a misspelled query term.
type Suggestion struct {
	Term      string  // The suggested term
	Distance  int     // Edit distance from the original term
	Frequency int     // Document frequency (popularity)
	Score     float64 // Combined score for ranking
}

// SpellCheckResult contains the result of spell checking a query.
type SpellCheckResult struct {
	OriginalQuery  string
	CorrectedQuery string
	HasCorrections bool
	// MisspelledTerms are the corrected query terms; Corrections holds the best
	// suggestion for each, in the same order.
	MisspelledTerms []string
	Corrections     []string
}

// SpellChecker suggests dictionary terms for query terms the dictionary lacks.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int
	distance       func(a, b string) int

	termsCache []string
	cacheMu    sync.RWMutex
	cacheValid bool
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms found in fewer than f records.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithTranspositions counts swapped adjacent runes as a single edit.
func WithTranspositions() SpellCheckerOption {
	return func(s *SpellChecker) {
		s.distance = DamerauLevenshteinDistance
	}
}

// NewSpellChecker creates a new SpellChecker with the given dictionary.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		distance:       LevenshteinDistance,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshCache reloads the term cache from the dictionary. Call it after the
// dictionary is rebuilt.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	s.termsCache = terms
	s.cacheValid = true
	s.cacheMu.Unlock()
	return nil
}

func (s *SpellChecker) ensureCache() error {
	s.cacheMu.RLock()
	valid := s.cacheValid
	s.cacheMu.RUnlock()
	if valid {
		return nil
	}
	return s.RefreshCache()
}

// Check checks every term of query and builds a corrected query from the best
// suggestion for each misspelled term.
func (s *SpellChecker) Check(query string) (*SpellCheckResult, error) {
	if err := s.ensureCache(); err != nil {
		return nil, err
	}

	terms := strings.Fields(strings.ToLower(query))
	result := &SpellCheckResult{OriginalQuery: query}

	corrected := make([]string, 0, len(terms))
	for _, term := range terms {
		if !s.IsMisspelled(term) {
			corrected = append(corrected, term)
			continue
		}
		suggestions := s.Suggest(term)
		if len(suggestions) == 0 {
			corrected = append(corrected, term)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, term)
		result.Corrections = append(result.Corrections, suggestions[0].Term)
		corrected = append(corrected, suggestions[0].Term)
	}

	result.CorrectedQuery = strings.Join(corrected, " ")
	return result, nil
}

// Suggest returns dictionary terms within the maximum edit distance of term, best first.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	if err := s.ensureCache(); err != nil {
		return nil
	}

	term = strings.ToLower(term)
	termLen := utf8.RuneCountInString(term)

	s.cacheMu.RLock()
	terms := s.termsCache
	s.cacheMu.RUnlock()

	suggestions := make([]Suggestion, 0)
	for _, dictTerm := range terms {
		candidate := strings.ToLower(dictTerm)
		if candidate == term {
			continue
		}

		lenDiff := utf8.RuneCountInString(candidate) - termLen
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > s.maxDistance {
			continue
		}

		distance := s.distance(term, candidate)
		if distance > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(dictTerm)
		if err != nil || freq < s.minFreq {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Term:      dictTerm,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	}

	// Ties fall back to the term so results are deterministic.
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term < suggestions[j].Term
	})

	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions
}

// IsMisspelled reports whether term is absent from the dictionary. Dictionary
// errors count as correctly spelled.
func (s *SpellChecker) IsMisspelled(term string) bool {
	ok, err := s.dictionary.ContainsTerm(strings.ToLower(term))
	return err == nil && !ok
}
