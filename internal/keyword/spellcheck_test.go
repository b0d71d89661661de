package keyword

import (
	"errors"
	"testing"
)

// mockTermDictionary is a TermDictionary backed by a map of term -> frequency.
type mockTermDictionary struct {
	terms        map[string]int
	getAllError  error
	getFreqError error
	containsErr  error
}

func newMockTermDictionary(terms map[string]int) *mockTermDictionary {
	return &mockTermDictionary{terms: terms}
}

func (m *mockTermDictionary) GetAllTerms() ([]string, error) {
	if m.getAllError != nil {
		return nil, m.getAllError
	}
	result := make([]string, 0, len(m.terms))
	for term := range m.terms {
		result = append(result, term)
	}
	return result, nil
}

func (m *mockTermDictionary) GetTermFrequency(term string) (int, error) {
	if m.getFreqError != nil {
		return 0, m.getFreqError
	}
	return m.terms[term], nil
}

func (m *mockTermDictionary) ContainsTerm(term string) (bool, error) {
	if m.containsErr != nil {
		return false, m.containsErr
	}
	_, ok := m.terms[term]
	return ok, nil
}

func TestSpellChecker_Defaults(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{"neem": 1}))
	if sc.maxDistance != 2 {
		t.Errorf("default maxDistance = %d, want 2", sc.maxDistance)
	}
	if sc.minFreq != 1 {
		t.Errorf("default minFreq = %d, want 1", sc.minFreq)
	}
	if sc.maxSuggestions != 5 {
		t.Errorf("default maxSuggestions = %d, want 5", sc.maxSuggestions)
	}

	sc = NewSpellChecker(newMockTermDictionary(nil), WithMaxDistance(1), WithMinFrequency(3))
	if sc.maxDistance != 1 || sc.minFreq != 3 {
		t.Errorf("options not applied: %+v", sc)
	}
}

func TestSpellChecker_Suggest(t *testing.T) {
	dict := newMockTermDictionary(map[string]int{
		"jammi":    10,
		"banyan":   8,
		"coconut":  6,
		"mamidi":   4,
		"జమ్మి":    5,
		"peepal":   3,
	})
	sc := NewSpellChecker(dict)

	tests := []struct {
		term      string
		wantFirst string
	}{
		{"jami", "jammi"},
		{"banian", "banyan"},
		{"cocnut", "coconut"},
		{"జమ్మ", "జమ్మి"},
		{"xyzxyz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			suggestions := sc.Suggest(tt.term)
			if tt.wantFirst == "" {
				if len(suggestions) != 0 {
					t.Errorf("Suggest(%q) = %v, want none", tt.term, suggestions)
				}
				return
			}
			if len(suggestions) == 0 || suggestions[0].Term != tt.wantFirst {
				t.Errorf("Suggest(%q) = %v, want first %q", tt.term, suggestions, tt.wantFirst)
			}
		})
	}
}

func TestSpellChecker_Suggest_RanksByFrequency(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{"vepa": 2, "veda": 9}))

	suggestions := sc.Suggest("vexa")
	if len(suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(suggestions))
	}
	if suggestions[0].Term != "veda" {
		t.Errorf("first suggestion = %q, want veda", suggestions[0].Term)
	}
}

func TestSpellChecker_Suggest_RespectsMinFrequency(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{"neem": 1}), WithMinFrequency(2))
	if got := sc.Suggest("nem"); len(got) != 0 {
		t.Errorf("Suggest = %v, want none below min frequency", got)
	}
}

func TestSpellChecker_Transpositions(t *testing.T) {
	dict := newMockTermDictionary(map[string]int{"peepal": 1})

	plain := NewSpellChecker(dict, WithMaxDistance(1))
	if got := plain.Suggest("peepla"); len(got) != 0 {
		t.Errorf("Levenshtein should not accept a swap at distance 1, got %v", got)
	}

	swapped := NewSpellChecker(dict, WithMaxDistance(1), WithTranspositions())
	if got := swapped.Suggest("peepla"); len(got) != 1 || got[0].Distance != 1 {
		t.Errorf("Suggest with transpositions = %v, want peepal at distance 1", got)
	}
}

func TestSpellChecker_Check(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{"neem": 4, "tree": 7}))

	result, err := sc.Check("Neam tree")
	if err != nil {
		t.Fatal(err)
	}
	if !result.HasCorrections {
		t.Fatal("expected corrections")
	}
	if result.CorrectedQuery != "neem tree" {
		t.Errorf("CorrectedQuery = %q, want %q", result.CorrectedQuery, "neem tree")
	}
	if len(result.MisspelledTerms) != 1 || result.MisspelledTerms[0] != "neam" {
		t.Errorf("MisspelledTerms = %v", result.MisspelledTerms)
	}
	if len(result.Corrections) != 1 || result.Corrections[0] != "neem" {
		t.Errorf("Corrections = %v", result.Corrections)
	}

	result, err = sc.Check("tree")
	if err != nil {
		t.Fatal(err)
	}
	if result.HasCorrections || result.CorrectedQuery != "tree" {
		t.Errorf("Check(tree) = %+v, want no corrections", result)
	}
}

func TestSpellChecker_IsMisspelled(t *testing.T) {
	dict := newMockTermDictionary(map[string]int{"neem": 1})
	sc := NewSpellChecker(dict)

	if sc.IsMisspelled("NEEM") {
		t.Error("known term reported as misspelled")
	}
	if !sc.IsMisspelled("nem") {
		t.Error("unknown term should be misspelled")
	}

	dict.containsErr = errors.New("closed")
	if sc.IsMisspelled("nem") {
		t.Error("IsMisspelled should be false when the dictionary fails")
	}
}

func TestSpellChecker_DictionaryErrors(t *testing.T) {
	dict := newMockTermDictionary(map[string]int{"neem": 1})
	dict.getAllError = errors.New("boom")
	sc := NewSpellChecker(dict)

	if err := sc.RefreshCache(); err == nil {
		t.Error("expected RefreshCache error")
	}
	if _, err := sc.Check("neem"); err == nil {
		t.Error("expected Check error")
	}
	if got := sc.Suggest("nem"); got != nil {
		t.Errorf("Suggest = %v, want nil", got)
	}

	dict.getAllError = nil
	dict.getFreqError = errors.New("freq")
	if got := sc.Suggest("nem"); len(got) != 0 {
		t.Errorf("Suggest with frequency error = %v, want none", got)
	}
}
