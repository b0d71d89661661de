package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	lex := Default()

	assert.Equal(t, []string{"english", "telugu"}, lex.Languages())
	assert.True(t, lex.IsStopword("the"))
	assert.True(t, lex.IsStopword("గురించి"))
	assert.False(t, lex.IsStopword("jammi"))

	assert.True(t, lex.InScriptRange('జ'))
	assert.False(t, lex.InScriptRange('a'))
}

func TestExpand(t *testing.T) {
	lex := Default()

	forms := lex.Expand("jammi")
	assert.Contains(t, forms, "జమ్మి")
	assert.Contains(t, forms, "prosopis")

	forms = lex.Expand("జమ్మి")
	assert.Contains(t, forms, "jammi")

	// "indica" belongs to both neem and mango.
	forms = lex.Expand("indica")
	assert.Contains(t, forms, "neem")
	assert.Contains(t, forms, "mango")

	assert.Nil(t, lex.Expand("unknownword"))
}

func TestExpandSubstring(t *testing.T) {
	lex := Default()

	forms := lex.ExpandSubstring("old trees near the lake")
	assert.ElementsMatch(t, []string{"చెట్టు", "tree", "plant", "వృక్షం", "మొక్క"}, forms)

	assert.Empty(t, lex.ExpandSubstring("birds near the lake"))
}

func TestMediaRequested(t *testing.T) {
	lex := Default()

	assert.True(t, lex.MediaRequested("show me images from mumbai"))
	assert.True(t, lex.MediaRequested("జమ్మి ఫోటోలు"))
	assert.False(t, lex.MediaRequested("tell me about neem"))
}

func TestTopicalTerms(t *testing.T) {
	terms := Default().TopicalTerms()

	assert.Contains(t, terms, "jammi")
	assert.Contains(t, terms, "చెట్టు")
	assert.NotContains(t, terms, "mumbai")

	seen := make(map[string]bool)
	for _, term := range terms {
		assert.False(t, seen[term], "duplicate topical term %q", term)
		seen[term] = true
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "languages: [unterminated"},
		{"unnamed language", "languages:\n  - stopwords: [a]\n"},
		{"bad script range", "languages:\n  - name: x\n    script_ranges: [\"zz\"]\n"},
		{"inverted script range", "languages:\n  - name: x\n    script_ranges: [\"0C7F-0C00\"]\n"},
		{"unnamed concept", "concepts:\n  - forms: [a]\n"},
		{"concept without forms", "concepts:\n  - name: x\n    forms: [\" \"]\n"},
		{"unknown match mode", "concepts:\n  - name: x\n    match: regex\n    forms: [a]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_NormalizesForms(t *testing.T) {
	lex, err := Parse([]byte(`
languages:
  - name: english
    stopwords: [" The "]
concepts:
  - name: oak
    forms: [Oak, OAK, quercus]
media_request_terms: [Photo, photo]
`))
	require.NoError(t, err)

	assert.True(t, lex.IsStopword("the"))
	assert.Equal(t, []string{"oak", "quercus"}, lex.Expand("oak"))
	assert.Equal(t, []string{"photo"}, lex.MediaRequestTerms())
	assert.Equal(t, MatchToken, lex.Concepts()[0].Match)
}

func TestLive_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("concepts:\n  - name: oak\n    forms: [oak, quercus]\n"), 0644))

	live := NewLive(Default())
	require.NoError(t, live.Reload(path))
	assert.Equal(t, []string{"oak", "quercus"}, live.Get().Expand("oak"))

	require.NoError(t, os.WriteFile(path, []byte("concepts:\n  - name: \"\"\n"), 0644))
	assert.Error(t, live.Reload(path))
	assert.NotNil(t, live.Get().Expand("oak"), "previous lexicon stays active")

	live.Set(nil)
	assert.NotNil(t, live.Get())
}
