// Package lexicon loads the stopword sets and the bilingual synonym table used for
// keyword extraction. The lexicon is data: new languages and concepts are YAML edits.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// MatchMode controls how a concept is triggered by a query.
type MatchMode string

const (
	// MatchToken triggers when a query token equals one of the forms.
	MatchToken MatchMode = "token"
	// MatchSubstring triggers when the normalized query contains one of the forms.
	MatchSubstring MatchMode = "substring"
)

// File is the on-disk YAML shape of a lexicon.
type File struct {
	Languages         []LanguageSpec `yaml:"languages"`
	Concepts          []ConceptSpec  `yaml:"concepts"`
	MediaRequestTerms []string       `yaml:"media_request_terms"`
}

// LanguageSpec declares a language's stopwords and the script ranges that must
// survive query normalization.
type LanguageSpec struct {
	Name         string   `yaml:"name"`
	Stopwords    []string `yaml:"stopwords"`
	ScriptRanges []string `yaml:"script_ranges"`
}

// ConceptSpec maps one concept to its surface forms across languages.
type ConceptSpec struct {
	Name    string    `yaml:"name"`
	Kind    string    `yaml:"kind"`
	Topical bool      `yaml:"topical"`
	Match   MatchMode `yaml:"match"`
	Forms   []string  `yaml:"forms"`
}

// RuneRange is an inclusive range of code points.
type RuneRange struct {
	Lo, Hi rune
}

// Contains reports whether r lies in the range.
func (rr RuneRange) Contains(r rune) bool {
	return r >= rr.Lo && r <= rr.Hi
}

// Concept is a compiled concept with lowercased, deduplicated forms.
type Concept struct {
	Name    string
	Kind    string
	Topical bool
	Match   MatchMode
	Forms   []string
}

// Lexicon is the compiled, read-only form of a File. It is safe for concurrent use.
type Lexicon struct {
	languages  []string
	stopwords  map[string]struct{}
	ranges     []RuneRange
	concepts   []Concept
	byForm     map[string][]int
	substring  []int
	mediaTerms []string
	topical    []string
}

// Default returns the embedded English/Telugu lexicon.
func Default() *Lexicon {
	lex, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded default is invalid: %v", err))
	}
	return lex
}

// Load reads and compiles the lexicon file at path.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Parse compiles lexicon YAML.
func Parse(data []byte) (*Lexicon, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	return Compile(&f)
}

// Compile validates f and builds the lookup tables.
func Compile(f *File) (*Lexicon, error) {
	lex := &Lexicon{
		stopwords: make(map[string]struct{}),
		byForm:    make(map[string][]int),
	}

	for _, lang := range f.Languages {
		if lang.Name == "" {
			return nil, fmt.Errorf("language without a name")
		}
		lex.languages = append(lex.languages, lang.Name)
		for _, w := range lang.Stopwords {
			if w = normalizeForm(w); w != "" {
				lex.stopwords[w] = struct{}{}
			}
		}
		for _, spec := range lang.ScriptRanges {
			rr, err := parseRuneRange(spec)
			if err != nil {
				return nil, fmt.Errorf("language %s: %w", lang.Name, err)
			}
			lex.ranges = append(lex.ranges, rr)
		}
	}

	topicalSeen := make(map[string]struct{})
	for _, spec := range f.Concepts {
		if spec.Name == "" {
			return nil, fmt.Errorf("concept without a name")
		}
		mode := spec.Match
		switch mode {
		case "":
			mode = MatchToken
		case MatchToken, MatchSubstring:
		default:
			return nil, fmt.Errorf("concept %s: unknown match mode %q", spec.Name, spec.Match)
		}
		forms := dedupe(spec.Forms)
		if len(forms) == 0 {
			return nil, fmt.Errorf("concept %s has no forms", spec.Name)
		}
		idx := len(lex.concepts)
		lex.concepts = append(lex.concepts, Concept{
			Name:    spec.Name,
			Kind:    spec.Kind,
			Topical: spec.Topical,
			Match:   mode,
			Forms:   forms,
		})
		if mode == MatchSubstring {
			lex.substring = append(lex.substring, idx)
		}
		// Substring concepts are also reachable by exact token.
		for _, form := range forms {
			lex.byForm[form] = append(lex.byForm[form], idx)
		}
		if spec.Topical {
			for _, form := range forms {
				if _, ok := topicalSeen[form]; !ok {
					topicalSeen[form] = struct{}{}
					lex.topical = append(lex.topical, form)
				}
			}
		}
	}

	lex.mediaTerms = dedupe(f.MediaRequestTerms)
	return lex, nil
}

func parseRuneRange(spec string) (RuneRange, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return RuneRange{}, fmt.Errorf("script range %q: want LO-HI in hex", spec)
	}
	l, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(lo), "U+"), 16, 32)
	if err != nil {
		return RuneRange{}, fmt.Errorf("script range %q: %w", spec, err)
	}
	h, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(hi), "U+"), 16, 32)
	if err != nil {
		return RuneRange{}, fmt.Errorf("script range %q: %w", spec, err)
	}
	if h < l {
		return RuneRange{}, fmt.Errorf("script range %q: high below low", spec)
	}
	return RuneRange{Lo: rune(l), Hi: rune(h)}, nil
}

func normalizeForm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = normalizeForm(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Languages returns the declared language names in file order.
func (l *Lexicon) Languages() []string {
	return append([]string(nil), l.languages...)
}

// IsStopword reports whether w (already lowercased) is a stopword in any language.
func (l *Lexicon) IsStopword(w string) bool {
	_, ok := l.stopwords[w]
	return ok
}

// InScriptRange reports whether r falls in a declared script range.
func (l *Lexicon) InScriptRange(r rune) bool {
	for _, rr := range l.ranges {
		if rr.Contains(r) {
			return true
		}
	}
	return false
}

// Expand returns the forms of every concept that has token as a form, or nil.
func (l *Lexicon) Expand(token string) []string {
	idxs := l.byForm[token]
	if len(idxs) == 0 {
		return nil
	}
	var out []string
	for _, i := range idxs {
		out = append(out, l.concepts[i].Forms...)
	}
	return out
}

// ExpandSubstring returns the forms of every substring concept with a form
// occurring in normalized.
func (l *Lexicon) ExpandSubstring(normalized string) []string {
	var out []string
	for _, i := range l.substring {
		c := l.concepts[i]
		for _, form := range c.Forms {
			if strings.Contains(normalized, form) {
				out = append(out, c.Forms...)
				break
			}
		}
	}
	return out
}

// MediaRequested reports whether the lowercased query asks for media.
func (l *Lexicon) MediaRequested(queryLower string) bool {
	for _, term := range l.mediaTerms {
		if strings.Contains(queryLower, term) {
			return true
		}
	}
	return false
}

// MediaRequestTerms returns a copy of the media request terms.
func (l *Lexicon) MediaRequestTerms() []string {
	return append([]string(nil), l.mediaTerms...)
}

// TopicalTerms returns the forms of all topical concepts, in file order.
func (l *Lexicon) TopicalTerms() []string {
	return append([]string(nil), l.topical...)
}

// Concepts returns a copy of the compiled concepts.
func (l *Lexicon) Concepts() []Concept {
	out := make([]Concept, len(l.concepts))
	for i, c := range l.concepts {
		c.Forms = append([]string(nil), c.Forms...)
		out[i] = c
	}
	return out
}

// Stopwords returns the union of all stopwords, sorted.
func (l *Lexicon) Stopwords() []string {
	out := make([]string, 0, len(l.stopwords))
	for w := range l.stopwords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Live holds the current lexicon and lets it be replaced while queries run.
type Live struct {
	current atomic.Pointer[Lexicon]
}

// NewLive returns a Live holding lex.
func NewLive(lex *Lexicon) *Live {
	l := &Live{}
	l.current.Store(lex)
	return l
}

// Get returns the current lexicon.
func (l *Live) Get() *Lexicon {
	return l.current.Load()
}

// Set replaces the current lexicon. A nil lexicon is ignored.
func (l *Live) Set(lex *Lexicon) {
	if lex != nil {
		l.current.Store(lex)
	}
}

// Reload loads path and swaps it in. The previous lexicon stays active on error.
func (l *Live) Reload(path string) error {
	lex, err := Load(path)
	if err != nil {
		return err
	}
	l.Set(lex)
	return nil
}
