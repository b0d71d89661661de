package keyword

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/pkg/utils"
)

// Suggester proposes record terms close to query tokens. Its dictionary is rebuilt
// lazily whenever it is asked about a newer snapshot version.
type Suggester struct {
	mu      sync.Mutex
	dict    *RecordDictionary
	checker *SpellChecker
	version uint64
	built   bool
	max     int
	logger  *zap.Logger
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithSuggesterLogger sets the logger used to report rebuild failures.
func WithSuggesterLogger(l *zap.Logger) SuggesterOption {
	return func(s *Suggester) {
		s.logger = utils.OrNop(l)
	}
}

// WithMaxTerms caps how many suggested terms are returned per query.
func WithMaxTerms(n int) SuggesterOption {
	return func(s *Suggester) {
		if n > 0 {
			s.max = n
		}
	}
}

// NewSuggester creates a Suggester. Spell checker options tune edit distance and
// frequency thresholds.
func NewSuggester(opts []SuggesterOption, checkerOpts ...SpellCheckerOption) *Suggester {
	dict := NewRecordDictionary()
	s := &Suggester{
		dict:    dict,
		checker: NewSpellChecker(dict, append([]SpellCheckerOption{WithTranspositions()}, checkerOpts...)...),
		max:     3,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest returns up to the configured number of dictionary terms for tokens that
// do not appear in any record, and the tokens rejoined with each misspelled one
// replaced by its best correction. version identifies the record snapshot; version
// 0 means there is no usable snapshot and yields nothing.
func (s *Suggester) Suggest(records []*models.Record, version uint64, tokens []string) ([]string, string) {
	if version == 0 || len(tokens) == 0 {
		return nil, ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.built || s.version != version {
		if err := s.dict.Rebuild(records); err != nil {
			s.logger.Warn("failed to rebuild term dictionary", zap.Uint64("version", version), zap.Error(err))
			return nil, ""
		}
		if err := s.checker.RefreshCache(); err != nil {
			s.logger.Warn("failed to refresh spell checker", zap.Error(err))
			return nil, ""
		}
		s.version = version
		s.built = true
		s.logger.Debug("term dictionary rebuilt",
			zap.Uint64("version", version),
			zap.Uint64("records", s.dict.DocCount()))
	}

	result, err := s.checker.Check(strings.Join(tokens, " "))
	if err != nil {
		s.logger.Warn("spell check failed", zap.Error(err))
		return nil, ""
	}
	if !result.HasCorrections {
		return nil, ""
	}

	seen := make(map[string]bool)
	var terms []string
	for _, term := range result.Corrections {
		if seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
		if len(terms) >= s.max {
			break
		}
	}
	return terms, result.CorrectedQuery
}

// Close releases the dictionary.
func (s *Suggester) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dict.Close()
}
