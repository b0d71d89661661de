package ranking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/lexicon"
	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/pkg/utils"
)

// combinedTextDisplayLen bounds ScoredResult.CombinedText.
const combinedTextDisplayLen = 200

// Scorer assigns an additive relevance score to every record for a keyword set.
type Scorer struct {
	config  *ScoringConfig
	lexicon *lexicon.Live
	logger  *zap.Logger
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithLogger sets the logger used to report records that fail to score.
func WithLogger(l *zap.Logger) ScorerOption {
	return func(s *Scorer) {
		s.logger = utils.OrNop(l)
	}
}

// NewScorer creates a Scorer. A nil config uses defaults; a nil lexicon holder uses
// the default lexicon for media-intent detection.
func NewScorer(config *ScoringConfig, lex *lexicon.Live, opts ...ScorerOption) *Scorer {
	if config == nil {
		config = DefaultScoringConfig()
	}
	config.ApplyDefaults()
	if lex == nil {
		lex = lexicon.NewLive(lexicon.Default())
	}

	s := &Scorer{
		config:  config,
		lexicon: lex,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the scoring configuration in use.
func (s *Scorer) Config() *ScoringConfig {
	return s.config
}

// Score returns a ScoredResult for every record with relevance > 0, in input order.
// query is the raw user query; it drives the media-intent bonus.
func (s *Scorer) Score(records []*models.Record, keywords KeywordSet, query string) []*models.ScoredResult {
	if len(records) == 0 || len(keywords) == 0 {
		return nil
	}

	mediaIntent := s.lexicon.Get().MediaRequested(strings.ToLower(query))

	results := make([]*models.ScoredResult, 0, len(records)/4+1)
	for _, rec := range records {
		res, err := s.scoreRecord(rec, keywords, mediaIntent)
		if err != nil {
			s.logger.Warn("skipping record that failed to score",
				zap.String("id", recordID(rec)),
				zap.Error(err))
			continue
		}
		if res != nil {
			results = append(results, res)
		}
	}
	return results
}

// scoreRecord returns nil for a record with zero relevance. A panic while scoring
// is turned into an error so one bad record cannot fail the query.
func (s *Scorer) scoreRecord(rec *models.Record, keywords KeywordSet, mediaIntent bool) (res *models.ScoredResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("panic while scoring: %v", r)
		}
	}()

	fields := rec.SearchableFields()
	values := make([]string, len(fields))
	lowered := make([]string, len(fields))
	for i, f := range fields {
		values[i] = f.Value
		lowered[i] = strings.ToLower(f.Value)
	}
	combined := strings.ToLower(strings.Join(values, " "))
	words := strings.Fields(combined)

	var (
		b        models.ScoreBreakdown
		matched  []string
		seen     = make(map[string]bool, len(fields))
		hitCount int
	)

	for _, kw := range keywords {
		if strings.Contains(combined, kw) {
			b.Substring += s.config.SubstringScore
			hitCount++
		}

		for i, f := range fields {
			if strings.Contains(lowered[i], kw) {
				b.Field += s.config.FieldMatchScore
				if !seen[f.Name] {
					seen[f.Name] = true
					matched = append(matched, f.Name)
				}
			}
		}

		kwLen := utf8.RuneCountInString(kw)
		if kwLen <= s.config.MinTokenMatchLen {
			continue
		}
		b.Token += s.tokenScore(kw, words)
		b.Fuzzy += s.fuzzyScore(kw, kwLen, words)
	}

	if hitCount > 1 {
		b.MultiTerm = s.config.MultiKeywordScore
	}
	if mediaIntent && rec.EntryType.IsMedia() {
		b.MediaBoost = s.config.MediaIntentScore
	}

	total := b.Total()
	if total <= 0 {
		return nil, nil
	}
	if matched == nil {
		matched = []string{}
	}

	return &models.ScoredResult{
		Record:        rec,
		Relevance:     total,
		MatchedFields: matched,
		CombinedText:  utils.Truncate(combined, combinedTextDisplayLen),
		Breakdown:     b,
	}, nil
}

// tokenScore awards an exact-word bonus or a partial bonus when either string
// contains the other.
func (s *Scorer) tokenScore(kw string, words []string) int {
	score := 0
	for _, w := range words {
		switch {
		case w == kw:
			score += s.config.ExactTokenScore
		case strings.Contains(w, kw) || strings.Contains(kw, w):
			score += s.config.PartialTokenScore
		}
	}
	return score
}

// fuzzyScore counts words sharing enough distinct runes with kw. It catches loose
// transliterations such as jammi/jammy.
func (s *Scorer) fuzzyScore(kw string, kwLen int, words []string) int {
	need := s.config.FuzzySharedRunes
	if kwLen-1 < need {
		need = kwLen - 1
	}
	kwRunes := runeSet(kw)

	score := 0
	for _, w := range words {
		if utf8.RuneCountInString(w) <= s.config.MinTokenMatchLen {
			continue
		}
		if sharedRunes(kwRunes, w) >= need {
			score += s.config.FuzzyTokenScore
		}
	}
	return score
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

func sharedRunes(set map[rune]struct{}, s string) int {
	seen := make(map[rune]struct{}, len(s))
	n := 0
	for _, r := range s {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		if _, ok := set[r]; ok {
			n++
		}
	}
	return n
}

func recordID(rec *models.Record) string {
	if rec == nil {
		return ""
	}
	return rec.ID
}
