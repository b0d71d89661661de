package ranking

// ScoringConfig holds the additive bonuses used by the scorer and the ranker limit.
type ScoringConfig struct {
	// Per-keyword bonuses
	SubstringScore    int `yaml:"substring_score"`     // default: 5
	FieldMatchScore   int `yaml:"field_match_score"`   // default: 2, per matching field
	ExactTokenScore   int `yaml:"exact_token_score"`   // default: 4
	PartialTokenScore int `yaml:"partial_token_score"` // default: 1
	FuzzyTokenScore   int `yaml:"fuzzy_token_score"`   // default: 1

	// Token-level matching applies only to keywords longer than this many runes.
	MinTokenMatchLen int `yaml:"min_token_match_len"` // default: 2
	// Shared distinct runes required for a fuzzy match, capped by len(keyword)-1.
	FuzzySharedRunes int `yaml:"fuzzy_shared_runes"` // default: 3

	// Per-record bonuses
	MultiKeywordScore int `yaml:"multi_keyword_score"` // default: 2
	MediaIntentScore  int `yaml:"media_intent_score"`  // default: 10

	// Ranked results returned per query
	ResultLimit int `yaml:"result_limit"` // default: 10
}

// DefaultScoringConfig returns the default scoring configuration.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		SubstringScore:    5,
		FieldMatchScore:   2,
		ExactTokenScore:   4,
		PartialTokenScore: 1,
		FuzzyTokenScore:   1,

		MinTokenMatchLen: 2,
		FuzzySharedRunes: 3,

		MultiKeywordScore: 2,
		MediaIntentScore:  10,

		ResultLimit: 10,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *ScoringConfig) ApplyDefaults() {
	defaults := DefaultScoringConfig()

	if c.SubstringScore == 0 {
		c.SubstringScore = defaults.SubstringScore
	}
	if c.FieldMatchScore == 0 {
		c.FieldMatchScore = defaults.FieldMatchScore
	}
	if c.ExactTokenScore == 0 {
		c.ExactTokenScore = defaults.ExactTokenScore
	}
	if c.PartialTokenScore == 0 {
		c.PartialTokenScore = defaults.PartialTokenScore
	}
	if c.FuzzyTokenScore == 0 {
		c.FuzzyTokenScore = defaults.FuzzyTokenScore
	}

	if c.MinTokenMatchLen == 0 {
		c.MinTokenMatchLen = defaults.MinTokenMatchLen
	}
	if c.FuzzySharedRunes == 0 {
		c.FuzzySharedRunes = defaults.FuzzySharedRunes
	}

	if c.MultiKeywordScore == 0 {
		c.MultiKeywordScore = defaults.MultiKeywordScore
	}
	if c.MediaIntentScore == 0 {
		c.MediaIntentScore = defaults.MediaIntentScore
	}

	if c.ResultLimit <= 0 {
		c.ResultLimit = defaults.ResultLimit
	}
}
