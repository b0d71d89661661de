// Package search answers free-text questions about the record corpus: it scores and
// ranks a cached record snapshot, composes a text answer with media references, and
// keeps a bounded conversation log.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/config"
	"github.com/hyperjump/florafind/internal/lexicon"
	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/internal/ranking"
	"github.com/hyperjump/florafind/internal/storage"
	"github.com/hyperjump/florafind/pkg/utils"
)

// Query outcomes passed to an Observer.
const (
	OutcomePrompt   = "prompt"
	OutcomeNoData   = "no_data"
	OutcomeNotFound = "not_found"
	OutcomeAnswered = "answered"
)

// ErrNoSource is returned by Statistics when the engine has no record source.
var ErrNoSource = errors.New("no record source configured")

// Suggester proposes known terms for query tokens that matched nothing, and the
// tokens rewritten with those terms.
type Suggester interface {
	Suggest(records []*models.Record, version uint64, tokens []string) (terms []string, corrected string)
}

// Observer is notified after every processed query.
type Observer interface {
	ObserveQuery(outcome string, found, media int, elapsed time.Duration)
}

// Engine runs keyword search over the cached record snapshot.
type Engine struct {
	cache     *storage.RecordCache
	source    storage.RecordSource
	config    *config.SearchConfig
	lexicon   *lexicon.Live
	extractor *ranking.Extractor
	scorer    *ranking.Scorer
	ranker    *ranking.Ranker
	composer  *Composer
	history   *ConversationLog
	suggester Suggester
	observer  Observer
	clock     utils.Clock
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLexicon sets the lexicon holder shared with the watcher.
func WithLexicon(lex *lexicon.Live) Option {
	return func(e *Engine) {
		if lex != nil {
			e.lexicon = lex
		}
	}
}

// WithSuggester enables did-you-mean suggestions on queries that match nothing.
func WithSuggester(s Suggester) Option {
	return func(e *Engine) {
		e.suggester = s
	}
}

// WithObserver registers o to be notified after every query.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithHistory sets the conversation log.
func WithHistory(h *ConversationLog) Option {
	return func(e *Engine) {
		if h != nil {
			e.history = h
		}
	}
}

// WithClock sets the clock used to timestamp conversation entries.
func WithClock(c utils.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = utils.OrNop(l)
	}
}

// NewEngine creates a search engine over cache. source serves statistics; when cache
// is nil a default cache over source is created. Zero fields of cfg take their
// defaults; cfg itself is not modified.
func NewEngine(cache *storage.RecordCache, source storage.RecordSource, cfg *config.SearchConfig, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultSearchConfig()
	} else {
		copied := *cfg
		copied.ApplyDefaults()
		cfg = &copied
	}
	if cache == nil {
		cache = storage.NewRecordCache(source)
	}
	e := &Engine{
		cache:   cache,
		source:  source,
		config:  cfg,
		history: NewConversationLog(0, 0),
		clock:   utils.SystemClock{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.lexicon == nil {
		e.lexicon = lexicon.NewLive(lexicon.Default())
	}

	scoring := cfg.Scoring
	e.extractor = ranking.NewExtractor(e.lexicon)
	e.scorer = ranking.NewScorer(&scoring, e.lexicon, ranking.WithLogger(e.logger))
	e.ranker = ranking.NewRanker(scoring.ResultLimit)
	e.composer = NewComposer(e.extractor, cfg)
	return e
}

// ProcessQuery answers text. It never fails: every failure degrades to one of the
// fixed responses.
func (e *Engine) ProcessQuery(ctx context.Context, text string) *models.QueryResponse {
	start := time.Now()
	query := strings.TrimSpace(text)
	if utils.RuneLen(query) < e.config.MinQueryLength {
		e.observe(OutcomePrompt, 0, 0, start)
		return &models.QueryResponse{TextResponse: PromptMessage, MediaFiles: []*models.MediaReference{}}
	}

	results := e.Search(ctx, query)
	resp := e.composer.Compose(query, results)

	e.history.Append(models.ConversationEntry{
		Timestamp:    e.clock.Now().UTC(),
		Query:        text,
		KeywordCount: len(results.Keywords),
		ResultsFound: results.FoundItems,
		MediaCount:   len(resp.MediaFiles),
	})

	outcome := OutcomeAnswered
	switch {
	case results.TotalItems == 0:
		outcome = OutcomeNoData
	case results.FoundItems == 0:
		outcome = OutcomeNotFound
	}
	e.observe(outcome, results.FoundItems, len(resp.MediaFiles), start)

	e.logger.Debug("query processed",
		zap.String("query", query),
		zap.String("outcome", outcome),
		zap.Int("keywords", len(results.Keywords)),
		zap.Int("found", results.FoundItems),
		zap.Int("media", len(resp.MediaFiles)),
		zap.Duration("elapsed", time.Since(start)))
	return resp
}

// Search scores and ranks the current snapshot against query.
func (e *Engine) Search(ctx context.Context, query string) *models.SearchResults {
	snap := e.cache.Snapshot(ctx)
	keywords := e.extractor.ExtractKeywords(query)

	results := &models.SearchResults{
		TotalItems: snap.Len(),
		Keywords:   keywords.Strings(),
		Results:    []*models.ScoredResult{},
	}
	if snap.Len() == 0 {
		results.Message = NoDataMessage
		return results
	}

	scored := e.scorer.Score(snap.Records, keywords, query)
	results.FoundItems = len(scored)
	results.Results = e.ranker.Rank(scored)
	results.Message = fmt.Sprintf("Found %d relevant items from %d total records.", results.FoundItems, results.TotalItems)

	if results.FoundItems == 0 && e.suggester != nil {
		results.Suggestions, results.CorrectedQuery = e.suggester.Suggest(
			snap.Records, snap.Version, e.extractor.Tokens(query, queryTokenMinLen))
	}
	return results
}

// Statistics returns record counts from the source.
func (e *Engine) Statistics(ctx context.Context) (*models.Statistics, error) {
	if e.source == nil {
		return nil, ErrNoSource
	}
	stats, err := e.source.GetStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return stats, nil
}

// History returns the conversation log, oldest first.
func (e *Engine) History() []models.ConversationEntry {
	return e.history.Entries()
}

// ClearHistory drops every logged exchange.
func (e *Engine) ClearHistory() {
	e.history.Clear()
}

// Lexicon returns the lexicon holder used for extraction and scoring.
func (e *Engine) Lexicon() *lexicon.Live {
	return e.lexicon
}

// Invalidate drops the cached snapshot, typically after a write to the store.
func (e *Engine) Invalidate() {
	e.cache.Invalidate()
}

func (e *Engine) observe(outcome string, found, media int, start time.Time) {
	if e.observer != nil {
		e.observer.ObserveQuery(outcome, found, media, time.Since(start))
	}
}
