package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/florafind/internal/config"
	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/internal/ranking"
	"github.com/hyperjump/florafind/pkg/utils"
)

// Fixed responses.
const (
	PromptMessage   = "Please ask me a question about the flora and fauna data!"
	NoDataMessage   = "No data available in the database."
	NoDetailMessage = "I found records, but no detailed information is available for your query."
)

// queryTokenMinLen is the rune length a query token must exceed to count toward
// best-match selection and media relevance.
const queryTokenMinLen = 2

// notFoundMessage builds the response for a query that matched no record.
func notFoundMessage(query string, suggestions []string, corrected string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't find any information about '%s' in our database.\n\n", query)
	b.WriteString("Suggestions:\n")
	b.WriteString("- Try using simpler keywords (e.g. 'jammi', 'tree', 'plant')\n")
	b.WriteString("- Ask about specific locations, species, or data types\n")
	b.WriteString("- Try English keywords if you used Telugu, or vice versa")
	if len(suggestions) > 0 {
		fmt.Fprintf(&b, "\n- Did you mean: %s?", strings.Join(suggestions, ", "))
	}
	if corrected != "" {
		fmt.Fprintf(&b, "\n- Try searching for '%s'", corrected)
	}
	return b.String()
}

// Composer turns ranked results into a text answer and a list of media references.
type Composer struct {
	extractor      *ranking.Extractor
	maxResponseLen int
	maxMediaDesc   int
	mediaTopN      int
}

// NewComposer creates a Composer. Query tokens and topical terms come from the
// extractor's current lexicon.
func NewComposer(extractor *ranking.Extractor, cfg *config.SearchConfig) *Composer {
	if extractor == nil {
		extractor = ranking.NewExtractor(nil)
	}
	if cfg == nil {
		cfg = config.DefaultSearchConfig()
	} else {
		copied := *cfg
		copied.ApplyDefaults()
		cfg = &copied
	}
	return &Composer{
		extractor:      extractor,
		maxResponseLen: cfg.MaxResponseLength,
		maxMediaDesc:   cfg.MediaDescriptionLength,
		mediaTopN:      cfg.MediaTopResults,
	}
}

// Compose builds the response for query from results.
func (c *Composer) Compose(query string, results *models.SearchResults) *models.QueryResponse {
	if results == nil || results.TotalItems == 0 {
		return &models.QueryResponse{TextResponse: NoDataMessage, MediaFiles: []*models.MediaReference{}}
	}
	ranked := usable(results.Results)
	if results.FoundItems == 0 || len(ranked) == 0 {
		return &models.QueryResponse{
			TextResponse: notFoundMessage(query, results.Suggestions, results.CorrectedQuery),
			MediaFiles:   []*models.MediaReference{},
		}
	}

	tokens := c.extractor.Tokens(query, queryTokenMinLen)

	return &models.QueryResponse{
		TextResponse: c.text(ranked, bestMatch(ranked, tokens)),
		MediaFiles:   c.media(ranked, tokens),
	}
}

// usable drops results with no record so one bad entry cannot fail the response.
func usable(results []*models.ScoredResult) []*models.ScoredResult {
	out := make([]*models.ScoredResult, 0, len(results))
	for _, res := range results {
		if res != nil && res.Record != nil {
			out = append(out, res)
		}
	}
	return out
}

// bestMatch returns the ranked result whose title, description and content cover
// the most query-token runes. Ties keep the higher ranked result.
func bestMatch(ranked []*models.ScoredResult, tokens []string) *models.ScoredResult {
	best, bestScore := ranked[0], 0
	for _, res := range ranked {
		if score := matchScore(res.Record, tokens); score > bestScore {
			best, bestScore = res, score
		}
	}
	return best
}

// matchScore scores a panicking record as zero.
func matchScore(rec *models.Record, tokens []string) (score int) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
		}
	}()
	text := strings.ToLower(rec.Title + " " + models.Deref(rec.Description) + " " + models.Deref(rec.Content))
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			score += utils.RuneLen(tok)
		}
	}
	return score
}

func (c *Composer) text(ranked []*models.ScoredResult, best *models.ScoredResult) string {
	var parts []string
	desc := strings.TrimSpace(models.Deref(best.Record.Description))
	content := strings.TrimSpace(models.Deref(best.Record.Content))
	if desc != "" {
		parts = append(parts, desc)
	}
	if content != "" && content != desc {
		parts = append(parts, content)
	}

	if len(parts) == 0 {
		for _, res := range ranked[:min(2, len(ranked))] {
			if d := strings.TrimSpace(models.Deref(res.Record.Description)); d != "" {
				parts = append(parts, d)
				break
			}
			if ct := strings.TrimSpace(models.Deref(res.Record.Content)); ct != "" {
				parts = append(parts, ct)
				break
			}
		}
	}

	if len(parts) == 0 {
		return NoDetailMessage
	}
	return utils.Truncate(strings.Join(parts, "\n\n"), c.maxResponseLen)
}

func (c *Composer) media(ranked []*models.ScoredResult, tokens []string) []*models.MediaReference {
	topical := c.extractor.Lexicon().TopicalTerms()
	media := make([]*models.MediaReference, 0)

	for i, res := range ranked {
		if ref := c.mediaRef(i, res, tokens, topical); ref != nil {
			media = append(media, ref)
		}
	}

	sort.SliceStable(media, func(i, j int) bool {
		return media[i].Relevance > media[j].Relevance
	})
	return media
}

// mediaRef returns the media reference for the result at rank i, or nil when it
// has none, is not relevant enough, or panics while being built.
func (c *Composer) mediaRef(i int, res *models.ScoredResult, tokens, topical []string) (ref *models.MediaReference) {
	defer func() {
		if r := recover(); r != nil {
			ref = nil
		}
	}()
	rec := res.Record
	url := rec.MediaURL()
	if url == "" || !rec.EntryType.IsMedia() {
		return nil
	}
	desc := models.Deref(rec.Description)
	if i >= c.mediaTopN && !mentionsAny(strings.ToLower(rec.Title+" "+desc), tokens, topical) {
		return nil
	}
	return &models.MediaReference{
		Type:        rec.EntryType,
		URL:         url,
		Title:       rec.Title,
		Description: utils.Truncate(desc, c.maxMediaDesc),
		Relevance:   res.Relevance,
	}
}

func mentionsAny(text string, lists ...[]string) bool {
	for _, terms := range lists {
		for _, term := range terms {
			if term != "" && strings.Contains(text, term) {
				return true
			}
		}
	}
	return false
}
