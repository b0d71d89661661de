package models

// ScoreBreakdown records how each bonus contributed to a record's relevance.
type ScoreBreakdown struct {
	Substring  int `json:"substring"`
	Field      int `json:"field"`
	Token      int `json:"token"`
	Fuzzy      int `json:"fuzzy"`
	MultiTerm  int `json:"multi_term"`
	MediaBoost int `json:"media_boost"`
}

// Total returns the sum of all contributions.
func (b ScoreBreakdown) Total() int {
	return b.Substring + b.Field + b.Token + b.Fuzzy + b.MultiTerm + b.MediaBoost
}

// ScoredResult is a record with its derived relevance. Relevance is never stored.
type ScoredResult struct {
	Record        *Record        `json:"record"`
	Relevance     int            `json:"relevance"`
	MatchedFields []string       `json:"matched_fields"`
	CombinedText  string         `json:"combined_text"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
}

// SearchResults is the scorer and ranker output for one query.
type SearchResults struct {
	// FoundItems counts every record with relevance > 0, before truncation.
	FoundItems int `json:"found_items"`
	// TotalItems is the size of the record snapshot that was searched.
	TotalItems int             `json:"total_items"`
	Results    []*ScoredResult `json:"results"`
	Keywords   []string        `json:"keywords_used"`
	Message    string          `json:"message"`
	// Suggestions are dictionary terms close to query tokens, set only when nothing matched.
	Suggestions []string `json:"suggestions,omitempty"`
	// CorrectedQuery is the query keywords with each misspelled one replaced by
	// its best suggestion, set alongside Suggestions.
	CorrectedQuery string `json:"corrected_query,omitempty"`
}

// MediaReference points at a media file surfaced alongside a text response.
type MediaReference struct {
	Type        EntryType `json:"type"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Relevance   int       `json:"relevance"`
}

// QueryResponse is the answer to a free-text query.
type QueryResponse struct {
	TextResponse string            `json:"text_response"`
	MediaFiles   []*MediaReference `json:"media_files"`
}
