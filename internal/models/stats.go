package models

import "time"

// Statistics summarizes the record store.
type Statistics struct {
	Total        int64               `json:"total"`
	CountsByType map[EntryType]int64 `json:"counts_by_type"`
	// DBSizeBytes is the on-disk size of the store when known, 0 otherwise.
	DBSizeBytes int64 `json:"db_size_bytes"`
}

// ConversationEntry is one query in the bounded conversation log.
type ConversationEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Query        string    `json:"query"`
	KeywordCount int       `json:"keyword_count"`
	ResultsFound int       `json:"results_found"`
	MediaCount   int       `json:"media_count"`
}
