// Package cli provides CLI output helpers for florafind.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json", case-insensitively.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

const rule = "─────────────────────────────────────────────────────────"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteQueryResponse writes an answer and its media references.
func WriteQueryResponse(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%s\n", resp.TextResponse)
	if len(resp.MediaFiles) == 0 {
		fmt.Fprintln(w)
		return nil
	}
	fmt.Fprintf(w, "\nMedia (%d):\n", len(resp.MediaFiles))
	for _, m := range resp.MediaFiles {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "[%s] %s (relevance %d)\n", m.Type, m.Title, m.Relevance)
		fmt.Fprintf(w, "URL: %s\n", m.URL)
		if m.Description != "" {
			fmt.Fprintf(w, "%s\n", m.Description)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteSearchResults writes ranked results with their score breakdowns.
func WriteSearchResults(w io.Writer, results *models.SearchResults, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	fmt.Fprintf(w, "\n%s\n", results.Message)
	if len(results.Keywords) > 0 {
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(results.Keywords, ", "))
	}
	if len(results.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(results.Suggestions, ", "))
	}
	if results.CorrectedQuery != "" {
		fmt.Fprintf(w, "Corrected query: %s\n", results.CorrectedQuery)
	}
	fmt.Fprintln(w)
	for i, r := range results.Results {
		writeOneResult(w, i+1, r)
	}
	return nil
}

func writeOneResult(w io.Writer, rank int, r *models.ScoredResult) {
	b := r.Breakdown
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Rank: %d | Relevance: %d (substring %d, field %d, token %d, fuzzy %d, multi %d, media %d)\n",
		rank, r.Relevance, b.Substring, b.Field, b.Token, b.Fuzzy, b.MultiTerm, b.MediaBoost)
	fmt.Fprintf(w, "ID: %s [%s]\n", r.Record.ID, r.Record.EntryType)
	fmt.Fprintf(w, "Title: %s\n", r.Record.Title)
	fmt.Fprintf(w, "Location: %s\n", r.Record.Location())
	if tags := r.Record.TagList(); len(tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(tags, ", "))
	}
	if len(r.MatchedFields) > 0 {
		fmt.Fprintf(w, "Matched: %s\n", strings.Join(r.MatchedFields, ", "))
	}
	if desc := models.Deref(r.Record.Description); desc != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(desc, 200))
	}
	fmt.Fprintln(w)
}

// WriteStatistics writes the record store summary.
func WriteStatistics(w io.Writer, stats *models.Statistics, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "Total records: %d\n", stats.Total)
	types := make([]string, 0, len(stats.CountsByType))
	for t := range stats.CountsByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-6s %d\n", t, stats.CountsByType[models.EntryType(t)])
	}
	if stats.DBSizeBytes > 0 {
		fmt.Fprintf(w, "Database size: %s\n", FormatBytes(stats.DBSizeBytes))
	}
	return nil
}

// WriteHistory writes conversation log entries, oldest first.
func WriteHistory(w io.Writer, entries []models.ConversationEntry, format OutputFormat) error {
	if format == OutputJSON {
		if entries == nil {
			entries = []models.ConversationEntry{}
		}
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No queries yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-30s keywords=%d found=%d media=%d\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), TruncateWords(e.Query, 6),
			e.KeywordCount, e.ResultsFound, e.MediaCount)
	}
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
