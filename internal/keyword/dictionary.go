// Package keyword builds a term dictionary over the record snapshot and offers
// did-you-mean suggestions for queries that match nothing.
package keyword

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hyperjump/florafind/internal/models"
)

const textField = "text"

// TermDictionary provides access to the term dictionary for spell checking.
type TermDictionary interface {
	// GetAllTerms returns all unique terms.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the document frequency for a term.
	GetTermFrequency(term string) (int, error)
	// ContainsTerm checks if a term exists.
	ContainsTerm(term string) (bool, error)
}

// RecordDictionary is an in-memory Bleve index over the searchable text of every
// record. Only its term dictionary is used.
type RecordDictionary struct {
	mu       sync.RWMutex
	index    bleve.Index
	terms    map[string]int
	ordered  []string
	docCount uint64
}

// NewRecordDictionary returns an empty dictionary.
func NewRecordDictionary() *RecordDictionary {
	return &RecordDictionary{terms: make(map[string]int)}
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer lowercases and splits on Unicode word boundaries without
	// stemming, so Telugu words stay whole.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	textFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(textField, textFieldMapping)

	im.AddDocumentMapping("record", docMapping)
	im.DefaultType = "record"
	im.DefaultMapping = docMapping
	return im
}

// Rebuild replaces the dictionary contents with the terms of records.
func (d *RecordDictionary) Rebuild(records []*models.Record) error {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return fmt.Errorf("failed to create Bleve index: %w", err)
	}

	batch := index.NewBatch()
	for _, rec := range records {
		if rec == nil {
			continue
		}
		fields := rec.SearchableFields()
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i] = f.Value
		}
		if err := batch.Index(rec.ID, map[string]interface{}{textField: strings.Join(values, " ")}); err != nil {
			_ = index.Close()
			return fmt.Errorf("failed to index record %s: %w", rec.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("failed to index records: %w", err)
	}

	terms, err := readTerms(index)
	if err != nil {
		_ = index.Close()
		return err
	}
	ordered := make([]string, 0, len(terms))
	for t := range terms {
		ordered = append(ordered, t)
	}
	sort.Strings(ordered)

	count, err := index.DocCount()
	if err != nil {
		_ = index.Close()
		return fmt.Errorf("failed to count documents: %w", err)
	}

	d.mu.Lock()
	old := d.index
	d.index = index
	d.terms = terms
	d.ordered = ordered
	d.docCount = count
	d.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

func readTerms(index bleve.Index) (map[string]int, error) {
	dict, err := index.FieldDict(textField)
	if err != nil {
		return nil, fmt.Errorf("failed to read term dictionary: %w", err)
	}
	defer dict.Close()

	terms := make(map[string]int)
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read term dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		terms[entry.Term] = int(entry.Count)
	}
	return terms, nil
}

// GetAllTerms returns every term in the dictionary, sorted.
func (d *RecordDictionary) GetAllTerms() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.ordered...), nil
}

// GetTermFrequency returns how many records contain term.
func (d *RecordDictionary) GetTermFrequency(term string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.terms[strings.ToLower(term)], nil
}

// ContainsTerm reports whether any record contains term.
func (d *RecordDictionary) ContainsTerm(term string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.terms[strings.ToLower(term)]
	return ok, nil
}

// DocCount returns the number of records indexed by the last Rebuild.
func (d *RecordDictionary) DocCount() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.docCount
}

// Close releases the underlying index.
func (d *RecordDictionary) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.index == nil {
		return nil
	}
	err := d.index.Close()
	d.index = nil
	return err
}
