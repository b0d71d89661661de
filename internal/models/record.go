// Package models defines core data structures for records, scored results, and query responses.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidRecord is returned when a record fails boundary validation.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrRecordNotFound is returned when a record id does not exist in the store.
	ErrRecordNotFound = errors.New("record not found")
)

// EntryType is the kind of media a record holds.
type EntryType string

const (
	EntryTypeText  EntryType = "text"
	EntryTypeAudio EntryType = "audio"
	EntryTypeVideo EntryType = "video"
	EntryTypeImage EntryType = "image"
)

// ParseEntryType normalizes s into an EntryType. The plural "images" used by
// older upload forms is accepted as image.
func ParseEntryType(s string) (EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return EntryTypeText, nil
	case "audio":
		return EntryTypeAudio, nil
	case "video":
		return EntryTypeVideo, nil
	case "image", "images":
		return EntryTypeImage, nil
	default:
		return "", fmt.Errorf("%w: unknown entry type %q", ErrInvalidRecord, s)
	}
}

// IsMedia reports whether the entry type is image, audio, or video.
func (t EntryType) IsMedia() bool {
	return t == EntryTypeImage || t == EntryTypeAudio || t == EntryTypeVideo
}

// Field names of the searchable record fields, in scoring order.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldContent     = "content"
	FieldCategory    = "category"
	FieldTags        = "tags"
	FieldCity        = "city"
	FieldCountry     = "country"
)

// Record is one collected entry. Records are immutable snapshots of the
// collaborator store; nil pointer fields are absent (null) values.
type Record struct {
	ID          string    `json:"id" db:"id"`
	EntryType   EntryType `json:"entry_type" db:"entry_type"`
	Title       string    `json:"title" db:"title"`
	Content     *string   `json:"content,omitempty" db:"content"`
	Description *string   `json:"description,omitempty" db:"description"`
	Category    *string   `json:"category,omitempty" db:"category"`
	Tags        *string   `json:"tags,omitempty" db:"tags"`
	City        string    `json:"city" db:"city"`
	Region      string    `json:"region" db:"region"`
	Country     string    `json:"country" db:"country"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	FileURL     *string   `json:"file_url,omitempty" db:"file_url"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// Field is a named searchable value of a record.
type Field struct {
	Name  string
	Value string
}

// SearchableFields returns the non-blank searchable fields in fixed order:
// title, description, content, category, tags, city, country.
func (r *Record) SearchableFields() []Field {
	candidates := []Field{
		{FieldTitle, r.Title},
		{FieldDescription, Deref(r.Description)},
		{FieldContent, Deref(r.Content)},
		{FieldCategory, Deref(r.Category)},
		{FieldTags, Deref(r.Tags)},
		{FieldCity, r.City},
		{FieldCountry, r.Country},
	}
	fields := candidates[:0]
	for _, f := range candidates {
		if strings.TrimSpace(f.Value) != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// MediaURL returns the record's file URL, or "" when absent.
func (r *Record) MediaURL() string {
	return strings.TrimSpace(Deref(r.FileURL))
}

// TagList splits the comma-joined tags into trimmed, non-empty tags.
func (r *Record) TagList() []string {
	raw := Deref(r.Tags)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// Location returns "city, country" with "Unknown" for missing parts.
func (r *Record) Location() string {
	city, country := r.City, r.Country
	if city == "" {
		city = "Unknown"
	}
	if country == "" {
		country = "Unknown"
	}
	return city + ", " + country
}

// Validate checks the record at the source boundary. It returns an error wrapping
// ErrInvalidRecord when the id or title is empty, the entry type is unknown, or the
// coordinates are out of range.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: record %s has empty title", ErrInvalidRecord, r.ID)
	}
	if _, err := ParseEntryType(string(r.EntryType)); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	if !ValidCoordinates(r.Latitude, r.Longitude) {
		return fmt.Errorf("%w: record %s has coordinates out of range (%f, %f)",
			ErrInvalidRecord, r.ID, r.Latitude, r.Longitude)
	}
	return nil
}

// Normalize validates the record and rewrites its entry type to the canonical
// form, so "images" is stored and scored as image.
func (r *Record) Normalize() error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.EntryType, _ = ParseEntryType(string(r.EntryType))
	return nil
}

// ValidCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Deref returns *p, or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
