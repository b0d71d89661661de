package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/florafind/internal/models"
)

// Column aliases accepted for each record field, first match wins.
var (
	idColumns          = []string{"id", "_id", "record_id"}
	typeColumns        = []string{"entry_type", "data_type", "type"}
	titleColumns       = []string{"title", "name", "filename", "original_name"}
	contentColumns     = []string{"content", "text"}
	descriptionColumns = []string{"description", "desc"}
	categoryColumns    = []string{"category"}
	tagsColumns        = []string{"tags", "keywords"}
	cityColumns        = []string{"city"}
	regionColumns      = []string{"region", "state"}
	countryColumns     = []string{"country"}
	latitudeColumns    = []string{"latitude", "lat"}
	longitudeColumns   = []string{"longitude", "lon", "lng"}
	urlColumns         = []string{"file_url", "url", "media_url"}
	timestampColumns   = []string{"timestamp", "created_at", "date"}
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// rowNamespace seeds the deterministic ids of rows that carry none.
var rowNamespace = uuid.MustParse("6f1c2a4e-8d0b-4c39-9a57-3e2b7d1f0c84")

// RowID returns a stable id for the row at index in the file at source. Importing
// the same file again updates the same records.
func RowID(source string, index int) string {
	return uuid.NewSHA1(rowNamespace, []byte(source+"#"+strconv.Itoa(index))).String()
}

// RowToRecord maps row onto a record and validates it. fallbackID is used when the
// row has no id column.
func RowToRecord(row Row, fallbackID string) (*models.Record, error) {
	rec := &models.Record{
		ID:          row.first(idColumns...),
		Title:       row.first(titleColumns...),
		Content:     models.StringPtr(row.first(contentColumns...)),
		Description: models.StringPtr(row.first(descriptionColumns...)),
		Category:    models.StringPtr(row.first(categoryColumns...)),
		Tags:        models.StringPtr(row.first(tagsColumns...)),
		City:        row.first(cityColumns...),
		Region:      row.first(regionColumns...),
		Country:     row.first(countryColumns...),
		FileURL:     models.StringPtr(row.first(urlColumns...)),
	}
	if rec.ID == "" {
		rec.ID = fallbackID
	}

	typ := row.first(typeColumns...)
	if typ == "" {
		typ = string(models.EntryTypeText)
	}
	entryType, err := models.ParseEntryType(typ)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	rec.EntryType = entryType

	if rec.Latitude, err = parseCoordinate(row.first(latitudeColumns...)); err != nil {
		return nil, fmt.Errorf("%w: record %s latitude: %v", models.ErrInvalidRecord, rec.ID, err)
	}
	if rec.Longitude, err = parseCoordinate(row.first(longitudeColumns...)); err != nil {
		return nil, fmt.Errorf("%w: record %s longitude: %v", models.ErrInvalidRecord, rec.ID, err)
	}
	if rec.Timestamp, err = parseTimestamp(row.first(timestampColumns...)); err != nil {
		return nil, fmt.Errorf("%w: record %s timestamp: %v", models.ErrInvalidRecord, rec.ID, err)
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r Row) first(columns ...string) string {
	for _, c := range columns {
		if v := strings.TrimSpace(r[c]); v != "" {
			return v
		}
	}
	return ""
}

func parseCoordinate(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
