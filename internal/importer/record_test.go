package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/florafind/internal/models"
)

func TestRowToRecord_Aliases(t *testing.T) {
	row := Row{
		"_id":       "m1",
		"data_type": "Images",
		"filename":  "neem.jpg",
		"desc":      "Neem in bloom",
		"keywords":  "neem, vepa",
		"state":     "Telangana",
		"lat":       "17.1",
		"lon":       "78.2",
		"url":       "https://example.org/neem.jpg",
		"date":      "2023-11-05 08:30:00",
	}
	rec, err := RowToRecord(row, "fallback")
	require.NoError(t, err)

	assert.Equal(t, "m1", rec.ID)
	assert.Equal(t, models.EntryTypeImage, rec.EntryType)
	assert.Equal(t, "neem.jpg", rec.Title)
	assert.Equal(t, "Neem in bloom", models.Deref(rec.Description))
	assert.Equal(t, []string{"neem", "vepa"}, rec.TagList())
	assert.Equal(t, "Telangana", rec.Region)
	assert.Equal(t, "https://example.org/neem.jpg", rec.MediaURL())
	assert.Equal(t, time.Date(2023, 11, 5, 8, 30, 0, 0, time.UTC), rec.Timestamp)
	assert.Nil(t, rec.Content)
}

func TestRowToRecord_Defaults(t *testing.T) {
	rec, err := RowToRecord(Row{"title": "Field notes"}, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", rec.ID)
	assert.Equal(t, models.EntryTypeText, rec.EntryType)
	assert.True(t, rec.Timestamp.IsZero())
}

func TestRowToRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		row  Row
	}{
		{"missing title", Row{"id": "1"}},
		{"unknown type", Row{"title": "x", "type": "hologram"}},
		{"bad latitude", Row{"title": "x", "latitude": "north"}},
		{"latitude out of range", Row{"title": "x", "latitude": "91"}},
		{"bad timestamp", Row{"title": "x", "timestamp": "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RowToRecord(tt.row, "id")
			assert.ErrorIs(t, err, models.ErrInvalidRecord)
		})
	}
}

func TestRowID_Stable(t *testing.T) {
	assert.Equal(t, RowID("/data/a.csv", 3), RowID("/data/a.csv", 3))
	assert.NotEqual(t, RowID("/data/a.csv", 3), RowID("/data/a.csv", 4))
	assert.NotEqual(t, RowID("/data/a.csv", 3), RowID("/data/b.csv", 3))
}

func TestDecodeRows(t *testing.T) {
	rows, err := DecodeRows([]byte(`{"Title": "Owl", "Latitude": 12.5, "Tags": ["bird", "", "night"], "extra": null}`), ".JSON")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"title": "Owl", "latitude": "12.5", "tags": "bird, night"}, rows[0])

	rows, err = DecodeRows([]byte("Entry-Type,File URL\nimage,http://x\nvideo\n"), ".csv")
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{"entry_type": "image", "file_url": "http://x"},
		{"entry_type": "video"},
	}, rows)

	rows, err = DecodeRows(nil, ".csv")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = DecodeRows([]byte("x"), ".pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
