package e2e

import (
	"testing"

	"github.com/hyperjump/florafind/internal/importer"
	"github.com/hyperjump/florafind/internal/models"
)

func TestEncodeRecords_AllFormatsDecodable(t *testing.T) {
	records := BuildCorpus().Records[:4]
	for _, ext := range SupportedFileExtensions {
		ext := ext
		t.Run(ext, func(t *testing.T) {
			data, err := EncodeRecords(ext, records)
			if err != nil {
				t.Fatalf("EncodeRecords: %v", err)
			}
			rows, err := importer.DecodeRows(data, ext)
			if err != nil {
				t.Fatalf("DecodeRows: %v", err)
			}
			if len(rows) != len(records) {
				t.Fatalf("decoded %d rows, want %d", len(rows), len(records))
			}
			for i, row := range rows {
				rec, err := importer.RowToRecord(row, "fallback")
				if err != nil {
					t.Fatalf("row %d: %v", i, err)
				}
				if rec.ID != records[i].ID || rec.Title != records[i].Title {
					t.Errorf("row %d = %s/%s, want %s/%s", i, rec.ID, rec.Title, records[i].ID, records[i].Title)
				}
				if models.Deref(rec.Tags) != models.Deref(records[i].Tags) {
					t.Errorf("row %d tags = %q", i, models.Deref(rec.Tags))
				}
			}
		})
	}
}

func TestEncodeRecords_UnknownExtension(t *testing.T) {
	if _, err := EncodeRecords(".pdf", nil); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
