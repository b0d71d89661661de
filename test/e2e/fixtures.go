package e2e

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/florafind/internal/models"
)

// SupportedFileExtensions is the list of import formats used in file-based E2E tests.
var SupportedFileExtensions = []string{".json", ".csv", ".xlsx"}

var columns = []string{
	"id", "entry_type", "title", "description", "content", "category", "tags",
	"city", "region", "country", "latitude", "longitude", "file_url", "timestamp",
}

func row(r *models.Record) []string {
	return []string{
		r.ID, string(r.EntryType), r.Title,
		models.Deref(r.Description), models.Deref(r.Content), models.Deref(r.Category), models.Deref(r.Tags),
		r.City, r.Region, r.Country,
		strconv.FormatFloat(r.Latitude, 'f', -1, 64), strconv.FormatFloat(r.Longitude, 'f', -1, 64),
		models.Deref(r.FileURL), r.Timestamp.Format(time.RFC3339),
	}
}

// EncodeRecords renders records in the import format named by ext.
func EncodeRecords(ext string, records []*models.Record) ([]byte, error) {
	switch ext {
	case ".json":
		return json.Marshal(records)
	case ".csv":
		return encodeCSV(records)
	case ".xlsx":
		return encodeXLSX(records)
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}

func encodeCSV(records []*models.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := w.Write(row(r)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func encodeXLSX(records []*models.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, r := range records {
		cells := row(r)
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
