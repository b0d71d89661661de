package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one input record keyed by normalized column name.
type Row map[string]string

// ErrUnsupportedFormat is returned for file extensions the importer cannot read.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// SupportedExtensions lists the file extensions DecodeRows understands.
var SupportedExtensions = []string{".json", ".csv", ".xlsx"}

// DecodeRows parses content according to ext (with leading dot).
func DecodeRows(content []byte, ext string) ([]Row, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return decodeJSON(content)
	case ".csv":
		return decodeCSV(content)
	case ".xlsx":
		return decodeExcel(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// decodeJSON accepts an array of objects, or a single object.
func decodeJSON(content []byte) ([]Row, error) {
	content = bytes.TrimSpace(content)
	var objects []map[string]any
	if len(content) > 0 && content[0] == '{' {
		var obj map[string]any
		if err := json.Unmarshal(content, &obj); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		objects = append(objects, obj)
	} else if err := json.Unmarshal(content, &objects); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	rows := make([]Row, 0, len(objects))
	for _, obj := range objects {
		row := make(Row, len(obj))
		for k, v := range obj {
			if s, ok := jsonString(v); ok {
				row[normalizeColumn(k)] = s
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func jsonString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := jsonString(item); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), true
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

func decodeCSV(content []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	var rows []Row
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		rows = append(rows, zipRow(header, cells))
	}
	return rows, nil
}

// decodeExcel reads the first sheet; its first row names the columns.
func decodeExcel(content []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(grid) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		if blank(cells) {
			continue
		}
		rows = append(rows, zipRow(grid[0], cells))
	}
	return rows, nil
}

func zipRow(header, cells []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		if i < len(cells) {
			row[normalizeColumn(name)] = cells[i]
		}
	}
	return row
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(strings.ReplaceAll(name, "-", " ")), "_")
}
