// Package importer loads records from JSON, CSV and XLSX files into the record store.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/internal/storage"
	"github.com/hyperjump/florafind/pkg/utils"
)

// Result summarizes one import.
type Result struct {
	Files    int `json:"files"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	// Removed counts records deleted because their file no longer provides them.
	Removed int `json:"removed"`
}

func (r *Result) add(o Result) {
	r.Files += o.Files
	r.Imported += o.Imported
	r.Skipped += o.Skipped
	r.Removed += o.Removed
}

func (r Result) changed() bool {
	return r.Imported > 0 || r.Removed > 0
}

// Importer writes decoded rows to a RecordStore.
type Importer struct {
	store    storage.RecordStore
	onImport func(Result)
	logger   *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger used to report skipped rows.
func WithLogger(l *zap.Logger) Option {
	return func(imp *Importer) { imp.logger = utils.OrNop(l) }
}

// OnImport registers fn to be called after every import or removal that changed
// the store.
func OnImport(fn func(Result)) Option {
	return func(imp *Importer) { imp.onImport = fn }
}

// NewImporter creates an importer writing to store.
func NewImporter(store storage.RecordStore, opts ...Option) *Importer {
	imp := &Importer{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// ImportFile decodes the file at path and stores every valid row in one batch. Rows
// that fail validation are skipped and logged. Records an earlier import of the same
// file provided that it no longer contains are removed. If allowedExts is non-empty
// the file's extension must be in it.
func (imp *Importer) ImportFile(ctx context.Context, path string, allowedExts []string) (Result, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Result{}, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return Result{}, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Result{}, fmt.Errorf("not a regular file: %s", absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("read file: %w", err)
	}
	rows, err := DecodeRows(content, ext)
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", absPath, err)
	}

	res := Result{Files: 1}
	records := make([]*models.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := RowToRecord(row, RowID(absPath, i))
		if err != nil {
			res.Skipped++
			imp.logger.Warn("skipping invalid row",
				zap.String("path", absPath),
				zap.Int("row", i+1),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	removed, err := imp.store.ImportRecords(ctx, absPath, records)
	if err != nil {
		return res, fmt.Errorf("failed to store records: %w", err)
	}
	res.Imported = len(records)
	res.Removed = int(removed)

	imp.logger.Info("file imported",
		zap.String("path", absPath),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("removed", res.Removed))
	imp.notify(res)
	return res, nil
}

// RemoveFile deletes the records a removed file provided, keeping any that another
// imported file also provides.
func (imp *Importer) RemoveFile(ctx context.Context, path string) (Result, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Result{}, fmt.Errorf("absolute path: %w", err)
	}
	n, err := imp.store.DeleteSource(ctx, absPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to remove records of %s: %w", absPath, err)
	}
	res := Result{Files: 1, Removed: int(n)}
	imp.logger.Info("file removed", zap.String("path", absPath), zap.Int("removed", res.Removed))
	imp.notify(res)
	return res, nil
}

func (imp *Importer) notify(res Result) {
	if res.changed() && imp.onImport != nil {
		imp.onImport(res)
	}
}

// ImportDirectory walks dir recursively and imports each regular file with a
// supported extension. It stops at the first file that fails.
func (imp *Importer) ImportDirectory(ctx context.Context, dir string) (Result, error) {
	var total Result
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return total, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return total, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return total, fmt.Errorf("not a directory: %s", absDir)
	}

	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !extensionAllowed(filepath.Ext(path), SupportedExtensions) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		res, err := imp.ImportFile(ctx, path, nil)
		total.add(res)
		return err
	})
	return total, err
}

// Import dispatches to ImportFile or ImportDirectory depending on what path is.
func (imp *Importer) Import(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return imp.ImportDirectory(ctx, path)
	}
	return imp.ImportFile(ctx, path, SupportedExtensions)
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
