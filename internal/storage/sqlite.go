package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/pkg/utils"
)

const recordColumns = `id, entry_type, title, content, description, category, tags,
	city, region, country, latitude, longitude, file_url, timestamp`

// SQLiteStore implements RecordStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteLogger sets the logger used to report skipped rows.
func WithSQLiteLogger(l *zap.Logger) SQLiteOption {
	return func(s *SQLiteStore) {
		s.logger = utils.OrNop(l)
	}
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		entry_type TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT,
		description TEXT,
		category TEXT,
		tags TEXT,
		city TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		latitude REAL NOT NULL DEFAULT 0,
		longitude REAL NOT NULL DEFAULT 0,
		file_url TEXT,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_records_entry_type ON records(entry_type);

	CREATE TABLE IF NOT EXISTS record_sources (
		source TEXT NOT NULL,
		record_id TEXT NOT NULL,
		PRIMARY KEY (source, record_id)
	);

	CREATE INDEX IF NOT EXISTS idx_record_sources_record ON record_sources(record_id);
	`
	_, err := db.Exec(schema)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec                                      models.Record
		entryType                                string
		content, description, category, tags, fu sql.NullString
	)
	err := row.Scan(&rec.ID, &entryType, &rec.Title, &content, &description, &category, &tags,
		&rec.City, &rec.Region, &rec.Country, &rec.Latitude, &rec.Longitude, &fu, &rec.Timestamp)
	if err != nil {
		return nil, err
	}
	rec.EntryType = models.EntryType(entryType)
	if typ, err := models.ParseEntryType(entryType); err == nil {
		rec.EntryType = typ
	}
	rec.Content = nullablePtr(content)
	rec.Description = nullablePtr(description)
	rec.Category = nullablePtr(category)
	rec.Tags = nullablePtr(tags)
	rec.FileURL = nullablePtr(fu)
	return &rec, nil
}

func nullablePtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return models.StringPtr(ns.String)
}

func nullable(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func recordArgs(rec *models.Record) []any {
	return []any{
		rec.ID, string(rec.EntryType), rec.Title,
		nullable(rec.Content), nullable(rec.Description), nullable(rec.Category), nullable(rec.Tags),
		rec.City, rec.Region, rec.Country, rec.Latitude, rec.Longitude,
		nullable(rec.FileURL), rec.Timestamp.UTC(),
	}
}

// prepareRecord validates and normalizes rec and stamps a missing timestamp.
func prepareRecord(rec *models.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", models.ErrInvalidRecord)
	}
	if err := rec.Normalize(); err != nil {
		return err
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return nil
}

const insertRecord = `INSERT OR REPLACE INTO records (` + recordColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateRecord validates and inserts rec, replacing any record with the same id.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec *models.Record) error {
	if err := prepareRecord(rec); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertRecord, recordArgs(rec)...); err != nil {
		return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
	}
	return nil
}

// GetRecord returns a record by ID, or an error wrapping models.ErrRecordNotFound.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord removes a record by ID.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrRecordNotFound, id)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM record_sources WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("failed to unlink record %s: %w", id, err)
	}
	return nil
}

// BatchCreateRecords inserts multiple records in a transaction. Nothing is written
// if any record is invalid.
func (s *SQLiteStore) BatchCreateRecords(ctx context.Context, recs []*models.Record) error {
	for _, rec := range recs {
		if err := prepareRecord(rec); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, recordArgs(rec)...); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// ImportRecords upserts recs as the contents of source, typically an import file
// path, in one transaction. Records an earlier import of source provided that are
// missing from recs are deleted unless another source still provides them; the
// number deleted is returned.
func (s *SQLiteStore) ImportRecords(ctx context.Context, source string, recs []*models.Record) (int64, error) {
	for _, rec := range recs {
		if err := prepareRecord(rec); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	previous, err := unlinkSource(ctx, tx, source)
	if err != nil {
		return 0, err
	}

	insert, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return 0, err
	}
	defer insert.Close()
	link, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO record_sources (source, record_id) VALUES (?, ?)`)
	if err != nil {
		return 0, err
	}
	defer link.Close()

	for _, rec := range recs {
		if _, err := insert.ExecContext(ctx, recordArgs(rec)...); err != nil {
			return 0, fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
		if _, err := link.ExecContext(ctx, source, rec.ID); err != nil {
			return 0, fmt.Errorf("failed to link record %s: %w", rec.ID, err)
		}
	}

	removed, err := deleteOrphans(ctx, tx, previous)
	if err != nil {
		return 0, err
	}
	return removed, tx.Commit()
}

// DeleteSource deletes the records source provided that no other source provides,
// and returns how many were deleted.
func (s *SQLiteStore) DeleteSource(ctx context.Context, source string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	ids, err := unlinkSource(ctx, tx, source)
	if err != nil {
		return 0, err
	}
	n, err := deleteOrphans(ctx, tx, ids)
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// unlinkSource removes every link of source and returns the ids it linked.
func unlinkSource(ctx context.Context, tx *sql.Tx, source string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT record_id FROM record_sources WHERE source = ?`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query source %s: %w", source, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM record_sources WHERE source = ?`, source); err != nil {
		return nil, fmt.Errorf("failed to unlink source %s: %w", source, err)
	}
	return ids, nil
}

// deleteOrphans deletes the records among ids that no source links anymore.
func deleteOrphans(ctx context.Context, tx *sql.Tx, ids []string) (int64, error) {
	var deleted int64
	for _, id := range ids {
		result, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?
			AND NOT EXISTS (SELECT 1 FROM record_sources WHERE record_id = ?)`, id, id)
		if err != nil {
			return deleted, fmt.Errorf("failed to delete record %s: %w", id, err)
		}
		n, _ := result.RowsAffected()
		deleted += n
	}
	return deleted, nil
}

// GetAllRecords returns every valid record, newest first.
func (s *SQLiteStore) GetAllRecords(ctx context.Context) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY timestamp DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var recs []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := rec.Validate(); err != nil {
			s.logger.Warn("skipping invalid record", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CountRecords returns the total number of records.
func (s *SQLiteStore) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// GetStatistics returns record counts per entry type and the database size on disk.
func (s *SQLiteStore) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_type, COUNT(*) FROM records GROUP BY entry_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	stats := &models.Statistics{CountsByType: make(map[models.EntryType]int64)}
	for rows.Next() {
		var (
			typ   string
			count int64
		)
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		key := models.EntryType(typ)
		if parsed, err := models.ParseEntryType(typ); err == nil {
			key = parsed
		}
		stats.CountsByType[key] += count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	size, err := DiskUsageBytes(SQLiteFiles(s.path)...)
	if err != nil {
		s.logger.Warn("failed to measure database size", zap.String("path", s.path), zap.Error(err))
	}
	stats.DBSizeBytes = size
	return stats, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
