// Package storage defines the record sources searched by the query engine and the
// cache that snapshots them.
package storage

import (
	"context"

	"github.com/hyperjump/florafind/internal/models"
)

// RecordSource supplies the flat record table. Implementations return records
// newest first and skip rows that fail models.Record.Validate.
type RecordSource interface {
	GetAllRecords(ctx context.Context) ([]*models.Record, error)
	GetStatistics(ctx context.Context) (*models.Statistics, error)
	Close() error
}

// RecordStore is a writable RecordSource.
type RecordStore interface {
	RecordSource

	CreateRecord(ctx context.Context, rec *models.Record) error
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	DeleteRecord(ctx context.Context, id string) error

	// Batch operations
	BatchCreateRecords(ctx context.Context, recs []*models.Record) error

	// Imports tracked by source, so a removed source takes its records along.
	ImportRecords(ctx context.Context, source string, recs []*models.Record) (int64, error)
	DeleteSource(ctx context.Context, source string) (int64, error)

	CountRecords(ctx context.Context) (int64, error)
}

// Provider names accepted by the storage.provider setting.
const (
	ProviderSQLite  = "sqlite"
	ProviderMongoDB = "mongodb"
)
