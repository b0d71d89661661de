package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/pkg/utils"
)

// Defaults for the MongoDB record collection.
const (
	DefaultMongoDatabase   = "flora_fauna_db"
	DefaultMongoCollection = "collected_data"
)

// MongoStore is a read-only RecordSource backed by a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     *zap.Logger
}

// MongoOption configures a MongoStore.
type MongoOption func(*MongoStore)

// WithMongoLogger sets the logger used to report skipped documents.
func WithMongoLogger(l *zap.Logger) MongoOption {
	return func(s *MongoStore) {
		s.logger = utils.OrNop(l)
	}
}

// NewMongoStore connects to uri and pings the server. Empty database or collection
// names use the defaults.
func NewMongoStore(ctx context.Context, uri, database, collection string, opts ...MongoOption) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongodb uri is required")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:     client,
		db:         db,
		collection: db.Collection(collection),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetAllRecords returns every valid document as a record, newest first.
func (s *MongoStore) GetAllRecords(ctx context.Context) ([]*models.Record, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []*models.Record
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		rec := documentToRecord(doc)
		if err := rec.Validate(); err != nil {
			s.logger.Warn("skipping invalid record", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, cursor.Err()
}

// GetStatistics returns record counts per entry type and the collection size.
func (s *MongoStore) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$entry_type", "$data_type"}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Type  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode counts: %w", err)
	}

	stats := &models.Statistics{CountsByType: make(map[models.EntryType]int64)}
	for _, g := range groups {
		typ := models.EntryType(g.Type)
		if parsed, err := models.ParseEntryType(g.Type); err == nil {
			typ = parsed
		}
		stats.CountsByType[typ] += g.Count
		stats.Total += g.Count
	}

	var collStats struct {
		Size int64 `bson:"size"`
	}
	err = s.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: s.collection.Name()}}).Decode(&collStats)
	if err != nil {
		s.logger.Debug("collStats unavailable", zap.Error(err))
	}
	stats.DBSizeBytes = collStats.Size
	return stats, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// documentToRecord maps a collection document onto a Record. Documents written by
// older uploaders use data_type, filename, tag arrays and a nested location object.
func documentToRecord(doc bson.M) *models.Record {
	rec := &models.Record{
		ID:    idString(doc["_id"]),
		Title: firstString(doc, "title", "filename", "original_name"),
	}
	if id := stringField(doc, "id"); id != "" {
		rec.ID = id
	}

	rawType := firstString(doc, "entry_type", "data_type")
	if typ, err := models.ParseEntryType(rawType); err == nil {
		rec.EntryType = typ
	} else {
		rec.EntryType = models.EntryType(rawType)
	}

	rec.Content = models.StringPtr(stringField(doc, "content"))
	rec.Description = models.StringPtr(stringField(doc, "description"))
	rec.Category = models.StringPtr(stringField(doc, "category"))
	rec.Tags = models.StringPtr(tagsField(doc["tags"]))
	rec.FileURL = models.StringPtr(firstString(doc, "file_url", "url"))

	loc := doc
	if nested, ok := doc["location"].(bson.M); ok {
		loc = nested
	}
	rec.City = stringField(loc, "city")
	rec.Region = stringField(loc, "region")
	rec.Country = stringField(loc, "country")
	rec.Latitude = floatField(loc, "latitude")
	rec.Longitude = floatField(loc, "longitude")

	switch ts := doc["timestamp"].(type) {
	case primitive.DateTime:
		rec.Timestamp = ts.Time().UTC()
	case time.Time:
		rec.Timestamp = ts.UTC()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = t.UTC()
		}
	}
	return rec
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func stringField(doc bson.M, key string) string {
	switch v := doc[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func firstString(doc bson.M, keys ...string) string {
	for _, k := range keys {
		if v := stringField(doc, k); v != "" {
			return v
		}
	}
	return ""
}

func floatField(doc bson.M, key string) float64 {
	switch v := doc[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// tagsField joins tag arrays with commas; plain strings pass through.
func tagsField(v any) string {
	switch tags := v.(type) {
	case string:
		return tags
	case bson.A:
		parts := make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
