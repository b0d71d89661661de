package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/pkg/utils"
)

type fakeSource struct {
	calls   atomic.Int32
	mu      sync.Mutex
	records []*models.Record
	err     error
	delay   time.Duration
}

func (f *fakeSource) GetAllRecords(ctx context.Context) ([]*models.Record, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeSource) GetStatistics(context.Context) (*models.Statistics, error) {
	return &models.Statistics{}, nil
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) set(records []*models.Record, err error) {
	f.mu.Lock()
	f.records, f.err = records, err
	f.mu.Unlock()
}

func oneRecord(id string) []*models.Record {
	return []*models.Record{{ID: id, EntryType: models.EntryTypeText, Title: id}}
}

func TestRecordCache_TTL(t *testing.T) {
	clock := utils.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	src := &fakeSource{records: oneRecord("a")}
	cache := NewRecordCache(src, WithClock(clock))
	ctx := context.Background()

	snap := cache.Snapshot(ctx)
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, uint64(1), snap.Version)

	clock.Advance(4 * time.Minute)
	src.set(oneRecord("b"), nil)
	snap = cache.Snapshot(ctx)
	assert.Equal(t, "a", snap.Records[0].ID, "served from cache within the window")
	assert.Equal(t, int32(1), src.calls.Load())

	clock.Advance(time.Minute)
	snap = cache.Snapshot(ctx)
	assert.Equal(t, "b", snap.Records[0].ID)
	assert.Equal(t, uint64(2), snap.Version)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRecordCache_FailureNotCached(t *testing.T) {
	clock := utils.NewManualClock(time.Now())
	src := &fakeSource{err: errors.New("connection refused")}
	var outcomes []string
	cache := NewRecordCache(src, WithClock(clock), WithRefreshObserver(func(outcome string, _ int, _ time.Duration) {
		outcomes = append(outcomes, outcome)
	}))
	ctx := context.Background()

	snap := cache.Snapshot(ctx)
	require.NotNil(t, snap)
	assert.True(t, snap.Failed)
	assert.Zero(t, snap.Len())

	src.set(oneRecord("a"), nil)
	snap = cache.Snapshot(ctx)
	assert.False(t, snap.Failed)
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, []string{RefreshError, RefreshOK}, outcomes)
}

func TestRecordCache_NoStaleOnFailure(t *testing.T) {
	clock := utils.NewManualClock(time.Now())
	src := &fakeSource{records: oneRecord("a")}
	cache := NewRecordCache(src, WithClock(clock))
	ctx := context.Background()

	require.Equal(t, 1, cache.Snapshot(ctx).Len())

	clock.Advance(DefaultCacheTTL)
	src.set(nil, errors.New("down"))
	snap := cache.Snapshot(ctx)
	assert.True(t, snap.Failed)
	assert.Zero(t, snap.Len())
}

func TestRecordCache_Timeout(t *testing.T) {
	src := &fakeSource{records: oneRecord("a"), delay: time.Second}
	cache := NewRecordCache(src, WithFetchTimeout(20*time.Millisecond))

	start := time.Now()
	snap := cache.Snapshot(context.Background())
	assert.True(t, snap.Failed)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRecordCache_CollapsesConcurrentRefresh(t *testing.T) {
	src := &fakeSource{records: oneRecord("a"), delay: 50 * time.Millisecond}
	cache := NewRecordCache(src)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 1, cache.Snapshot(context.Background()).Len())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRecordCache_Invalidate(t *testing.T) {
	src := &fakeSource{records: oneRecord("a")}
	cache := NewRecordCache(src)
	ctx := context.Background()

	cache.Snapshot(ctx)
	cache.Invalidate()
	src.set(oneRecord("b"), nil)

	assert.Equal(t, "b", cache.Snapshot(ctx).Records[0].ID)
	assert.Equal(t, int32(2), src.calls.Load())
}

// gatedSource reads its records on entry, then blocks until release is closed.
type gatedSource struct {
	fakeSource
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) GetAllRecords(ctx context.Context) ([]*models.Record, error) {
	g.calls.Add(1)
	g.mu.Lock()
	records := g.records
	g.mu.Unlock()
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return records, nil
}

func TestRecordCache_InvalidateDuringRefresh(t *testing.T) {
	src := &gatedSource{
		fakeSource: fakeSource{records: oneRecord("old")},
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	cache := NewRecordCache(src)
	ctx := context.Background()

	done := make(chan *Snapshot, 1)
	go func() { done <- cache.Snapshot(ctx) }()
	<-src.entered

	src.set(oneRecord("new"), nil)
	cache.Invalidate()
	close(src.release)

	first := <-done
	assert.Equal(t, "old", first.Records[0].ID, "the in-flight fetch still answers its caller")

	second := cache.Snapshot(ctx)
	assert.Equal(t, "new", second.Records[0].ID)
	assert.Greater(t, second.Version, first.Version)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRecordCache_BreakerOpens(t *testing.T) {
	src := &fakeSource{err: errors.New("down")}
	var last string
	cache := NewRecordCache(src, WithRefreshObserver(func(outcome string, _ int, _ time.Duration) {
		last = outcome
	}))

	for i := 0; i < 3; i++ {
		cache.Snapshot(context.Background())
	}
	assert.Equal(t, int32(3), src.calls.Load())

	snap := cache.Snapshot(context.Background())
	assert.True(t, snap.Failed)
	assert.Equal(t, RefreshBreakerOpen, last)
	assert.Equal(t, int32(3), src.calls.Load(), "open breaker skips the source")
}

func TestRecordCache_NilSource(t *testing.T) {
	snap := NewRecordCache(nil).Snapshot(context.Background())
	assert.True(t, snap.Failed)
	assert.Zero(t, snap.Len())
}
