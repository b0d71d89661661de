package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/pkg/utils"
)

// Cache defaults.
const (
	DefaultCacheTTL     = 5 * time.Minute
	DefaultFetchTimeout = 10 * time.Second
)

// Refresh outcomes passed to a RefreshObserver.
const (
	RefreshOK          = "ok"
	RefreshError       = "error"
	RefreshBreakerOpen = "breaker_open"
)

// RefreshObserver is notified after every fetch from the source.
type RefreshObserver func(outcome string, records int, elapsed time.Duration)

// Snapshot is one materialization of the record source. Records are shared between
// callers and must not be modified.
type Snapshot struct {
	Records   []*models.Record
	Version   uint64
	FetchedAt time.Time
	// Failed is set on the empty snapshot returned when the source could not be read.
	Failed bool
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// RecordCache serves snapshots of a RecordSource, fetching at most once per TTL.
// Concurrent refreshes collapse into a single fetch. A failed fetch yields an empty
// snapshot and is not cached.
type RecordCache struct {
	source   RecordSource
	clock    utils.Clock
	ttl      time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	breaker  *gobreaker.CircuitBreaker
	observer RefreshObserver

	group   singleflight.Group
	mu      sync.RWMutex
	current *Snapshot
	version uint64
	// generation counts invalidations; a refresh that started before one is not cached.
	generation uint64
}

// CacheOption configures a RecordCache.
type CacheOption func(*RecordCache)

// WithCacheTTL sets how long a snapshot is served before the next fetch.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *RecordCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithFetchTimeout bounds each fetch from the source.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *RecordCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock sets the clock used to expire snapshots.
func WithClock(clock utils.Clock) CacheOption {
	return func(c *RecordCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *RecordCache) {
		c.logger = utils.OrNop(l)
	}
}

// WithRefreshObserver registers fn to be called after every fetch.
func WithRefreshObserver(fn RefreshObserver) CacheOption {
	return func(c *RecordCache) {
		c.observer = fn
	}
}

// NewRecordCache creates a cache over source.
func NewRecordCache(source RecordSource, opts ...CacheOption) *RecordCache {
	c := &RecordCache{
		source:  source,
		clock:   utils.SystemClock{},
		ttl:     DefaultCacheTTL,
		timeout: DefaultFetchTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "RecordSource",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// Snapshot returns the cached snapshot, refreshing it from the source when it has
// expired. It never returns nil.
func (c *RecordCache) Snapshot(ctx context.Context) *Snapshot {
	if snap := c.fresh(); snap != nil {
		return snap
	}

	v, _, _ := c.group.Do("records", func() (interface{}, error) {
		// Another caller may have refreshed while this one waited for the lock.
		if snap := c.fresh(); snap != nil {
			return snap, nil
		}
		return c.refresh(ctx), nil
	})
	return v.(*Snapshot)
}

// Invalidate drops the cached snapshot so the next call fetches again. A fetch
// already in flight still answers its callers but is not cached.
func (c *RecordCache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.generation++
	c.mu.Unlock()
	c.group.Forget("records")
}

// TTL returns the snapshot lifetime.
func (c *RecordCache) TTL() time.Duration {
	return c.ttl
}

func (c *RecordCache) fresh() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	if c.clock.Now().Sub(c.current.FetchedAt) >= c.ttl {
		return nil
	}
	return c.current
}

func (c *RecordCache) refresh(ctx context.Context) *Snapshot {
	now := c.clock.Now()
	c.mu.RLock()
	generation := c.generation
	c.mu.RUnlock()
	if c.source == nil {
		return &Snapshot{FetchedAt: now, Failed: true}
	}

	// The fetch is shared by every waiting caller, so one caller's cancellation
	// must not abort it.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.source.GetAllRecords(fetchCtx)
	})
	elapsed := time.Since(start)

	if err != nil {
		outcome := RefreshError
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = RefreshBreakerOpen
		}
		c.logger.Warn("failed to load records, serving empty snapshot",
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		c.observe(outcome, 0, elapsed)
		return &Snapshot{FetchedAt: now, Failed: true}
	}

	records, _ := result.([]*models.Record)

	c.mu.Lock()
	c.version++
	snap := &Snapshot{Records: records, Version: c.version, FetchedAt: now}
	stale := c.generation != generation
	if !stale {
		c.current = snap
	}
	c.mu.Unlock()

	c.logger.Debug("record snapshot refreshed",
		zap.Int("records", len(records)),
		zap.Uint64("version", snap.Version),
		zap.Bool("invalidated", stale),
		zap.Duration("elapsed", elapsed))
	c.observe(RefreshOK, len(records), elapsed)
	return snap
}

func (c *RecordCache) observe(outcome string, records int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer(outcome, records, elapsed)
	}
}
