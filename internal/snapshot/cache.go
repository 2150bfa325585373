package snapshot

import (
	"context"
	"time"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/pkg/logger"
	"github.com/wonny/aegis-valuation/pkg/redis"
)

// Cache is the subset of *redis.Cache used for read-through caching
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheRecorder receives hit/miss events (metrics)
type CacheRecorder interface {
	RecordCache(hit bool)
}

// CachedSource is a read-through cache in front of another source.
// 캐시 장애는 경고만 남기고 원본 소스로 진행
type CachedSource struct {
	source   contracts.SnapshotSource
	cache    Cache
	ttl      time.Duration
	recorder CacheRecorder
	logger   *logger.Logger
}

// NewCachedSource wraps source with cache; recorder may be nil
func NewCachedSource(source contracts.SnapshotSource, cache Cache, ttl time.Duration, recorder CacheRecorder, log *logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	return &CachedSource{
		source:   source,
		cache:    cache,
		ttl:      ttl,
		recorder: recorder,
		logger:   log,
	}
}

// Load implements contracts.SnapshotSource
func (s *CachedSource) Load(ctx context.Context, code string, asOf time.Time) (*contracts.AnalysisSnapshot, error) {
	key := redis.SnapshotKey(code, asOfKey(asOf))

	var cached contracts.AnalysisSnapshot
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Snapshot cache read failed")
	}
	if hit && err == nil {
		if err := Check(&cached); err == nil {
			s.record(true)
			return &cached, nil
		}
		s.logger.WithField("key", key).Warn("Discarding invalid cached snapshot")
	}
	s.record(false)

	snap, err := s.source.Load(ctx, code, asOf)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, snap, s.ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Snapshot cache write failed")
	}
	return snap, nil
}

func (s *CachedSource) record(hit bool) {
	if s.recorder != nil {
		s.recorder.RecordCache(hit)
	}
}

func asOfKey(asOf time.Time) string {
	if asOf.IsZero() {
		return "latest"
	}
	return asOf.Format("2006-01-02")
}
