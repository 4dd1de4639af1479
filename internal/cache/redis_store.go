package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/Delphi/internal/stability"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefaultRetention keeps entries around after the event starts for historical reads
const DefaultRetention = 72 * time.Hour

// RedisStore shares grade cache entries between Delphi processes.
// Entries are written once per (event, fingerprint) and never mutated;
// a separate pointer key tracks the latest entry per event.
type RedisStore struct {
	redis     *redis.Client
	retention time.Duration
	now       func() time.Time
}

var _ stability.Store = (*RedisStore)(nil)

// latestScript moves the latest pointer only forward in computed_at order,
// or rewrites it for the same fingerprint (invalidate, terminal flag)
var latestScript = redis.NewScript(`
local current = redis.call('HMGET', KEYS[1], 'fingerprint', 'computed_at')
if current[1] and current[1] ~= ARGV[1] and tonumber(current[2]) > tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'fingerprint', ARGV[1], 'computed_at', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// NewRedisStore creates a Redis-backed store
func NewRedisStore(redisClient *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisStore{
		redis:     redisClient,
		retention: retention,
		now:       time.Now,
	}
}

// Get returns the entry for (eventID, fingerprint)
func (s *RedisStore) Get(ctx context.Context, eventID, fingerprint string) (*models.GradeCacheEntry, error) {
	data, err := s.redis.Get(ctx, entryKey(eventID, fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get entry: %w", err)
	}

	var entry models.GradeCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Cache corruption, treat as missing
		return nil, models.ErrEntryNotFound
	}

	return &entry, nil
}

// Latest follows the event's latest pointer
func (s *RedisStore) Latest(ctx context.Context, eventID string) (*models.GradeCacheEntry, error) {
	fingerprint, err := s.redis.HGet(ctx, latestKey(eventID), "fingerprint").Result()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get latest: %w", err)
	}

	return s.Get(ctx, eventID, fingerprint)
}

// Put writes the entry and advances the latest pointer (write-through)
func (s *RedisStore) Put(ctx context.Context, entry *models.GradeCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal grade entry: %w", err)
	}

	ttl := s.ttl(entry)

	if err := s.redis.Set(ctx, entryKey(entry.EventID, entry.Fingerprint), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set entry: %w", err)
	}

	err = latestScript.Run(ctx, s.redis,
		[]string{latestKey(entry.EventID)},
		entry.Fingerprint,
		entry.ComputedAt.UnixNano(),
		ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis advance latest: %w", err)
	}

	return nil
}

// ttl keeps an entry until its expiry plus retention
func (s *RedisStore) ttl(entry *models.GradeCacheEntry) time.Duration {
	ttl := s.retention
	if !entry.ExpiresAt.IsZero() {
		if untilExpiry := entry.ExpiresAt.Sub(s.now()); untilExpiry > 0 {
			ttl += untilExpiry
		}
	}
	return ttl
}

// entryKey format: grades:entry:{event_id}:{fingerprint}
func entryKey(eventID, fingerprint string) string {
	return fmt.Sprintf("grades:entry:%s:%s", eventID, fingerprint)
}

// latestKey format: grades:latest:{event_id}
func latestKey(eventID string) string {
	return fmt.Sprintf("grades:latest:%s", eventID)
}
